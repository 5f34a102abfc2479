// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error presentation for aina CLI.

package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/ui/components"
)

// Exit codes returned by Execute.
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitAuth    = 3
	ExitBackend = 4
)

// UsageError marks a bad invocation: missing arguments, unknown agent.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var usage *UsageError
	var failed *api.RequestFailed
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsage
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrTokenExpired):
		return ExitAuth
	case errors.As(err, &failed):
		if s := failed.Status; s == http.StatusUnauthorized || s == http.StatusForbidden {
			return ExitAuth
		}
		return ExitBackend
	}
	return ExitError
}

// printError writes err and, when one is known, a hint on how to fix it.
func printError(w io.Writer, err error) {
	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+usage.Message)
		return
	}
	hint := components.ExplainError(err)
	fmt.Fprintln(w, ErrorStyle.Render(hint.Title+":")+" "+err.Error())
	if hint.Suggestion != "" {
		fmt.Fprintln(w, DimStyle.Render(hint.Suggestion))
	}
}
