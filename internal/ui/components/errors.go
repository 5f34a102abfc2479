// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
)

// ErrorCategory groups failures that share a remedy.
type ErrorCategory string

const (
	CategoryAuth     ErrorCategory = "auth"
	CategoryNotFound ErrorCategory = "not_found"
	CategoryNetwork  ErrorCategory = "network"
	CategoryTimeout  ErrorCategory = "timeout"
	CategoryServer   ErrorCategory = "server"
	CategoryLimit    ErrorCategory = "limit"
	CategoryUnknown  ErrorCategory = "unknown"
)

// ErrorHint is a user-facing explanation of a failure.
type ErrorHint struct {
	Category   ErrorCategory
	Title      string
	Suggestion string
}

// ExplainError classifies err, most specific cause first.
func ExplainError(err error) ErrorHint {
	var netErr net.Error
	switch {
	case err == nil:
		return ErrorHint{Category: CategoryUnknown, Title: "Unknown error"}
	case errors.Is(err, auth.ErrNoToken):
		return ErrorHint{CategoryAuth, "Not signed in",
			"Set AINA_TOKEN or write the access token to the token file."}
	case errors.Is(err, auth.ErrTokenExpired):
		return ErrorHint{CategoryAuth, "Session expired",
			"Sign in again; the token file is reloaded automatically."}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorHint{CategoryTimeout, "Request timed out",
			"Try again, or raise server.timeout_secs."}
	case errors.Is(err, api.ErrResponseTooLarge):
		return ErrorHint{CategoryLimit, "Response too large",
			"Raise server.max_response_mb if the answer is expected to be this big."}
	case errors.Is(err, api.ErrInvalidDocumentID):
		return ErrorHint{CategoryNotFound, "Unknown document",
			"The source id does not point to a stored document."}
	}

	switch status := api.StatusOf(err); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorHint{CategoryAuth, "Access denied",
			"The server rejected the access token. Sign in again."}
	case status == http.StatusNotFound:
		return ErrorHint{CategoryNotFound, "Not found",
			"The conversation may have been deleted. Use /refresh."}
	case status == http.StatusRequestEntityTooLarge:
		return ErrorHint{CategoryLimit, "File too large",
			"The server refused the attachment size."}
	case status == http.StatusTooManyRequests:
		return ErrorHint{CategoryLimit, "Too many requests",
			"Wait a moment, or lower server.requests_per_second."}
	case status >= 500:
		return ErrorHint{CategoryServer, "Server error",
			"The Aïna backend failed. Try again later."}
	}

	if errors.As(err, &netErr) {
		return ErrorHint{CategoryNetwork, "Server unreachable",
			"Check the network and the server URL (--server or AINA_SERVER)."}
	}
	return ErrorHint{Category: CategoryUnknown, Title: "Request failed"}
}

// ErrorNotice formats err for the status line: "<title>: <error>".
func ErrorNotice(err error) string {
	if err == nil {
		return ""
	}
	return ExplainError(err).Title + ": " + err.Error()
}
