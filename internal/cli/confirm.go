// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
// One pattern for every command that deletes something:
//  1. --yes proceeds without prompting
//  2. --json requires --yes (no prompts in JSON mode)
//  3. input that is not a terminal requires --yes
//  4. otherwise ask [y/N] and read one line

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConfirmationOptions describes how a command was invoked.
type ConfirmationOptions struct {
	// Yes is set by --yes
	Yes bool
	// JSONMode is set by --json
	JSONMode bool
	// Interactive reports whether in is a terminal. Tests set it directly.
	Interactive bool
}

// RequireConfirmation asks before a destructive action. It returns false
// without error when the user declines.
func RequireConfirmation(in io.Reader, out io.Writer, action string, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode {
		return false, usageErrorf("confirmation required: pass --yes in JSON mode")
	}
	if !opts.Interactive {
		return false, usageErrorf("confirmation required but stdin is not a terminal; pass --yes")
	}

	fmt.Fprintf(out, "%s [y/N]: ", WarningStyle.Render("Really "+action+"?"))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
