// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// preview.go - Signed document links for aina CLI.

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/aina-tui/internal/api"
)

func newPreviewCommand(a *app) *cobra.Command {
	var byID, jsonOut bool
	cmd := &cobra.Command{
		Use:   "preview <title-or-path>",
		Short: "Print a time-limited link to a source document",
		Long: `Resolve a source document to a signed, time-limited URL.

The argument is a blob path (policies/Expenses.pdf), a full blob URL, or a
source title as shown under an answer ("Expenses.pdf - page 4"). With --id
it is a base64 document id as returned by the search agent.`,
		Example: `  aina preview "policies/Expenses.pdf - page 4"
  aina preview --id aHR0cHM6Ly9leGFtcGxlLmJsb2IuY29yZS53aW5kb3dzLm5ldC9kb2NzL2EucGRm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.newClient()
			if err != nil {
				return err
			}

			arg := strings.TrimSpace(strings.Join(args, " "))
			var p api.Preview
			if byID {
				p, err = client.PreviewFromID(cmd.Context(), arg)
			} else {
				// A title and a path are both accepted; PreviewSource prefers
				// the path when it names a blob.
				p, err = client.PreviewSource(cmd.Context(), arg, arg)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data := PreviewData{URL: p.URL, ExpiresInMinutes: int(p.ExpiresIn.Minutes())}
				return writeJSON(out, "preview", data, err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, p.URL)
			fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("valid for "+p.ExpiresIn.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "the argument is a base64 document id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the link as JSON")
	return cmd
}
