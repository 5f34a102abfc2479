// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot questions for aina CLI.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/ui/components"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

type askOptions struct {
	file         string
	conversation string
	json         bool
}

func newAskCommand(a *app) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the answer",
		Long: `Send one question to the selected agent and print the answer, followed by
the table (finance) and the source documents (doc, search) when present.

Without arguments the question is read from standard input.`,
		Example: `  aina ask "Where is the expenses policy?"
  aina --agent finance ask "unpaid invoices for Acme"
  aina --agent vision ask --file receipt.png "What is the total?"
  git log -1 --format=%B | aina --agent search ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "attach a file (max 25 MB)")
	cmd.Flags().StringVarP(&opts.conversation, "conversation", "c", "", "continue this conversation id")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the answer as JSON")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	out := cmd.OutOrStdout()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" && !isTerminal(cmd.InOrStdin()) {
		data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
		if err != nil {
			return fmt.Errorf("read question: %w", err)
		}
		question = strings.TrimSpace(string(data))
	}

	var file *api.Attachment
	if opts.file != "" {
		var err error
		if file, err = api.LoadAttachment(opts.file); err != nil {
			return err
		}
	}
	if question == "" && file == nil {
		return usageErrorf("nothing to ask: pass a question or --file")
	}

	client, _, err := a.newClient()
	if err != nil {
		return err
	}

	agent := a.cfg.Agent()
	resp, err := client.SendQuery(cmd.Context(), api.QueryRequest{
		Agent:          agent,
		Text:           question,
		ConversationID: opts.conversation,
		File:           file,
	})
	if err != nil {
		a.logger.Warn("ask failed", zap.String("agent", string(agent)), zap.Error(err))
		if opts.json {
			return writeJSON(out, "ask", nil, err)
		}
		return err
	}

	if opts.json {
		data := AskData{
			ConversationID: resp.ConversationID,
			Agent:          agent,
			Answer:         resp.Reply.Text,
			Sources:        resp.Reply.Sources,
			Rows:           resp.Reply.Rows,
		}
		if file != nil {
			data.Attachment = file.Name
		}
		return writeJSON(out, "ask", data, nil)
	}

	printReply(out, resp.Reply, terminalWidth(out), isTerminal(out))
	if resp.ConversationID != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("conversation "+resp.ConversationID))
	}
	return nil
}

// printReply writes an answer with its table and sources. Terminals get the
// glamour rendering; pipes get plain text.
func printReply(w io.Writer, reply model.Message, width int, pretty bool) {
	if pretty {
		md := components.NewMarkdown(styles.NewTheme().GlamourStyle())
		fmt.Fprintln(w, strings.TrimRight(md.Render(components.FormatAnswer(reply.Text), width), "\n"))
	} else {
		fmt.Fprintln(w, components.FormatPlain(reply.Text))
	}

	if reply.HasTable() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, components.Table(reply.Rows, width))
	}
	if reply.HasSources() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, components.SourceList(reply.Sources))
	}
}
