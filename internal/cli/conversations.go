// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations.go - Conversation management for aina CLI.

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/export"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
)

func newConversationsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "c"},
		Short:   "List, inspect, rename, delete and export conversations",
	}
	cmd.AddCommand(
		newConvListCommand(a),
		newConvHistoryCommand(a),
		newConvRenameCommand(a),
		newConvDeleteCommand(a),
		newConvExportCommand(a),
	)
	return cmd
}

func newConvListCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations grouped by recency",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			summaries, err := client.ListConversations(cmd.Context())
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, "conversations list", summaries, err)
			}
			if err != nil {
				return err
			}

			groups := session.GroupByRecency(summaries, time.Now())
			if len(groups) == 0 {
				fmt.Fprintln(out, "No conversations yet.")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintln(out, SectionStyle.Render(g.Bucket.String()))
				for _, s := range g.Summaries {
					fmt.Fprintf(out, "  %s  %s\n", HighlightStyle.Render(s.ID), s.DisplayTitle())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print summaries as JSON")
	return cmd
}

func newConvHistoryCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Print the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			log, err := client.GetHistory(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, "conversations history", log, err)
			}
			if err != nil {
				return err
			}

			width := terminalWidth(out)
			for i, m := range log {
				if i > 0 {
					fmt.Fprintln(out, RenderSeparator(min(width, 60)))
				}
				if m.IsUser {
					fmt.Fprintln(out, TitleStyle.Render("You")+timestamp(m))
					fmt.Fprintln(out, m.Text)
					continue
				}
				agent := agentForRoute(m.Route, a.cfg.Agent())
				fmt.Fprintln(out, TitleStyle.Render(agent.DisplayName())+timestamp(m))
				printReply(out, m, width, false)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print messages as JSON")
	return cmd
}

// agentForRoute accepts both agent keys and module names as the backend
// reports them.
func agentForRoute(route string, fallback model.AgentType) model.AgentType {
	if agent, err := model.ParseAgent(route); err == nil {
		return agent
	}
	return fallback
}

func timestamp(m model.Message) string {
	if m.Timestamp == nil {
		return ""
	}
	return DimStyle.Render("  " + m.Timestamp.Local().Format("2006-01-02 15:04"))
}

func newConvRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <conversation-id> <title...>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return usageErrorf("title must not be empty")
			}
			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			if err := client.RenameConversation(cmd.Context(), args[0], title); err != nil {
				return err
			}
			a.logger.Info("conversation renamed", zap.String("conversation", args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), RenderStatus(true, "Renamed to "+title))
			return nil
		},
	}
}

func newConvDeleteCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ok, err := RequireConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(),
				"delete conversation "+id,
				ConfirmationOptions{Yes: yes, Interactive: isTerminal(cmd.InOrStdin())})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			if err := client.DeleteConversation(cmd.Context(), id); err != nil {
				return err
			}
			a.logger.Info("conversation deleted", zap.String("conversation", id))
			fmt.Fprintln(cmd.OutOrStdout(), RenderStatus(true, "Deleted "+id))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newConvExportCommand(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Write a conversation to a Markdown, JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Export.Format
			}
			opts := export.DefaultOptions()
			switch {
			case output != "":
				opts.OutputDir = output
			case a.cfg.Export.Dir != "":
				opts.OutputDir = a.cfg.Export.Dir
			}
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return &UsageError{Message: err.Error()}
			}

			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			ctx, id := cmd.Context(), args[0]
			log, err := client.GetHistory(ctx, id)
			if err != nil {
				return err
			}
			summary := model.ConversationSummary{ID: id}
			if summaries, err := client.ListConversations(ctx); err == nil {
				if s, ok := model.FindSummary(summaries, id); ok {
					summary = s
				}
			}

			agent := agentForRoute(summary.LastRoute, a.cfg.Agent())
			path, err := export.ExportToFile(export.NewTranscript(summary, agent, log), exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderStatus(true, "Exported to "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "md, json or yaml (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory to write to")
	return cmd
}
