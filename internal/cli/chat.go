// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for terminals where the full UI is unwanted.
//
// The REPL drives the same session controller as the chat UI, so it gets the
// same guarantees: one send at a time, stale answers dropped, the
// conversation list refreshed after each answer.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/config"
	"github.com/jeranaias/aina-tui/internal/export"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
)

// historyFileName lives in the config directory.
const historyFileName = "chat_history"

func newChatCommand(a *app) *cobra.Command {
	var openID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line, with input history",
		Long: `Start a line-mode conversation. Type a question and press Enter; lines
starting with / are commands (/help lists them). Up and down arrows recall
earlier input, which is kept in ~/.aina/chat_history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.newClient()
			if err != nil {
				return err
			}
			editor, err := newLineEditor()
			if err != nil {
				return err
			}
			defer editor.Close()

			r := newREPL(a.newController(client), client, editor, cmd.OutOrStdout(), a.cfg, a.logger)
			return r.run(cmd.Context(), openID)
		},
	}
	cmd.Flags().StringVar(&openID, "open", "", "continue this conversation id")
	return cmd
}

// =============================================================================
// LINE EDITING
// =============================================================================

// lineReader is what the REPL needs from a line editor.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// lineEditor wraps liner with persistent history.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() (*lineEditor, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	e := &lineEditor{
		line:        liner.NewLiner(),
		historyFile: filepath.Join(dir, historyFileName),
	}
	e.line.SetCtrlCAborts(true)
	e.loadHistory()
	return e, nil
}

func (e *lineEditor) loadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line; non-blank lines go to the history.
func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history (owner read/write only) and restores the terminal.
func (e *lineEditor) Close() error {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	return e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// previewer resolves source documents to signed URLs.
type previewer interface {
	PreviewSource(ctx context.Context, title, path string) (api.Preview, error)
}

type repl struct {
	ctrl    *session.Controller
	preview previewer
	in      lineReader
	out     io.Writer
	cfg     *config.Config
	logger  *zap.Logger
	now     func() time.Time

	attachment *api.Attachment
	// listed is the numbering shown by the last /list
	listed []model.ConversationSummary
}

func newREPL(ctrl *session.Controller, p previewer, in lineReader, out io.Writer, cfg *config.Config, logger *zap.Logger) *repl {
	return &repl{
		ctrl:    ctrl,
		preview: p,
		in:      in,
		out:     out,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *repl) run(ctx context.Context, openID string) error {
	if err := r.ctrl.Bootstrap(ctx, openID); err != nil {
		r.printErr(err)
	}
	agent := r.ctrl.Agent()
	fmt.Fprintln(r.out, TitleStyle.Render("Aïna · "+agent.DisplayName()))
	if len(r.ctrl.Snapshot().Log) == 0 {
		fmt.Fprintln(r.out, agent.Greeting())
	} else {
		r.printLog(r.ctrl.Snapshot().Log)
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, /quit to leave."))

	for {
		line, err := r.in.Prompt(r.prompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "/"):
			if quit := r.command(ctx, trimmed); quit {
				return nil
			}
		default:
			r.send(ctx, line)
		}
	}
}

func (r *repl) prompt() string {
	p := string(r.ctrl.Agent())
	if r.attachment != nil {
		p += " +" + r.attachment.Name
	}
	return p + "> "
}

func (r *repl) send(ctx context.Context, text string) {
	err := r.ctrl.Send(ctx, text, r.attachment)
	switch {
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(r.out, WarningStyle.Render("Still waiting for the previous answer."))
		return
	case err != nil:
		r.printErr(err)
		return
	}
	r.attachment = nil

	// A failed send ends the log with an error reply; print that too.
	log := r.ctrl.Snapshot().Log
	if n := len(log); n > 0 && !log[n-1].IsUser {
		r.printMessage(log[n-1])
	}
}

// command runs one slash command and reports whether the REPL should exit.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		fmt.Fprintln(r.out, replHelp)
	case "/new":
		r.ctrl.StartNewConversation()
		fmt.Fprintln(r.out, SuccessStyle.Render("New conversation."))
	case "/agent":
		r.setAgent(arg)
	case "/attach":
		r.attach(arg)
	case "/detach":
		r.attachment = nil
		fmt.Fprintln(r.out, "Attachment removed.")
	case "/list", "/ls":
		r.list(ctx)
	case "/open":
		r.open(ctx, arg)
	case "/rename":
		r.rename(ctx, arg)
	case "/delete":
		r.delete(ctx)
	case "/refresh":
		if err := r.ctrl.RefreshList(ctx); err != nil {
			r.printErr(err)
			break
		}
		r.list(ctx)
	case "/preview":
		r.previewSource(ctx, arg)
	case "/export":
		r.export(arg)
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help.\n", name)
	}
	return false
}

func (r *repl) setAgent(arg string) {
	if arg == "" {
		fmt.Fprintf(r.out, "Agent: %s. Usage: /agent <doc|finance|vision|search>\n", r.ctrl.Agent())
		return
	}
	agent, err := model.ParseAgent(arg)
	if err != nil {
		fmt.Fprintln(r.out, WarningStyle.Render(err.Error()))
		return
	}
	r.ctrl.SetAgent(agent)
	fmt.Fprintf(r.out, "Now talking to %s.\n", agent.DisplayName())
}

func (r *repl) attach(path string) {
	if path == "" {
		fmt.Fprintln(r.out, "Usage: /attach <path>")
		return
	}
	file, err := api.LoadAttachment(path)
	if err != nil {
		r.printErr(err)
		return
	}
	r.attachment = file
	fmt.Fprintf(r.out, "Attached %s (%d bytes); it goes with the next message.\n", file.Name, len(file.Data))
}

func (r *repl) list(ctx context.Context) {
	if len(r.ctrl.Summaries()) == 0 {
		if err := r.ctrl.RefreshList(ctx); err != nil {
			r.printErr(err)
			return
		}
	}
	groups := r.ctrl.Groups(r.now())
	r.listed = r.listed[:0]
	if len(groups) == 0 {
		fmt.Fprintln(r.out, "No conversations yet.")
		return
	}

	active := r.ctrl.Snapshot().ActiveID
	for _, g := range groups {
		fmt.Fprintln(r.out, SectionStyle.Render(g.Bucket.String()))
		for _, s := range g.Summaries {
			r.listed = append(r.listed, s)
			marker := "  "
			if s.ID == active {
				marker = "* "
			}
			fmt.Fprintf(r.out, "%s%2d. %s\n", marker, len(r.listed), s.DisplayTitle())
		}
	}
}

// resolve maps a /list number or a raw id to a conversation id.
func (r *repl) resolve(arg string) (string, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(r.listed) {
			return "", false
		}
		return r.listed[n-1].ID, true
	}
	return arg, arg != ""
}

func (r *repl) open(ctx context.Context, arg string) {
	id, ok := r.resolve(arg)
	if !ok {
		fmt.Fprintln(r.out, "Usage: /open <number from /list or id>")
		return
	}
	if err := r.ctrl.SelectConversation(ctx, id); err != nil {
		if !errors.Is(err, session.ErrSuperseded) {
			r.printErr(err)
		}
		return
	}
	r.printLog(r.ctrl.Snapshot().Log)
}

func (r *repl) rename(ctx context.Context, title string) {
	id := r.ctrl.Snapshot().ActiveID
	switch {
	case id == "":
		fmt.Fprintln(r.out, "Nothing to rename yet; send a message or /open a conversation.")
		return
	case title == "":
		fmt.Fprintln(r.out, "Usage: /rename <title>")
		return
	}
	if err := r.ctrl.Rename(ctx, id, title); err != nil {
		r.printErr(err)
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Renamed to "+title+"."))
}

func (r *repl) delete(ctx context.Context) {
	id := r.ctrl.Snapshot().ActiveID
	if id == "" {
		fmt.Fprintln(r.out, "Nothing to delete; /open a conversation first.")
		return
	}
	title := id
	if s, ok := model.FindSummary(r.ctrl.Summaries(), id); ok {
		title = s.DisplayTitle()
	}

	answer, err := r.in.Prompt(fmt.Sprintf("Delete %q? [y/N] ", title))
	if err != nil || !isYes(answer) {
		fmt.Fprintln(r.out, "Kept.")
		return
	}
	if err := r.ctrl.Delete(ctx, id); err != nil {
		r.printErr(err)
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Deleted."))
}

func (r *repl) previewSource(ctx context.Context, arg string) {
	reply, ok := model.LastReply(r.ctrl.Snapshot().Log)
	if !ok || !reply.HasSources() {
		fmt.Fprintln(r.out, "The last answer has no sources.")
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(reply.Sources) {
		fmt.Fprintf(r.out, "Usage: /preview <1-%d>\n", len(reply.Sources))
		return
	}

	src := reply.Sources[n-1]
	p, err := r.preview.PreviewSource(ctx, src.Title, src.Path)
	if err != nil {
		r.printErr(err)
		return
	}
	fmt.Fprintln(r.out, HighlightStyle.Render(p.URL))
	fmt.Fprintln(r.out, DimStyle.Render("valid for "+p.ExpiresIn.String()))
}

func (r *repl) export(format string) {
	snap := r.ctrl.Snapshot()
	if len(snap.Log) == 0 {
		fmt.Fprintln(r.out, "Nothing to export.")
		return
	}
	if format == "" {
		format = r.cfg.Export.Format
	}

	summary, ok := model.FindSummary(r.ctrl.Summaries(), snap.ActiveID)
	if !ok {
		summary = model.ConversationSummary{ID: snap.ActiveID}
	}
	opts := export.DefaultOptions()
	if r.cfg.Export.Dir != "" {
		opts.OutputDir = r.cfg.Export.Dir
	}
	path, err := export.Export(export.NewTranscript(summary, snap.Agent, snap.Log), format, opts)
	if err != nil {
		r.printErr(err)
		return
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Exported to "+path))
}

func (r *repl) printLog(log []model.Message) {
	for _, m := range log {
		r.printMessage(m)
	}
}

func (r *repl) printMessage(m model.Message) {
	if m.IsUser {
		line := LabelStyle.Render("You") + m.Text
		if m.Attachment != "" {
			line += DimStyle.Render(" [" + m.Attachment + "]")
		}
		fmt.Fprintln(r.out, line)
		return
	}
	if m.IsError {
		fmt.Fprintln(r.out, ErrorStyle.Render(m.Text))
		return
	}
	printReply(r.out, m, terminalWidth(r.out), false)
}

func (r *repl) printErr(err error) {
	r.logger.Debug("chat command failed", zap.Error(err))
	printError(r.out, err)
}

const replHelp = `Commands:
  /new                  start a new conversation
  /agent <name>         switch agent: doc, finance, vision, search
  /attach <path>        send a file with the next message
  /detach               drop the pending attachment
  /list                 list conversations
  /open <n|id>          open a conversation from /list
  /rename <title>       rename the open conversation
  /delete               delete the open conversation
  /refresh              reload the conversation list
  /preview <n>          signed link to source n of the last answer
  /export [md|json|yaml] write the conversation to a file
  /quit                 leave`
