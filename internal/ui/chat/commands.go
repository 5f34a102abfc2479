// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/export"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/ui/components"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func isCommand(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "/")
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// parseCommand splits "/rename  New title " into "/rename" and "New title".
func parseCommand(value string) (name, arg string) {
	value = strings.TrimSpace(value)
	name, arg, _ = strings.Cut(value, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (m Model) runCommand(value string) (Model, tea.Cmd) {
	name, arg := parseCommand(value)

	switch name {
	case "/new":
		cmd := m.newConversation()
		return m, cmd

	case "/agent":
		if arg == "" {
			m.info = agentInfo(m.ctrl.Agent())
			return m, nil
		}
		agent, err := model.ParseAgent(arg)
		if err != nil {
			cmd := m.showToast(components.ToastWarning, err.Error())
			return m, cmd
		}
		m.ctrl.SetAgent(agent)
		cmd := m.showToast(components.ToastStatus, "Now asking "+agent.DisplayName())
		return m, cmd

	case "/attach":
		if arg == "" {
			cmd := m.showToast(components.ToastWarning, "Usage: /attach <path>")
			return m, cmd
		}
		file, err := api.LoadAttachment(arg)
		if err != nil {
			cmd := m.showToast(components.ToastError, "Cannot attach: "+err.Error())
			return m, cmd
		}
		m.attachment = file
		m.input.SetAttachment(file.Name)
		cmd := m.showToast(components.ToastStatus, "Attached "+file.Name)
		return m, cmd

	case "/detach":
		m.attachment = nil
		m.input.SetAttachment("")
		return m, nil

	case "/rename":
		target, ok := m.target()
		if !ok {
			cmd := m.showToast(components.ToastWarning, "No conversation to rename")
			return m, cmd
		}
		if arg == "" {
			cmd := m.showToast(components.ToastWarning, "Usage: /rename <title>")
			return m, cmd
		}
		ctrl, id := m.ctrl, target.ID
		return m, func() tea.Msg {
			return renameDoneMsg{title: arg, err: ctrl.Rename(context.Background(), id, arg)}
		}

	case "/delete":
		target, ok := m.target()
		if !ok {
			cmd := m.showToast(components.ToastWarning, "No conversation to delete")
			return m, cmd
		}
		m.askDelete(target)
		return m, nil

	case "/refresh":
		return m, refreshCmd(m.ctrl)

	case "/preview":
		return m.preview(arg)

	case "/copy":
		reply, ok := model.LastReply(m.ctrl.Snapshot().Log)
		if !ok {
			cmd := m.showToast(components.ToastWarning, "No answer to copy")
			return m, cmd
		}
		if err := m.opts.Clipboard(reply.Text); err != nil {
			cmd := m.showToast(components.ToastError, "Copy failed: "+err.Error())
			return m, cmd
		}
		n := utf8.RuneCountInString(reply.Text)
		cmd := m.showToast(components.ToastSuccess, fmt.Sprintf("Copied answer (%d characters)", n))
		return m, cmd

	case "/export":
		return m.exportTranscript(arg)

	case "/help":
		m.info = components.HelpText()
		return m, nil

	case "/quit", "/exit":
		return m, tea.Quit
	}

	cmd := m.showToast(components.ToastWarning, "Unknown command "+name+". /help lists commands.")
	return m, cmd
}

// target is the conversation /rename and /delete act on: the active one,
// else the sidebar selection.
func (m Model) target() (model.ConversationSummary, bool) {
	snap := m.ctrl.Snapshot()
	if snap.ActiveID != "" {
		if s, ok := model.FindSummary(m.ctrl.Summaries(), snap.ActiveID); ok {
			return s, true
		}
		return model.ConversationSummary{ID: snap.ActiveID}, true
	}
	if m.sidebarOpen {
		return m.sidebar.Selected()
	}
	return model.ConversationSummary{}, false
}

// preview resolves source n (1-based) of the latest answer that has sources.
func (m Model) preview(arg string) (Model, tea.Cmd) {
	if m.previewer == nil {
		cmd := m.showToast(components.ToastWarning, "Preview is not available")
		return m, cmd
	}
	sources := latestSources(m.ctrl.Snapshot().Log)
	if len(sources) == 0 {
		cmd := m.showToast(components.ToastWarning, "The last answers have no sources")
		return m, cmd
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(sources) {
		cmd := m.showToast(components.ToastWarning, fmt.Sprintf("Usage: /preview <1-%d>", len(sources)))
		return m, cmd
	}

	src, previewer := sources[n-1], m.previewer
	return m, func() tea.Msg {
		p, err := previewer.PreviewSource(context.Background(), src.Title, src.Path)
		return previewDoneMsg{index: n, preview: p, err: err}
	}
}

func latestSources(log []model.Message) []model.Source {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].HasSources() {
			return log[i].Sources
		}
	}
	return nil
}

func (m Model) exportTranscript(format string) (Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()
	if len(snap.Log) == 0 {
		cmd := m.showToast(components.ToastWarning, "Nothing to export")
		return m, cmd
	}
	if format == "" {
		format = m.opts.ExportFormat
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		cmd := m.showToast(components.ToastWarning, err.Error())
		return m, cmd
	}

	summary, ok := model.FindSummary(m.ctrl.Summaries(), snap.ActiveID)
	if !ok {
		summary = model.ConversationSummary{ID: snap.ActiveID}
	}
	t := export.NewTranscript(summary, snap.Agent, snap.Log)
	opts := export.DefaultOptions()
	if m.opts.ExportDir != "" {
		opts.OutputDir = m.opts.ExportDir
	}
	return m, func() tea.Msg {
		path, err := export.ExportToFile(t, exporter, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

func agentInfo(current model.AgentType) string {
	var sb strings.Builder
	for i, a := range model.Agents {
		if i > 0 {
			sb.WriteString("\n")
		}
		marker := "  "
		if a == current {
			marker = "• "
		}
		fmt.Fprintf(&sb, "%s%-8s %s", marker, a, a.DisplayName())
	}
	return sb.String()
}

func previewInfo(n int, p api.Preview) string {
	line := fmt.Sprintf("Source %d: %s", n, p.URL)
	if p.ExpiresIn > 0 {
		line += fmt.Sprintf("\n(link valid for %s)", p.ExpiresIn.Round(time.Second))
	}
	return line
}
