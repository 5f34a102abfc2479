// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
	"github.com/jeranaias/aina-tui/internal/ui/components"
)

const loadingText = "Loading conversation..."

// =============================================================================
// LAYOUT
// =============================================================================

// sync copies controller state into the widgets and lays them out.
func (m *Model) sync() tea.Cmd {
	snap := m.ctrl.Snapshot()
	m.sidebar.SetGroups(m.ctrl.Groups(m.opts.Now()))
	m.sidebar.SetActive(snap.ActiveID)
	m.input.SetBusy(m.sending || snap.State == session.StateSending)

	mainWidth, vpHeight := m.layout()
	m.viewport.SetContent(m.transcript(snap, mainWidth, vpHeight))
	return nil
}

// sidebarWidth is the outer sidebar width, 0 when hidden.
func (m *Model) sidebarWidth() int {
	if !m.sidebarOpen {
		return 0
	}
	if w := m.theme.SidebarWidth(); w > 0 {
		return w
	}
	return min(24, m.width/2)
}

// layout sizes every widget for the current window and returns the
// transcript column size.
func (m *Model) layout() (mainWidth, vpHeight int) {
	sw := m.sidebarWidth()
	mainWidth = max(m.width-sw, 20)

	m.input.SetWidth(m.width)
	inputH := lipgloss.Height(m.input.View(m.theme))
	complH := 0
	if m.completion.Visible() {
		complH = lipgloss.Height(m.completion.View(m.theme, m.width))
	}

	// header and status bar take one line each
	middle := max(m.height-2-inputH-complH, 3)
	vpHeight = middle
	if m.spinner.IsActive() {
		vpHeight--
	}
	if sw > 0 {
		// the right border is outside the sidebar style width
		m.sidebar.SetSize(sw-1, middle)
	}
	m.viewport.SetSize(mainWidth, vpHeight)
	return mainWidth, vpHeight
}

// transcript renders the message log, with cached renders for settled
// messages.
func (m *Model) transcript(snap session.Snapshot, width, height int) string {
	loading := snap.State == session.StateLoading || m.selecting != ""
	if len(snap.Log) == 0 {
		if loading {
			return m.theme.GeneratingText.Render(loadingText)
		}
		if m.info != "" {
			return m.theme.Notice.Render(m.info)
		}
		return components.Welcome(m.theme, snap.Agent, width, height-1)
	}

	if width != m.renderedWidth {
		m.rendered = make(map[string]string)
		m.renderedWidth = width
	}
	view := components.MessageView{Theme: m.theme, Markdown: m.markdown, Width: width}

	blocks := make([]string, 0, len(snap.Log)+2)
	for _, msg := range snap.Log {
		if msg.ID == m.typewriter.Key() && m.typewriter.Typing() {
			typed := m.typewriter.TypedText()
			blocks = append(blocks, view.Render(msg, &typed))
			continue
		}
		cacheKey := msg.ID + "\x00" + msg.Text
		out, ok := m.rendered[cacheKey]
		if !ok {
			out = view.Render(msg, nil)
			m.rendered[cacheKey] = out
		}
		blocks = append(blocks, out)
	}
	if loading {
		blocks = append(blocks, m.theme.GeneratingText.Render(loadingText))
	}
	if m.info != "" {
		blocks = append(blocks, m.theme.Notice.Render(m.info))
	}
	return strings.Join(blocks, "\n\n")
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	snap := m.ctrl.Snapshot()

	title := ""
	if s, ok := model.FindSummary(m.ctrl.Summaries(), snap.ActiveID); ok {
		title = s.DisplayTitle()
	}
	header := components.Header(m.theme, snap.Agent, title, m.width)

	main := m.viewport.View(m.theme)
	if m.spinner.IsActive() {
		main += "\n" + m.spinner.View(m.theme)
	}
	body := main
	if m.sidebarWidth() > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(m.theme), main)
	}

	parts := []string{header, body}
	if m.completion.Visible() {
		parts = append(parts, m.completion.View(m.theme, m.width))
	}
	parts = append(parts, m.input.View(m.theme), m.statusBar(snap))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) statusBar(snap session.Snapshot) string {
	notice := ""
	switch {
	case m.confirm != nil:
		notice = m.theme.Confirm.Render(m.confirm.prompt)
	case !m.toast.Expired(time.Now()):
		notice = m.toast.Render()
	}

	state := snap.State.String()
	if m.focus == focusSidebar {
		state = "sidebar · " + state
	}
	return components.StatusBar(m.theme, notice, state, m.width)
}
