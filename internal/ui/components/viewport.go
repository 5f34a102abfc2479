// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// =============================================================================
// CHAT VIEWPORT
// =============================================================================

// ChatViewport is the scrollable transcript. It follows new content while the
// user has not scrolled away from the bottom.
type ChatViewport struct {
	viewport   viewport.Model
	autoScroll bool
	ready      bool
}

func NewChatViewport() ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	return ChatViewport{viewport: vp, autoScroll: true}
}

// SetSize reserves one line for the scroll indicator.
func (cv *ChatViewport) SetSize(width, height int) {
	cv.viewport.Width = max(width, 1)
	cv.viewport.Height = max(height-1, 1)
	cv.ready = true
}

// SetContent replaces the rendered transcript.
func (cv *ChatViewport) SetContent(content string) {
	cv.viewport.SetContent(content)
	if cv.autoScroll {
		cv.viewport.GotoBottom()
	}
}

func (cv *ChatViewport) ScrollToBottom() {
	cv.viewport.GotoBottom()
	cv.autoScroll = true
}

func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// Update handles page keys and the mouse wheel. Arrow keys belong to the
// input and sidebar, so they are not consumed here.
func (cv ChatViewport) Update(msg tea.Msg) (ChatViewport, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			cv.viewport.HalfViewUp()
		case "pgdown":
			cv.viewport.HalfViewDown()
		case "ctrl+home":
			cv.viewport.GotoTop()
		case "ctrl+end":
			cv.viewport.GotoBottom()
		default:
			return cv, nil
		}
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.viewport.LineUp(3)
		case tea.MouseWheelDown:
			cv.viewport.LineDown(3)
		default:
			return cv, nil
		}
	default:
		return cv, nil
	}
	cv.autoScroll = cv.viewport.AtBottom()
	return cv, nil
}

func (cv ChatViewport) View(theme *styles.Theme) string {
	if !cv.ready {
		return ""
	}
	indicator := ""
	if below := cv.viewport.TotalLineCount() - cv.viewport.YOffset - cv.viewport.Height; below > 0 {
		indicator = theme.Timestamp.Render(fmt.Sprintf("↓ %d more lines (pgdown)", below))
	}
	return cv.viewport.View() + "\n" + indicator
}
