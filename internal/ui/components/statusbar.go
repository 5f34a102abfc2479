// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
	"github.com/jeranaias/aina-tui/internal/util"
)

// Header renders the title bar: brand, agent and the active conversation.
func Header(theme *styles.Theme, agent model.AgentType, title string, width int) string {
	left := theme.HeaderBrand.Render(agent.DisplayName())
	right := theme.HeaderAgent.Render(agent.Description())
	if title != "" {
		right = theme.HeaderAgent.Render(util.TruncateTitle(title, DefaultTitleRunes))
	}
	return bar(theme.Header, left, right, width)
}

// Shortcut is a key hint of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when there is no notice.
var DefaultShortcuts = []Shortcut{
	{"enter", "send"},
	{"ctrl+b", "sidebar"},
	{"tab", "focus"},
	{"/help", "commands"},
	{"ctrl+c", "quit"},
}

// StatusBar renders the bottom line: a notice when set, else key hints, and
// the session state on the right.
func StatusBar(theme *styles.Theme, notice, state string, width int) string {
	left := notice
	if left == "" {
		hints := make([]string, 0, len(DefaultShortcuts))
		for _, s := range DefaultShortcuts {
			hints = append(hints, theme.ShortcutKey.Render(s.Key)+" "+theme.ShortcutDesc.Render(s.Desc))
		}
		left = strings.Join(hints, "  ")
	}
	return bar(theme.StatusBar, left, theme.ShortcutDesc.Render(state), width)
}

// bar lays out left and right inside style across width.
func bar(style lipgloss.Style, left, right string, width int) string {
	inner := width - style.GetHorizontalFrameSize()
	if inner <= 0 {
		return style.Render(left)
	}
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return style.Width(width).MaxWidth(width).Render(left)
	}
	return style.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
