// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// Welcome renders the empty-conversation screen for agent, centred in a
// width x height box. Zero sizes fall back to 80x24.
func Welcome(theme *styles.Theme, agent model.AgentType, width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := 62
	if width < 70 {
		boxWidth = width - 8
	}
	if boxWidth < 30 {
		boxWidth = width
	}

	var sb strings.Builder
	sb.WriteString(theme.Greeting.Render(agent.Greeting()))
	sb.WriteString("\n\n")
	sb.WriteString(theme.ShortcutDesc.Render(agent.Description()))
	sb.WriteString("\n\n")
	for _, a := range model.Agents {
		marker := "  "
		name := theme.ShortcutDesc.Render(a.DisplayName())
		if a == agent {
			marker = "• "
			name = theme.HeaderAgent.Render(a.DisplayName())
		}
		sb.WriteString(marker + name + theme.Timestamp.Render("  /agent "+string(a)) + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(theme.ShortcutDesc.Render("Type a question and press Enter. /help lists commands."))

	box := lipgloss.NewStyle().
		Width(boxWidth).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Indigo).
		Render(sb.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
