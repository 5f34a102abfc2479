// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for aina CLI output.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

var (
	// TitleStyle is for command headings
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Indigo)

	// SectionStyle is for group headings such as "Today"
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Teal)

	// LabelStyle is for the left column of key/value output
	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(14)

	// ValueStyle is for values next to a label
	ValueStyle = lipgloss.NewStyle().Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	ErrorStyle   = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// HighlightStyle marks ids and paths the user can copy
	HighlightStyle = lipgloss.NewStyle().Foreground(styles.Teal)
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// RenderSeparator returns a horizontal rule of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return DimStyle.Render(strings.Repeat("─", width))
}

// RenderLabel formats one "label  value" line.
func RenderLabel(label string, value any) string {
	return LabelStyle.Render(label) + ValueStyle.Render(fmt.Sprint(value))
}

// printLabel writes a RenderLabel line to w.
func printLabel(w io.Writer, label string, value any) {
	fmt.Fprintln(w, RenderLabel(label, value))
}

// RenderStatus returns a coloured OK/failure marker followed by message.
func RenderStatus(ok bool, message string) string {
	if ok {
		return SuccessStyle.Render(styles.StatusIndicators.Success) + " " + message
	}
	return ErrorStyle.Render(styles.StatusIndicators.Error) + " " + message
}
