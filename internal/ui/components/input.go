// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// =============================================================================
// INPUT AREA
// =============================================================================

// MaxInputChars bounds a single question.
const MaxInputChars = 4096

const (
	placeholderReady   = "Ask a question... (/ for commands)"
	placeholderSending = "Waiting for the answer..."
)

// InputArea is the question box with an optional attachment chip and a
// character counter that appears near the limit.
type InputArea struct {
	input      textinput.Model
	attachment string
	width      int
}

func NewInputArea() InputArea {
	ti := textinput.New()
	ti.Placeholder = placeholderReady
	ti.CharLimit = MaxInputChars
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Indigo).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Indigo)
	ti.Focus()
	return InputArea{input: ti, width: 80}
}

func (i *InputArea) SetWidth(width int) {
	i.width = width
	i.input.Width = max(width-8, 10)
}

// SetBusy swaps the placeholder while an answer is pending.
func (i *InputArea) SetBusy(busy bool) {
	if busy {
		i.input.Placeholder = placeholderSending
	} else {
		i.input.Placeholder = placeholderReady
	}
}

// SetAttachment shows name as the pending file; "" hides the chip.
func (i *InputArea) SetAttachment(name string) {
	i.attachment = name
}

func (i *InputArea) Value() string { return i.input.Value() }
func (i *InputArea) Reset() { i.input.Reset() }
func (i *InputArea) Focus() tea.Cmd { return i.input.Focus() }
func (i *InputArea) Blur() { i.input.Blur() }

func (i *InputArea) SetValue(v string) {
	i.input.SetValue(v)
	i.input.CursorEnd()
}

func (i InputArea) Update(msg tea.Msg) (InputArea, tea.Cmd) {
	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)
	return i, cmd
}

func (i InputArea) View(theme *styles.Theme) string {
	body := i.input.View()
	if i.attachment != "" {
		body = theme.Attachment.Render(FileIcon(i.attachment)+" "+i.attachment) + "\n" + body
	}
	if n := len([]rune(i.input.Value())); n > MaxInputChars*3/4 {
		counter := fmt.Sprintf("%d/%d", n, MaxInputChars)
		style := theme.Timestamp
		if n >= MaxInputChars {
			style = style.Foreground(styles.Rose)
		}
		body += "\n" + style.Render(counter)
	}
	return theme.InputContainer.Width(max(i.width-2, 10)).Render(body)
}
