// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// MessageView renders messages of the log.
type MessageView struct {
	Theme    *styles.Theme
	Markdown *Markdown
	Width    int
}

// Render renders one message. typed, when non-nil, replaces the answer
// text while it is still being typed out; tables and sources appear once
// typing is over.
func (v MessageView) Render(m model.Message, typed *string) string {
	width := v.Width - 2
	if width < 20 {
		width = 20
	}

	switch {
	case m.IsUser:
		return v.renderUser(m, width)
	case m.IsError:
		return v.Theme.ErrorMessage.Render(runewidth.Wrap(m.Text, width-2))
	}

	if typed != nil {
		text := runewidth.Wrap(*typed, width-1) + styles.TypingCursor
		return v.Theme.ReplyMessage.Render(text)
	}

	var parts []string
	if body := v.Markdown.Render(FormatAnswer(m.Text), width-1); body != "" {
		parts = append(parts, body)
	}
	if m.HasTable() {
		parts = append(parts, v.renderTable(m.Rows, width-1))
	}
	if m.HasSources() {
		parts = append(parts, v.renderSources(m.Sources, width-1))
	}
	if len(parts) == 0 {
		parts = append(parts, v.Theme.Timestamp.Render("(empty answer)"))
	}
	return v.Theme.ReplyMessage.Render(strings.Join(parts, "\n\n"))
}

// TypingText is the text a typewriter reveals for a reply.
func TypingText(m model.Message) string {
	return FormatPlain(m.Text)
}

// FormatPlain is FormatAnswer without Markdown emphasis, for progressive
// display before the final render.
func FormatPlain(text string) string {
	md := FormatAnswer(text)
	md = strings.ReplaceAll(md, "**", "")
	return strings.ReplaceAll(md, "  \n", "\n")
}

func (v MessageView) renderUser(m model.Message, width int) string {
	var lines []string
	if m.Text != "" {
		lines = append(lines, runewidth.Wrap(m.Text, width-1))
	}
	if m.Attachment != "" {
		lines = append(lines, v.Theme.Attachment.Render(FileIcon(m.Attachment)+" "+m.Attachment))
	}
	return v.Theme.UserMessage.Render(strings.Join(lines, "\n"))
}

func (v MessageView) renderTable(rows []model.Row, width int) string {
	lines := strings.Split(Table(rows, width), "\n")
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = v.Theme.TableHeader.Render(l)
		case i == 1:
			lines[i] = v.Theme.TableBorder.Render(l)
		default:
			lines[i] = v.Theme.TableCell.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

func (v MessageView) renderSources(sources []model.Source, width int) string {
	lines := []string{v.Theme.SourceIndex.Render(SourcesHeading)}
	for _, l := range SourceLines(sources) {
		lines = append(lines, v.Theme.SourceTitle.Render(runewidth.Truncate(l, width, "...")))
	}
	return strings.Join(lines, "\n")
}
