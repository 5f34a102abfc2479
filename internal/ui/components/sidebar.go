// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
	"github.com/jeranaias/aina-tui/internal/util"
)

// DefaultTitleRunes is how much of a title the sidebar shows.
const DefaultTitleRunes = 40

// Sidebar lists conversations grouped by recency with a movable cursor.
// Empty groups are not shown.
type Sidebar struct {
	groups   []session.Group
	items    []model.ConversationSummary
	cursor   int
	activeID string
	titleMax int
	width    int
	height   int
	offset   int
}

// NewSidebar creates an empty sidebar.
func NewSidebar() Sidebar {
	return Sidebar{titleMax: DefaultTitleRunes}
}

// SetTitleRunes sets the title truncation length.
func (s *Sidebar) SetTitleRunes(n int) {
	if n > 0 {
		s.titleMax = n
	}
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetGroups replaces the content. The cursor stays on the same
// conversation when it is still listed.
func (s *Sidebar) SetGroups(groups []session.Group) {
	var current string
	if sel, ok := s.Selected(); ok {
		current = sel.ID
	}

	s.groups = groups
	s.items = nil
	for _, g := range groups {
		s.items = append(s.items, g.Summaries...)
	}

	s.cursor = 0
	for i, it := range s.items {
		if it.ID == current {
			s.cursor = i
			break
		}
	}
}

// SetActive marks the conversation bound to the message log.
func (s *Sidebar) SetActive(id string) {
	s.activeID = id
}

// Move moves the cursor by delta, clamped to the list.
func (s *Sidebar) Move(delta int) {
	if len(s.items) == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= len(s.items) {
		s.cursor = len(s.items) - 1
	}
}

// Selected returns the conversation under the cursor.
func (s *Sidebar) Selected() (model.ConversationSummary, bool) {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return model.ConversationSummary{}, false
	}
	return s.items[s.cursor], true
}

// Len is the number of listed conversations.
func (s *Sidebar) Len() int {
	return len(s.items)
}

// Lines renders the sidebar without its frame: a heading per non-empty
// group, then one line per conversation.
func (s *Sidebar) Lines(theme *styles.Theme) []string {
	if len(s.items) == 0 {
		return []string{theme.SidebarEmpty.Render("No conversations yet")}
	}

	inner := s.width - 2
	var lines []string
	idx := 0
	for _, g := range s.groups {
		if len(g.Summaries) == 0 {
			continue
		}
		lines = append(lines, theme.SidebarHeading.Render(g.Bucket.String()))
		for _, c := range g.Summaries {
			title := util.TruncateTitle(c.DisplayTitle(), s.titleMax)
			if inner > 2 {
				title = util.TruncateWidth(title, inner-2)
			}

			marker := "  "
			style := theme.SidebarItem
			if c.ID == s.activeID {
				marker = "• "
				style = theme.SidebarItemActive
			}
			if idx == s.cursor {
				style = theme.SidebarItemSelected
			}
			lines = append(lines, style.Render(marker+title))
			idx++
		}
	}
	return lines
}

// View renders the sidebar, scrolled so the cursor stays visible.
func (s *Sidebar) View(theme *styles.Theme) string {
	lines := s.Lines(theme)
	if s.height > 0 && len(lines) > s.height {
		cursorLine := s.cursorLine()
		if cursorLine < s.offset {
			s.offset = cursorLine
		}
		if cursorLine >= s.offset+s.height {
			s.offset = cursorLine - s.height + 1
		}
		end := s.offset + s.height
		if end > len(lines) {
			end = len(lines)
		}
		lines = lines[s.offset:end]
	}
	style := theme.Sidebar
	if s.width > 0 {
		style = style.Width(s.width)
	}
	if s.height > 0 {
		style = style.Height(s.height)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// cursorLine is the line index of the cursor in Lines, headings included.
func (s *Sidebar) cursorLine() int {
	line, idx := 0, 0
	for _, g := range s.groups {
		if len(g.Summaries) == 0 {
			continue
		}
		line++
		for range g.Summaries {
			if idx == s.cursor {
				return line
			}
			line++
			idx++
		}
	}
	return 0
}
