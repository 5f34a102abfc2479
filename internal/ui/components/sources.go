// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"path"
	"strings"

	"github.com/jeranaias/aina-tui/internal/model"
)

// SourcesHeading introduces the source list of an answer.
const SourcesHeading = "📂 Related documents:"

// SourceLines returns one "n. 📄 title" line per source, numbered from 1
// so /preview n can refer to them. The .pdf suffix is hidden.
func SourceLines(sources []model.Source) []string {
	lines := make([]string, 0, len(sources))
	for i, s := range sources {
		lines = append(lines, fmt.Sprintf("%d. 📄 %s", i+1, SourceLabel(s)))
	}
	return lines
}

// SourceList renders the heading and the numbered sources, or "" when
// there are none.
func SourceList(sources []model.Source) string {
	if len(sources) == 0 {
		return ""
	}
	return SourcesHeading + "\n" + strings.Join(SourceLines(sources), "\n")
}

// SourceLabel is the displayed name of a source.
func SourceLabel(s model.Source) string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = path.Base(s.Path)
	}
	if strings.HasSuffix(strings.ToLower(title), ".pdf") {
		title = title[:len(title)-len(".pdf")]
	}
	return title
}

// FileIcon picks an icon for an attachment from its extension.
func FileIcon(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.TrimSpace(name))), ".")
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return "🖼️"
	case "pdf":
		return "📕"
	case "doc", "docx":
		return "📘"
	case "xls", "xlsx", "csv":
		return "📊"
	case "mp3", "wav", "ogg":
		return "🎵"
	case "mp4", "mov", "avi":
		return "🎬"
	default:
		return "📄"
	}
}
