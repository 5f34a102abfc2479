// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// UNICODE: Titles come back from the server in whatever normal form the
// browser or the agent produced ("Aïna" may be one rune or two). Everything
// that counts runes normalises to NFC first so the count matches what the
// user sees.

// TruncateTitle keeps the first maxRunes characters of a title and appends
// an ellipsis when anything was cut. The ellipsis is not counted.
func TruncateTitle(title string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	title = norm.NFC.String(strings.TrimSpace(title))
	runes := []rune(title)
	if len(runes) <= maxRunes {
		return title
	}
	return string(runes[:maxRunes]) + Ellipsis
}

// TruncateRunes truncates a string to at most maxRunes characters, the
// ellipsis included.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(norm.NFC.String(s))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	if maxRunes <= len(Ellipsis) {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-len(Ellipsis)]) + Ellipsis
}

// TruncateWidth truncates a string to a maximum display width in terminal
// columns. Wide characters (CJK, most emoji) count as two.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// StringWidth returns the display width of a string in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to the given display width.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// SanitizeFilename turns a title into a file-name fragment: letters and
// digits are kept, runs of anything else collapse to one underscore.
func SanitizeFilename(name string, maxRunes int) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range norm.NFC.String(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if maxRunes > 0 {
		if runes := []rune(out); len(runes) > maxRunes {
			out = strings.TrimRight(string(runes[:maxRunes]), "_")
		}
	}
	if out == "" {
		return "untitled"
	}
	return out
}
