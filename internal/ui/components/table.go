// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/util"
)

// NoDataText is shown for an empty table.
const NoDataText = "No data."

const minColumnWidth = 4

// Table renders rows as a plain-text grid no wider than width (0 means
// unbounded). Columns are the keys of the first row, in order; cells that
// do not fit are truncated with an ellipsis.
func Table(rows []model.Row, width int) string {
	cols := model.Columns(rows)
	if len(rows) == 0 || len(cols) == 0 {
		return NoDataText
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			v := strings.ReplaceAll(row.Cell(c), "\n", " ")
			cells[r][i] = v
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}
	fitColumns(widths, width)

	var sb strings.Builder
	writeRow(&sb, cols, widths)
	writeRule(&sb, widths)
	for _, r := range cells {
		writeRow(&sb, r, widths)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// fitColumns shrinks the widest columns until the table fits in total.
func fitColumns(widths []int, total int) {
	if total <= 0 {
		return
	}
	// "| " + cells joined by " | " + " |"
	avail := total - 3*len(widths) - 1
	for sum(widths) > avail {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			return
		}
		widths[widest]--
	}
}

func writeRow(sb *strings.Builder, values []string, widths []int) {
	sb.WriteString("|")
	for i, v := range values {
		sb.WriteString(" ")
		sb.WriteString(util.PadRight(util.TruncateWidth(v, widths[i]), widths[i]))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func writeRule(sb *strings.Builder, widths []int) {
	sb.WriteString("|")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
