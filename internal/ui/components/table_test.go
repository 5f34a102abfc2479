// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aina-tui/internal/model"
)

func TestTable(t *testing.T) {
	rows := []model.Row{
		model.NewRow("name", "A", "amount", 10.5),
		model.NewRow("name", "Bcde", "amount", 7.0, "extra", "ignored"),
	}
	want := "| name | amount |\n" +
		"|------|--------|\n" +
		"| A    | 10.5   |\n" +
		"| Bcde | 7      |"
	assert.Equal(t, want, Table(rows, 0))
}

func TestTable_Empty(t *testing.T) {
	assert.Equal(t, NoDataText, Table(nil, 80))
	assert.Equal(t, NoDataText, Table([]model.Row{{}}, 80))
}

func TestTable_MissingCellRendersEmpty(t *testing.T) {
	rows := []model.Row{
		model.NewRow("a", "1", "b", "2"),
		model.NewRow("a", "3"),
	}
	lines := strings.Split(Table(rows, 0), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| 3 |   |", lines[3])
}

func TestTable_FitsWidth(t *testing.T) {
	rows := []model.Row{model.NewRow("c", strings.Repeat("x", 30))}
	out := Table(rows, 20)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 20, line)
	}
	assert.Contains(t, out, strings.Repeat("x", 13)+"...")
}

func TestFitColumns_StopsAtMinimum(t *testing.T) {
	widths := []int{10, 10}
	fitColumns(widths, 5)
	assert.Equal(t, []int{minColumnWidth, minColumnWidth}, widths)
}
