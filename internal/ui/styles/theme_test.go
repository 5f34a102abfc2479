// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestLayoutMode(t *testing.T) {
	tests := []struct {
		width   int
		mode    LayoutMode
		sidebar int
	}{
		{40, LayoutNarrow, 0},
		{59, LayoutNarrow, 0},
		{60, LayoutMedium, 28},
		{99, LayoutMedium, 28},
		{100, LayoutWide, 36},
		{200, LayoutWide, 36},
	}
	theme := NewTheme()
	for _, tc := range tests {
		theme.SetSize(tc.width, 40)
		assert.Equal(t, tc.mode, theme.GetLayoutMode(), "width %d", tc.width)
		assert.Equal(t, tc.sidebar, theme.SidebarWidth(), "width %d", tc.width)
	}
}

func TestGlamourStyle(t *testing.T) {
	theme := &Theme{ColorProfile: termenv.Ascii, IsDark: true}
	assert.Equal(t, "notty", theme.GlamourStyle())

	theme = &Theme{ColorProfile: termenv.TrueColor, IsDark: true}
	assert.Equal(t, "dark", theme.GlamourStyle())

	theme.IsDark = false
	assert.Equal(t, "light", theme.GlamourStyle())
}

func TestRenderHelpers(t *testing.T) {
	assert.True(t, strings.Contains(RenderSuccess("saved"), "[OK] saved"))
	assert.True(t, strings.Contains(RenderError("failed"), "[X] failed"))
	assert.True(t, strings.Contains(RenderWarning("careful"), "[!] careful"))
	assert.True(t, strings.Contains(RenderInfo("note"), "[i] note"))
	assert.Contains(t, RenderLink("https://x"), "https://x")
}

func TestSpinnerDuration(t *testing.T) {
	assert.Equal(t, time.Second/6, DotsSpinner.Duration())
	assert.Equal(t, time.Second, SpinnerConfig{}.Duration())
}
