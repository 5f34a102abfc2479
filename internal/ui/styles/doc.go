// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colours and lipgloss styles of the Aïna TUI.

All colours are lipgloss AdaptiveColor values so one palette works on dark
and light terminals. ApplyMode lets the configuration force either mode;
NewTheme then captures the detected background and termenv colour profile.

# Layout

The chat view adapts to the terminal width:

	LayoutNarrow - under 60 columns, no sidebar
	LayoutMedium - 60 to 99 columns, 28-column sidebar
	LayoutWide   - 100 columns and more, 36-column sidebar

# Usage

	styles.ApplyMode(cfg.UI.Theme)
	theme := styles.NewTheme()
	theme.SetSize(msg.Width, msg.Height)
	fmt.Println(styles.RenderError("conversation not found"))
*/
package styles
