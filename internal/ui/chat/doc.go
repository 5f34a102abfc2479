// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea model of the Aïna chat screen.
//
// The model owns no conversation state of its own. It renders snapshots of a
// session.Controller and runs every blocking controller call as a tea.Cmd,
// turning the result into one of the *DoneMsg types in messages.go.
//
// Layout, top to bottom:
//
//	header       agent and active conversation title
//	sidebar | transcript (viewport, spinner while an answer is pending)
//	completion   slash commands matching the input
//	input        question box with the pending attachment
//	status bar   toast, confirmation prompt or key hints
package chat
