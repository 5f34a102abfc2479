// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the pieces of the Aïna chat screen.

Most helpers are pure functions of their input and a *styles.Theme, so the
chat model and the line-mode CLI can share them:

	FormatAnswer   answer text to Markdown (bullets, amounts, dates)
	Markdown       cached glamour renderers per width
	Table          finance rows as a pipe grid
	SourceList     "1. 📄 title" lines under an answer
	Welcome        greeting screen of an empty conversation

The stateful widgets (Sidebar, Typewriter, Spinner, InputArea, ChatViewport,
CompletionPopup) are owned and driven by the chat model.
*/
package components
