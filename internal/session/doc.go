// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the active conversation of a chat view.
//
// A Controller binds a message log to at most one remote conversation and
// keeps the sidebar's summary list in sync with the conversation store.
// Collaborators are reached through the ConversationStore and QueryService
// interfaces; *api.Client satisfies both.
//
// # Key Types
//
//   - Controller: the state machine (Empty, Loading, Ready, Sending)
//   - Snapshot: a copy of the state for rendering
//   - Group: summaries bucketed by recency for the sidebar
//
// # Usage
//
//	ctrl := session.NewController(client, client, session.DefaultConfig())
//	if err := ctrl.Bootstrap(ctx, ""); err != nil {
//	    // list fetch failed; the sidebar stays empty
//	}
//	_ = ctrl.Send(ctx, "hello", nil)
//	snap := ctrl.Snapshot()
//
// Only the latest SelectConversation may change the log; older ones return
// ErrSuperseded. Send never reports collaborator failures: the reply is
// replaced by an error message and the user message stays in the log.
package session
