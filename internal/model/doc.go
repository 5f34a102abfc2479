// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the Aïna client.
//
// This package defines the domain types exchanged between the remote
// conversation store, the agent endpoints and the chat view.
//
// # Key Types
//
//   - ConversationSummary: One row of the sidebar (id, title, last activity)
//   - Message: Single entry of a conversation log (user text or agent reply)
//   - Source: Document reference attached to an agent reply
//   - Row: Ordered key/value record of a tabular (finance) answer
//   - AgentType: Backend agent a question is routed to (doc, finance, vision, search)
//
// # Usage
//
// Build the optimistic user message for a question:
//
//	msg := model.NewUserMessage("What changed in Q3?", "")
//
// Resolve the agent for a branded module name:
//
//	agent := model.AgentForModule("Aïna Finance") // model.AgentFinance
package model
