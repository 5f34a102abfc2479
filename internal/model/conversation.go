// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// CONVERSATION SUMMARY
// =============================================================================

// ConversationSummary is the sidebar view of one remote conversation.
// The remote store owns ordering; summaries are replaced wholesale on refresh.
type ConversationSummary struct {
	ID           string    `json:"conversation_id" yaml:"conversation_id"`
	Title        string    `json:"title" yaml:"title"`
	LastActivity time.Time `json:"last_activity_utc" yaml:"last_activity_utc"`

	// LastRoute is the agent route of the most recent exchange, when reported.
	LastRoute string `json:"last_route,omitempty" yaml:"last_route,omitempty"`
}

// DisplayTitle returns the title, or a placeholder for untitled conversations.
func (c ConversationSummary) DisplayTitle() string {
	if c.Title == "" {
		return "Untitled conversation"
	}
	return c.Title
}

// FindSummary returns the summary with the given id, if present.
func FindSummary(summaries []ConversationSummary, id string) (ConversationSummary, bool) {
	for _, s := range summaries {
		if s.ID == id {
			return s, true
		}
	}
	return ConversationSummary{}, false
}
