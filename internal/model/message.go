// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// ErrorReplyText is the fixed reply shown in place of an agent answer when
// the request failed. The user message that triggered it is kept.
const ErrorReplyText = "⚠️ An error occurred. Please try again."

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Source is a document referenced by an agent reply.
type Source struct {
	Title string `json:"title" yaml:"title"`
	Path  string `json:"path" yaml:"path"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of a conversation log.
type Message struct {
	// Identity
	ID     string `json:"id" yaml:"id"`
	IsUser bool   `json:"is_user" yaml:"is_user"`

	// Content
	Text    string   `json:"text" yaml:"text"`
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	Rows    []Row    `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Timestamp is only known for messages loaded from history.
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	// Attachment is the base name of a file sent with a user message.
	Attachment string `json:"attachment,omitempty" yaml:"attachment,omitempty"`

	// Route is the agent route recorded by the server for this message.
	Route string `json:"route,omitempty" yaml:"route,omitempty"`

	// IsError marks the fixed-text reply of a failed send.
	IsError bool `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

// NewUserMessage creates the optimistic user entry for a question.
func NewUserMessage(text, attachment string) Message {
	return Message{
		ID:         uuid.NewString(),
		IsUser:     true,
		Text:       text,
		Attachment: attachment,
	}
}

// NewReplyMessage creates an agent reply.
func NewReplyMessage(text string, sources []Source, rows []Row) Message {
	return Message{
		ID:      uuid.NewString(),
		Text:    text,
		Sources: sources,
		Rows:    rows,
	}
}

// NewErrorMessage creates the fixed-text reply of a failed send.
func NewErrorMessage() Message {
	return Message{
		ID:      uuid.NewString(),
		Text:    ErrorReplyText,
		IsError: true,
	}
}

// HasTable reports whether the message carries tabular rows.
func (m Message) HasTable() bool {
	return len(m.Rows) > 0
}

// HasSources reports whether sources should be listed for the message.
// Tabular answers never list sources.
func (m Message) HasSources() bool {
	return !m.HasTable() && len(m.Sources) > 0
}

// LastReply returns the most recent non-error agent reply in a log.
func LastReply(log []Message) (Message, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		if !log[i].IsUser && !log[i].IsError {
			return log[i], true
		}
	}
	return Message{}, false
}
