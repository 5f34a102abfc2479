// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/aina-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type conversationWire struct {
	ID           string `json:"conversation_id"`
	Title        string `json:"title"`
	LastActivity string `json:"last_activity_utc"`
	LastRoute    string `json:"last_route"`
}

type listResponse struct {
	Conversations []conversationWire `json:"conversations"`
}

type historyMessageWire struct {
	Role      string      `json:"role"`
	Route     string      `json:"route"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp_utc"`
	Meta      historyMeta `json:"meta"`
}

type historyMeta struct {
	UsedDocs []rawDoc   `json:"used_docs"`
	Sources  []rawDoc   `json:"sources"`
	Rows     []model.Row `json:"rows"`
}

// UnmarshalJSON tolerates a null or non-object meta.
func (m *historyMeta) UnmarshalJSON(data []byte) error {
	type plain historyMeta
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*m = historyMeta{}
		return nil
	}
	*m = historyMeta(p)
	return nil
}

type historyResponse struct {
	Messages []historyMessageWire `json:"messages"`
}

type renameRequest struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

// timestampLayouts covers what the backend has been seen to send. Values
// without a zone are UTC, as the field names say.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. ok is false for empty or
// unrecognised input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ListConversations fetches the conversation summaries in the order the
// backend returns them.
func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var resp listResponse
	if err := c.do(ctx, request{op: OpList, method: http.MethodGet, path: "/api/chat/list"}, &resp); err != nil {
		return nil, err
	}

	out := make([]model.ConversationSummary, 0, len(resp.Conversations))
	for _, w := range resp.Conversations {
		if w.ID == "" {
			continue
		}
		ts, _ := ParseTimestamp(w.LastActivity)
		out = append(out, model.ConversationSummary{
			ID:           w.ID,
			Title:        w.Title,
			LastActivity: ts,
			LastRoute:    w.LastRoute,
		})
	}
	return out, nil
}

// GetHistory fetches the full message log of one conversation.
func (c *Client) GetHistory(ctx context.Context, id string) ([]model.Message, error) {
	var resp historyResponse
	err := c.do(ctx, request{
		op:     OpHistory,
		method: http.MethodGet,
		path:   "/api/chat/history",
		query:  url.Values{"conversation_id": {id}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]model.Message, 0, len(resp.Messages))
	for _, w := range resp.Messages {
		msg := model.Message{
			ID:     uuid.NewString(),
			IsUser: w.Role == "user",
			Text:   w.Message,
			Route:  w.Route,
		}
		if !msg.IsUser {
			docs := w.Meta.UsedDocs
			if len(docs) == 0 {
				docs = w.Meta.Sources
			}
			msg.Sources = NormalizeSources(docs)
			msg.Rows = w.Meta.Rows
		}
		if ts, ok := ParseTimestamp(w.Timestamp); ok {
			msg.Timestamp = &ts
		}
		out = append(out, msg)
	}
	return out, nil
}

// RenameConversation sets a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id, title string) error {
	body, err := jsonBody(renameRequest{ConversationID: id, Title: title})
	if err != nil {
		return failed(OpRename, 0, err)
	}
	return c.do(ctx, request{
		op:          OpRename,
		method:      http.MethodPost,
		path:        "/api/chat/rename",
		body:        body,
		contentType: "application/json",
	}, nil)
}

// DeleteConversation removes a conversation from the remote store.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, request{
		op:     OpDelete,
		method: http.MethodDelete,
		path:   "/api/chat/clear",
		query:  url.Values{"conversation_id": {id}},
	}, nil)
}
