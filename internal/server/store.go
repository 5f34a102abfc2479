// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/aina-tui/internal/util"
)

// ErrNotFound is returned for unknown conversation ids.
var ErrNotFound = errors.New("conversation not found")

// titleRunes bounds titles derived from a first question.
const titleRunes = 60

// entry is one stored exchange half.
type entry struct {
	Role      string
	Route     string
	Text      string
	Timestamp time.Time
	Docs      []docWire
	Rows      []map[string]any
}

type conversation struct {
	ID           string
	Title        string
	LastActivity time.Time
	LastRoute    string
	Entries      []entry
}

// Store is the in-memory conversation store behind the sandbox. It is safe
// for concurrent use; nothing is persisted.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
	now           func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*conversation),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// List returns the summaries, most recent activity first.
func (s *Store) List() []conversationWire {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]*conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		convs = append(convs, c)
	}
	sort.Slice(convs, func(i, j int) bool {
		if convs[i].LastActivity.Equal(convs[j].LastActivity) {
			return convs[i].ID < convs[j].ID
		}
		return convs[i].LastActivity.After(convs[j].LastActivity)
	})

	out := make([]conversationWire, len(convs))
	for i, c := range convs {
		out[i] = conversationWire{
			ID:           c.ID,
			Title:        c.Title,
			LastActivity: c.LastActivity.Format(time.RFC3339Nano),
			LastRoute:    c.LastRoute,
		}
	}
	return out
}

// History returns the messages of one conversation.
func (s *Store) History(id string) ([]historyWire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]historyWire, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = historyWire{
			Role:      e.Role,
			Route:     e.Route,
			Message:   e.Text,
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Meta:      metaWire{UsedDocs: e.Docs, Rows: e.Rows},
		}
	}
	return out, nil
}

// Rename sets a conversation title.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.Title = title
	return nil
}

// Delete removes a conversation.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	return nil
}

// Append records a question and its answer. An empty id starts a new
// conversation titled after the question; the id used is returned.
func (s *Store) Append(id, route, question string, answer entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.conversations[id]
	switch {
	case id == "":
		c = &conversation{ID: uuid.NewString(), Title: util.TruncateTitle(question, titleRunes)}
		s.conversations[c.ID] = c
	case !ok:
		return "", ErrNotFound
	}

	answer.Role = "assistant"
	answer.Route = route
	answer.Timestamp = now
	c.Entries = append(c.Entries,
		entry{Role: "user", Route: route, Text: question, Timestamp: now},
		answer)
	c.LastActivity = now
	c.LastRoute = route
	return c.ID, nil
}
