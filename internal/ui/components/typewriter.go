// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// minFrame bounds the tick rate; faster speeds reveal several runes per tick.
const minFrame = 30 * time.Millisecond

// TypeTickMsg advances the typewriter with the matching key.
type TypeTickMsg struct {
	Key string
}

// Typewriter reveals a text progressively, the way answers appear in the
// chat view.
type Typewriter struct {
	key   string
	text  []rune
	pos   int
	speed time.Duration
}

// NewTypewriter creates a typewriter revealing one rune per speed. A zero
// speed shows text at once.
func NewTypewriter(speed time.Duration) Typewriter {
	return Typewriter{speed: speed}
}

// Start begins typing text. key identifies the run so ticks of an earlier
// run are ignored.
func (t *Typewriter) Start(key, text string) tea.Cmd {
	t.key = key
	t.text = []rune(text)
	t.pos = 0
	if t.speed <= 0 {
		t.pos = len(t.text)
		return nil
	}
	return t.tick()
}

// Finish reveals the whole text.
func (t *Typewriter) Finish() {
	t.pos = len(t.text)
}

// Key returns the key of the current run.
func (t Typewriter) Key() string {
	return t.key
}

// Typing reports whether runes remain hidden.
func (t Typewriter) Typing() bool {
	return t.pos < len(t.text)
}

// TypedText is the revealed part.
func (t Typewriter) TypedText() string {
	return string(t.text[:t.pos])
}

// Update advances on a matching tick.
func (t Typewriter) Update(msg tea.Msg) (Typewriter, tea.Cmd) {
	tick, ok := msg.(TypeTickMsg)
	if !ok || tick.Key != t.key || !t.Typing() {
		return t, nil
	}
	t.pos += t.step()
	if t.pos >= len(t.text) {
		t.pos = len(t.text)
		return t, nil
	}
	return t, t.tick()
}

func (t Typewriter) interval() time.Duration {
	if t.speed < minFrame {
		return minFrame
	}
	return t.speed
}

func (t Typewriter) step() int {
	if t.speed <= 0 {
		return len(t.text)
	}
	n := int(t.interval() / t.speed)
	if n < 1 {
		n = 1
	}
	return n
}

func (t Typewriter) tick() tea.Cmd {
	key := t.key
	return tea.Tick(t.interval(), func(time.Time) tea.Msg {
		return TypeTickMsg{Key: key}
	})
}
