// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
	"github.com/jeranaias/aina-tui/internal/ui/components"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu        sync.Mutex
	summaries []model.ConversationSummary
	histories map[string][]model.Message
	renamed   map[string]string
	deleted   []string
	queries   []api.QueryRequest
	answer    api.QueryResponse
}

func newFakeBackend() *fakeBackend {
	now := time.Now()
	return &fakeBackend{
		summaries: []model.ConversationSummary{
			{ID: "c1", Title: "Budget", LastActivity: now},
			{ID: "c2", Title: "Contracts", LastActivity: now.Add(-time.Minute)},
		},
		histories: map[string][]model.Message{
			"c1": {{ID: "h1", IsUser: true, Text: "Budget?"}, {ID: "h2", Text: "Here is the budget"}},
			"c2": {{ID: "h3", IsUser: true, Text: "Contracts?"}, {ID: "h4", Text: "Two contracts",
				Sources: []model.Source{{Title: "Bail.pdf", Path: "contrats/Bail.pdf"}}}},
		},
		renamed: make(map[string]string),
		answer: api.QueryResponse{
			ConversationID: "c9",
			Reply:          model.NewReplyMessage("Forty-two", nil, nil),
		},
	}
}

func (f *fakeBackend) ListConversations(context.Context) ([]model.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ConversationSummary(nil), f.summaries...), nil
}

func (f *fakeBackend) GetHistory(_ context.Context, id string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Message(nil), f.histories[id]...), nil
}

func (f *fakeBackend) RenameConversation(_ context.Context, id, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed[id] = title
	return nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) SendQuery(_ context.Context, q api.QueryRequest) (api.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.answer, nil
}

type fakePreviewer struct{}

func (fakePreviewer) PreviewSource(_ context.Context, title, path string) (api.Preview, error) {
	return api.Preview{URL: "https://files.example/" + path, ExpiresIn: 10 * time.Minute}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type harness struct {
	backend *fakeBackend
	ctrl    *session.Controller
	copied  []string
}

func newHarness(t *testing.T, mutate func(*Options)) (*harness, tea.Model) {
	t.Helper()
	h := &harness{backend: newFakeBackend()}
	cfg := session.DefaultConfig()
	cfg.RefreshAfterSend = false
	h.ctrl = session.NewController(h.backend, h.backend, cfg)

	opts := Options{
		Controller: h.ctrl,
		Previewer:  fakePreviewer{},
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	m := New(opts)
	var tm tea.Model = m
	tm = run(t, tm, tm.Init())
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, tm
}

// run feeds the messages of cmd back into m until nothing but timers is left.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		m = run(t, m, next)
	}
	return m
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(200 * time.Millisecond):
		// a long timer; nothing under test waits for it
		return nil
	}

	switch msg := msg.(type) {
	case nil, spinner.TickMsg, components.ToastTickMsg, components.TypeTickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func typeText(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func press(t *testing.T, m tea.Model, k tea.KeyType) tea.Model {
	t.Helper()
	m, cmd := m.Update(tea.KeyMsg{Type: k})
	return run(t, m, cmd)
}

func submit(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	return press(t, typeText(t, m, text), tea.KeyEnter)
}

func state(m tea.Model) Model {
	return m.(Model)
}

func inputValue(m tea.Model) string {
	mm := state(m)
	return mm.input.Value()
}

func completionVisible(m tea.Model) bool {
	mm := state(m)
	return mm.completion.Visible()
}

// =============================================================================
// TESTS
// =============================================================================

func TestSend_AppendsAnswer(t *testing.T) {
	h, m := newHarness(t, nil)

	m = submit(t, m, "What is the answer?")

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Log, 2)
	assert.Equal(t, "What is the answer?", snap.Log[0].Text)
	assert.Equal(t, "Forty-two", snap.Log[1].Text)
	assert.Equal(t, "c9", snap.ActiveID)
	assert.False(t, state(m).sending)
	assert.Empty(t, inputValue(m))
}

func TestSend_RefusedWhileSending(t *testing.T) {
	_, m := newHarness(t, nil)

	m = typeText(t, m, "first")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // send not run
	require.True(t, state(m).sending)

	m = typeText(t, m, "second")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, state(m).toast.Message, "Wait for the current answer")
	assert.Equal(t, "second", inputValue(m))
}

func TestBlankInputIsIgnored(t *testing.T) {
	h, m := newHarness(t, nil)
	m = submit(t, m, "   ")
	assert.Empty(t, h.ctrl.Snapshot().Log)
	assert.False(t, state(m).sending)
}

func TestWelcomeOnEmptyConversation(t *testing.T) {
	_, m := newHarness(t, nil)
	assert.Contains(t, m.View(), model.AgentDoc.Greeting())
}

func TestInitialConversationIsLoaded(t *testing.T) {
	h, _ := newHarness(t, func(o *Options) { o.InitialID = "c2" })
	snap := h.ctrl.Snapshot()
	assert.Equal(t, "c2", snap.ActiveID)
	assert.Len(t, snap.Log, 2)
	assert.Len(t, h.ctrl.Summaries(), 2)
}

func TestSidebarSelect(t *testing.T) {
	h, m := newHarness(t, func(o *Options) { o.SidebarOpen = true })

	m = press(t, m, tea.KeyTab)
	require.Equal(t, focusSidebar, state(m).focus)
	m = press(t, m, tea.KeyDown)
	m = press(t, m, tea.KeyEnter)

	assert.Equal(t, "c2", h.ctrl.Snapshot().ActiveID)
	assert.Equal(t, focusInput, state(m).focus)
	assert.Empty(t, state(m).selecting)
}

func TestToggleSidebar(t *testing.T) {
	_, m := newHarness(t, nil)
	assert.False(t, state(m).sidebarOpen)
	m = press(t, m, tea.KeyCtrlB)
	assert.True(t, state(m).sidebarOpen)
	assert.Contains(t, m.View(), "Budget")
}

func TestHelpCommand(t *testing.T) {
	_, m := newHarness(t, nil)
	m = submit(t, m, "/help")
	assert.Contains(t, state(m).info, "/export")
}

func TestUnknownCommand(t *testing.T) {
	h, m := newHarness(t, nil)
	m = submit(t, m, "/frobnicate")
	assert.Contains(t, state(m).toast.Message, "Unknown command /frobnicate")
	assert.Empty(t, h.ctrl.Snapshot().Log)
}

func TestAgentCommand(t *testing.T) {
	h, m := newHarness(t, nil)

	m = submit(t, m, "/agent finance")
	assert.Equal(t, model.AgentFinance, h.ctrl.Agent())

	m = submit(t, m, "/agent nope")
	assert.Equal(t, model.AgentFinance, h.ctrl.Agent())
	assert.Contains(t, state(m).toast.Message, "unknown agent")

	m = submit(t, m, "/agent")
	assert.Contains(t, state(m).info, "• finance")
}

func TestAttachCommand(t *testing.T) {
	h, m := newHarness(t, nil)
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	m = submit(t, m, "/attach "+path)
	require.NotNil(t, state(m).attachment)

	m = submit(t, m, "What is this?")
	require.Len(t, h.backend.queries, 1)
	require.NotNil(t, h.backend.queries[0].File)
	assert.Equal(t, "scan.png", h.backend.queries[0].File.Name)
	assert.Nil(t, state(m).attachment)
	assert.Equal(t, "scan.png", h.ctrl.Snapshot().Log[0].Attachment)
}

func TestAttachMissingFile(t *testing.T) {
	_, m := newHarness(t, nil)
	m = submit(t, m, "/attach /does/not/exist.pdf")
	assert.Nil(t, state(m).attachment)
	assert.Contains(t, state(m).toast.Message, "Cannot attach")
}

func TestRenameCommand(t *testing.T) {
	h, m := newHarness(t, func(o *Options) { o.InitialID = "c1" })
	m = submit(t, m, "/rename  Budget 2025 ")
	assert.Equal(t, "Budget 2025", h.backend.renamed["c1"])
	assert.Contains(t, state(m).toast.Message, "Renamed")
}

func TestRenameWithoutConversation(t *testing.T) {
	h, m := newHarness(t, nil)
	m = submit(t, m, "/rename Anything")
	assert.Empty(t, h.backend.renamed)
	assert.Contains(t, state(m).toast.Message, "No conversation")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	h, m := newHarness(t, func(o *Options) { o.InitialID = "c1" })

	m = submit(t, m, "/delete")
	require.NotNil(t, state(m).confirm)
	assert.Contains(t, m.View(), `Delete "Budget"? (y/n)`)

	m = typeText(t, m, "n")
	assert.Nil(t, state(m).confirm)
	assert.Empty(t, h.backend.deleted)

	m = submit(t, m, "/delete")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m = run(t, m, cmd)

	assert.Equal(t, []string{"c1"}, h.backend.deleted)
	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.ActiveID)
	assert.Equal(t, session.StateEmpty, snap.State)
	assert.Contains(t, state(m).toast.Message, "Deleted Budget")
}

func TestCopyCommand(t *testing.T) {
	h, m := newHarness(t, func(o *Options) { o.InitialID = "c1" })
	m = submit(t, m, "/copy")
	assert.Equal(t, []string{"Here is the budget"}, h.copied)
	assert.Contains(t, state(m).toast.Message, "Copied answer")
}

func TestCopyWithoutAnswer(t *testing.T) {
	h, m := newHarness(t, nil)
	m = submit(t, m, "/copy")
	assert.Empty(t, h.copied)
	assert.Contains(t, state(m).toast.Message, "No answer")
}

func TestPreviewCommand(t *testing.T) {
	_, m := newHarness(t, func(o *Options) { o.InitialID = "c2" })

	m = submit(t, m, "/preview 1")
	assert.Contains(t, state(m).info, "Source 1: https://files.example/contrats/Bail.pdf")
	assert.Contains(t, state(m).info, "10m0s")

	m = submit(t, m, "/preview 7")
	assert.Contains(t, state(m).toast.Message, "Usage: /preview <1-1>")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	_, m := newHarness(t, func(o *Options) {
		o.InitialID = "c1"
		o.ExportDir = dir
		o.ExportFormat = "md"
	})

	m = submit(t, m, "/export json")
	assert.Contains(t, state(m).toast.Message, "Exported to")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "conversation_Budget_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".json"))
}

func TestExportEmptyConversation(t *testing.T) {
	_, m := newHarness(t, nil)
	m = submit(t, m, "/export")
	assert.Contains(t, state(m).toast.Message, "Nothing to export")
}

func TestNewCommand(t *testing.T) {
	h, m := newHarness(t, func(o *Options) { o.InitialID = "c1" })
	submit(t, m, "/new")
	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.ActiveID)
	assert.Empty(t, snap.Log)
}

func TestCompletionAcceptsWithTab(t *testing.T) {
	_, m := newHarness(t, nil)
	m = typeText(t, m, "/ren")
	require.True(t, completionVisible(m))
	m = press(t, m, tea.KeyTab)
	assert.Equal(t, "/rename ", inputValue(m))
}

func TestQuit(t *testing.T) {
	_, m := newHarness(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Contains(t, collect(cmd), tea.Msg(tea.QuitMsg{}))
}
