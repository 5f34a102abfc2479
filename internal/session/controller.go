// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned by Send while a load or another send is in flight.
	ErrBusy = errors.New("session busy")

	// ErrEmptyMessage is returned by Send when there is neither text nor a file.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSuperseded is returned by SelectConversation when a newer selection,
	// a new conversation or a delete made the result irrelevant. The state
	// was not changed; callers usually ignore it.
	ErrSuperseded = errors.New("selection superseded")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// ConversationStore is the remote conversation store.
type ConversationStore interface {
	ListConversations(ctx context.Context) ([]model.ConversationSummary, error)
	GetHistory(ctx context.Context, id string) ([]model.Message, error)
	RenameConversation(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error
}

// QueryService answers questions on behalf of an agent.
type QueryService interface {
	SendQuery(ctx context.Context, q api.QueryRequest) (api.QueryResponse, error)
}

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of the active conversation.
type State int

const (
	// StateEmpty is a new, unsaved conversation.
	StateEmpty State = iota
	// StateLoading means a history fetch is in flight.
	StateLoading
	// StateReady means the log matches the active conversation.
	StateReady
	// StateSending means one send is outstanding.
	StateSending
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	// ActiveID is the conversation bound to Log, "" for a new conversation.
	ActiveID string
	// LoadingID is the conversation being fetched while State is StateLoading.
	LoadingID string
	Log       []model.Message
	State     State
	Pending   bool
	Agent     model.AgentType
}

// Config holds controller settings.
type Config struct {
	// Agent answers sends until SetAgent is called.
	Agent model.AgentType

	// RefreshAfterSend reloads the summary list after every answered send,
	// so a first message shows up in the sidebar.
	RefreshAfterSend bool

	Logger *zap.Logger
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Agent:            model.DefaultAgent,
		RefreshAfterSend: true,
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller tracks the active conversation of one chat view, its message
// log and the cached summary list. All methods are safe for concurrent use;
// the lock is never held across a collaborator call.
type Controller struct {
	store  ConversationStore
	query  QueryService
	logger *zap.Logger

	refreshAfterSend bool

	mu sync.Mutex

	state    State
	activeID string
	log      []model.Message
	agent    model.AgentType

	// Selection tracking. gen advances on every selection and on anything
	// that invalidates one; a fetch result is applied only if gen is
	// unchanged. restore is the state to fall back to if the fetch fails.
	loadingID string
	gen       uint64
	restore   State

	// epoch advances whenever the log is bound to a different conversation.
	// A send result is applied only within the epoch it was issued in.
	epoch uint64

	// Summary list, applied in issue order.
	summaries   []model.ConversationSummary
	listIssued  uint64
	listApplied uint64
}

// NewController creates a controller in StateEmpty.
func NewController(store ConversationStore, query QueryService, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	agent := cfg.Agent
	if !agent.Valid() {
		agent = model.DefaultAgent
	}
	return &Controller{
		store:            store,
		query:            query,
		logger:           logger.Named("session"),
		refreshAfterSend: cfg.RefreshAfterSend,
		agent:            agent,
	}
}

// =============================================================================
// READ-ONLY VIEWS
// =============================================================================

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ActiveID:  c.activeID,
		LoadingID: c.loadingID,
		Log:       append([]model.Message(nil), c.log...),
		State:     c.state,
		Pending:   c.state == StateSending,
		Agent:     c.agent,
	}
}

// Summaries returns the cached summary list in remote order.
func (c *Controller) Summaries() []model.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ConversationSummary(nil), c.summaries...)
}

// Groups returns the cached summaries grouped by recency relative to now.
func (c *Controller) Groups(now time.Time) []Group {
	return GroupByRecency(c.Summaries(), now)
}

// Agent returns the agent used for sends.
func (c *Controller) Agent() model.AgentType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agent
}

// SetAgent selects the agent used by subsequent sends. Unknown agents are
// ignored.
func (c *Controller) SetAgent(agent model.AgentType) {
	if !agent.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agent = agent
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectConversation loads the history of id and makes it active. If a
// newer selection, a new conversation or a delete of id happened while the
// fetch was in flight, the result is discarded and ErrSuperseded returned.
// A failed fetch leaves the previous conversation in place and returns an
// *api.RequestFailed.
func (c *Controller) SelectConversation(ctx context.Context, id string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.state != StateLoading {
		c.restore = c.state
	}
	c.state = StateLoading
	c.loadingID = id
	c.mu.Unlock()

	c.logger.Debug("loading conversation", zap.String("id", id), zap.Uint64("gen", gen))
	history, err := c.store.GetHistory(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("discarding stale history",
			zap.String("id", id), zap.Uint64("gen", gen), zap.Uint64("current", c.gen))
		return ErrSuperseded
	}

	c.loadingID = ""
	if err != nil {
		c.state = c.restore
		err = requestFailed(api.OpHistory, err)
		c.logger.Warn("load conversation failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.epoch++
	c.activeID = id
	c.log = append([]model.Message(nil), history...)
	c.state = StateReady
	return nil
}

// StartNewConversation clears the session synchronously. Any in-flight
// selection or send is discarded when it resolves.
func (c *Controller) StartNewConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startNewLocked()
}

func (c *Controller) startNewLocked() {
	c.gen++
	c.loadingID = ""
	c.state = StateEmpty
	c.clearLocked()
}

// clearLocked unbinds the log from its conversation.
func (c *Controller) clearLocked() {
	c.epoch++
	c.activeID = ""
	c.log = nil
}

// =============================================================================
// SENDING
// =============================================================================

// Send appends text as a user message and asks the current agent for a
// reply. It is only accepted in StateEmpty or StateReady. Collaborator
// failures never surface here: the reply is replaced by an error message
// and the user message stays. On the first message of a new conversation
// the id returned by the agent becomes active.
func (c *Controller) Send(ctx context.Context, text string, file *api.Attachment) error {
	if strings.TrimSpace(text) == "" && file == nil {
		return ErrEmptyMessage
	}

	attachment := ""
	if file != nil {
		attachment = file.Name
	}

	c.mu.Lock()
	if c.state != StateEmpty && c.state != StateReady {
		c.mu.Unlock()
		return ErrBusy
	}
	c.log = append(c.log, model.NewUserMessage(text, attachment))
	c.state = StateSending
	epoch := c.epoch
	req := api.QueryRequest{
		Agent:          c.agent,
		Text:           text,
		ConversationID: c.activeID,
		File:           file,
	}
	c.mu.Unlock()

	resp, err := c.query.SendQuery(ctx, req)
	if err != nil {
		c.logger.Warn("send failed",
			zap.String("agent", string(req.Agent)),
			zap.String("conversation", req.ConversationID),
			zap.Error(requestFailed(api.OpQuery, err)))
	}

	if !c.finishSend(epoch, resp, err) {
		return nil
	}
	if err == nil && c.refreshAfterSend {
		_ = c.RefreshList(ctx)
	}
	return nil
}

// finishSend applies a send result. It reports false when the session
// moved on while the send was in flight and the result was dropped.
func (c *Controller) finishSend(epoch uint64, resp api.QueryResponse, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("dropping reply for previous session", zap.Uint64("epoch", epoch))
		return false
	}

	if err != nil {
		c.log = append(c.log, model.NewErrorMessage())
	} else {
		c.log = append(c.log, resp.Reply)
		if c.activeID == "" && resp.ConversationID != "" {
			c.activeID = resp.ConversationID
		}
	}

	switch c.state {
	case StateSending:
		c.state = StateReady
	case StateLoading:
		// A selection started after the send; if it fails we fall back here.
		c.restore = StateReady
	}
	return true
}

// =============================================================================
// LIST MUTATIONS
// =============================================================================

// Rename renames a conversation and refreshes the list whatever the outcome.
// Empty titles are ignored.
func (c *Controller) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if id == "" || title == "" {
		return nil
	}

	err := c.store.RenameConversation(ctx, id, title)
	if err != nil {
		err = requestFailed(api.OpRename, err)
		c.logger.Warn("rename failed", zap.String("id", id), zap.Error(err))
	}
	_ = c.RefreshList(ctx)
	return err
}

// Delete deletes a conversation and refreshes the list whatever the outcome.
// Deleting the active conversation, or the one being loaded, starts a new
// conversation before the request is issued.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	c.mu.Lock()
	switch {
	case c.loadingID == id:
		c.startNewLocked()
	case c.activeID == id:
		// A load for another conversation stays pending and still resolves;
		// if it fails the session stays empty.
		c.clearLocked()
		c.state = StateEmpty
		c.restore = StateEmpty
	}
	c.mu.Unlock()

	err := c.store.DeleteConversation(ctx, id)
	if err != nil {
		err = requestFailed(api.OpDelete, err)
		c.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
	}
	_ = c.RefreshList(ctx)
	return err
}

// RefreshList replaces the cached summaries with a fresh fetch. Responses
// are applied in issue order; a response older than the last one applied
// is dropped. On failure the list is left unchanged.
func (c *Controller) RefreshList(ctx context.Context) error {
	c.mu.Lock()
	c.listIssued++
	seq := c.listIssued
	c.mu.Unlock()

	list, err := c.store.ListConversations(ctx)
	if err != nil {
		err = requestFailed(api.OpList, err)
		c.logger.Warn("refresh list failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.listApplied {
		c.logger.Debug("dropping stale list", zap.Uint64("seq", seq), zap.Uint64("applied", c.listApplied))
		return nil
	}
	c.listApplied = seq
	c.summaries = append([]model.ConversationSummary(nil), list...)
	return nil
}

// Bootstrap loads the summary list and, when id is set, that conversation
// in parallel. A superseded selection is not an error.
func (c *Controller) Bootstrap(ctx context.Context, id string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.RefreshList(gctx)
	})
	if id != "" {
		g.Go(func() error {
			if err := c.SelectConversation(gctx, id); err != nil && !errors.Is(err, ErrSuperseded) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// requestFailed makes sure collaborator failures reach callers as
// *api.RequestFailed.
func requestFailed(op string, err error) error {
	var rf *api.RequestFailed
	if errors.As(err, &rf) {
		return err
	}
	return &api.RequestFailed{Op: op, Cause: err}
}
