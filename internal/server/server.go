// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the loopback address the sandbox listens on.
	DefaultAddr = "127.0.0.1:8787"

	// MaxRequestBody bounds JSON and multipart bodies; it leaves room for
	// an attachment of api.MaxAttachmentSize.
	MaxRequestBody = api.MaxAttachmentSize + 1<<20

	// MaxQuestionLength rejects absurd questions early.
	MaxQuestionLength = 100000

	// PreviewValidity is how long sandbox preview links claim to live.
	PreviewValidity = 15 * time.Minute

	previewHost = "aina-sandbox.blob.core.windows.net"
)

// questionFields are the text field names the agents use.
var questionFields = []string{"question", "query", "prompt"}

// ============================================================================
// WIRE TYPES
// ============================================================================

type conversationWire struct {
	ID           string `json:"conversation_id"`
	Title        string `json:"title"`
	LastActivity string `json:"last_activity_utc"`
	LastRoute    string `json:"last_route,omitempty"`
}

type docWire struct {
	Title    string `json:"title,omitempty"`
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
}

type metaWire struct {
	UsedDocs []docWire       `json:"used_docs,omitempty"`
	Rows     []map[string]any `json:"rows,omitempty"`
}

type historyWire struct {
	Role      string   `json:"role"`
	Route     string   `json:"route,omitempty"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp_utc"`
	Meta      metaWire `json:"meta"`
}

type answerWire struct {
	Answer         string           `json:"answer"`
	Rows           []map[string]any `json:"rows,omitempty"`
	UsedDocs       []docWire        `json:"used_docs,omitempty"`
	ConversationID string           `json:"conversation_id"`
}

type renameWire struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

type sasWire struct {
	URL              string  `json:"url"`
	ExpiresInMinutes float64 `json:"expires_in_minutes"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Conversations int    `json:"conversations"`
	Uptime        string `json:"uptime"`
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the sandbox backend. It serves the same HTTP API as the real
// backend from an in-memory Store.
type Server struct {
	addr    string
	store   *Store
	auth    AuthConfig
	limiter *RateLimiter
	logger  *zap.Logger
	started time.Time

	server *http.Server
}

// NewServer creates a sandbox for addr (DefaultAddr when empty).
func NewServer(addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:    addr,
		store:   NewStore(),
		limiter: DefaultRateLimiter(),
		logger:  zap.NewNop(),
		started: time.Now(),
	}
}

// WithAuth sets the accepted bearer token.
func (s *Server) WithAuth(config AuthConfig) *Server {
	s.auth = config
	return s
}

// WithLogger sets the logger.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger.Named("sandbox")
	}
	return s
}

// WithRateLimiter replaces the per-IP limiter; nil disables limiting.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.limiter = rl
	return s
}

// Store exposes the backing store, mostly for tests.
func (s *Server) Store() *Store { return s.store }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Handler returns the full middleware-wrapped handler. /health is the only
// route that does not need a token.
func (s *Server) Handler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/chat/list", s.handleList)
	apiMux.HandleFunc("GET /api/chat/history", s.handleHistory)
	apiMux.HandleFunc("POST /api/chat/rename", s.handleRename)
	apiMux.HandleFunc("DELETE /api/chat/clear", s.handleDelete)
	apiMux.HandleFunc("GET /api/sas", s.handleSAS)
	for _, agent := range model.Agents {
		path, ok := api.EndpointPath(agent)
		if !ok {
			continue
		}
		apiMux.HandleFunc("POST "+path, s.handleAgent(agent))
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.handleHealth)
	root.Handle("/", AuthMiddleware(s.auth, s.logger)(apiMux))

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter))
	}
	return Chain(middlewares...)(root)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("sandbox listening", zap.String("addr", ln.Addr().String()))
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("sandbox shutting down", zap.Int("conversations", s.store.Len()))
	return s.server.Shutdown(ctx)
}

// ============================================================================
// CONVERSATION HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Conversations: s.store.Len(),
		Uptime:        time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"conversations": s.store.List()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	messages, err := s.store.History(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameWire
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if req.ConversationID == "" || title == "" {
		writeError(w, http.StatusUnprocessableEntity, "conversation_id and title are required")
		return
	}
	if err := s.store.Rename(req.ConversationID, title); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "title": title})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}
	if err := s.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSAS(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimSpace(r.URL.Query().Get("path")), "/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	expires := time.Now().Add(PreviewValidity).UTC()
	u := url.URL{
		Scheme:   "https",
		Host:     previewHost,
		Path:     "/docs/" + path,
		RawQuery: url.Values{"se": {expires.Format(time.RFC3339)}, "sig": {"sandbox"}}.Encode(),
	}
	writeJSON(w, http.StatusOK, sasWire{URL: u.String(), ExpiresInMinutes: PreviewValidity.Minutes()})
}

// ============================================================================
// AGENT HANDLERS
// ============================================================================

// question is a decoded agent request.
type question struct {
	Text           string
	ConversationID string
	FileName       string
	FileSize       int
}

func (s *Server) handleAgent(agent model.AgentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := readQuestion(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if q.Text == "" && q.FileName == "" {
			writeError(w, http.StatusUnprocessableEntity, "a question or a file is required")
			return
		}
		if len(q.Text) > MaxQuestionLength {
			writeError(w, http.StatusRequestEntityTooLarge, "question too long")
			return
		}

		answer := cannedAnswer(agent, q)
		id, err := s.store.Append(q.ConversationID, string(agent), q.Text, answer)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		s.logger.Debug("answered",
			zap.String("agent", string(agent)),
			zap.String("conversation", id),
			zap.Bool("file", q.FileName != ""))

		writeJSON(w, http.StatusOK, answerWire{
			Answer:         answer.Text,
			Rows:           answer.Rows,
			UsedDocs:       answer.Docs,
			ConversationID: id,
		})
	}
}

// readQuestion accepts the JSON body or the multipart form the client sends
// when a file is attached.
func readQuestion(w http.ResponseWriter, r *http.Request) (question, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var fields map[string]any
		if err := decodeJSON(w, r, &fields); err != nil {
			return question{}, err
		}
		q := question{ConversationID: stringField(fields["conversation_id"])}
		for _, name := range questionFields {
			if v := stringField(fields[name]); v != "" {
				q.Text = v
				break
			}
		}
		return q, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := r.ParseMultipartForm(MaxRequestBody); err != nil {
		return question{}, fmt.Errorf("invalid multipart body: %w", err)
	}
	q := question{ConversationID: strings.TrimSpace(r.FormValue("conversation_id"))}
	for _, name := range questionFields {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			q.Text = v
			break
		}
	}
	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return question{}, fmt.Errorf("invalid file part: %w", err)
	default:
		defer file.Close()
		n, err := io.Copy(io.Discard, file)
		if err != nil {
			return question{}, fmt.Errorf("read file part: %w", err)
		}
		q.FileName, q.FileSize = header.Filename, int(n)
	}
	return q, nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// cannedAnswer builds the agent reply: an echo, plus a table for finance
// and sources for doc and search.
func cannedAnswer(agent model.AgentType, q question) entry {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (sandbox) received your question", agent.DisplayName())
	if q.Text != "" {
		fmt.Fprintf(&sb, ": %q", q.Text)
	}
	sb.WriteString(".")
	if q.FileName != "" {
		fmt.Fprintf(&sb, "\nAttached file %s (%d bytes) was read.", q.FileName, q.FileSize)
	}

	e := entry{}
	switch agent {
	case model.AgentDoc:
		sb.WriteString("\nThe onboarding guide covers this on page 2.")
		e.Docs = []docWire{
			{Filename: "Onboarding.pdf", URL: "https://" + previewHost + "/docs/guides/Onboarding.pdf"},
			{Title: "policies/Expenses.pdf - page 4", Path: "policies/Expenses.pdf"},
		}
	case model.AgentFinance:
		sb.WriteString("\nTop invoices for the period:")
		e.Rows = []map[string]any{
			{"invoice": "F-2025-001", "client": "Acme", "amount": 1250.5, "date": "2025-01-15"},
			{"invoice": "F-2025-002", "client": "Globex", "amount": 980, "date": "2025-02-03"},
			{"invoice": "F-2025-003", "client": "Initech", "amount": 430.25, "date": "2025-02-21"},
		}
	case model.AgentVision:
		if q.FileName == "" {
			sb.WriteString("\nAttach an image with /attach so I can describe it.")
		}
	case model.AgentSearch:
		e.Docs = []docWire{
			{Title: "Quarterly report", Path: "reports/Q1.pdf"},
		}
	}
	e.Text = sb.String()
	return e
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers in the FastAPI {"detail": ...} shape the client unwraps.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
