// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
)

const testToken = "sandbox-token"

func newSandbox(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	s := NewServer("").WithAuth(AuthConfig{Token: testToken}).WithRateLimiter(nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, api.NewClient(ts.URL, auth.StaticToken(testToken))
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestValidateBearerToken(t *testing.T) {
	tests := []struct {
		token, expected string
		want            bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"", "abc", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateBearerToken(tt.token, tt.expected), "%q vs %q", tt.token, tt.expected)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		config AuthConfig
		header string
		want   int
	}{
		{"missing header", AuthConfig{Token: "t"}, "", http.StatusUnauthorized},
		{"wrong scheme", AuthConfig{Token: "t"}, "Basic dA==", http.StatusUnauthorized},
		{"wrong token", AuthConfig{Token: "t"}, "Bearer x", http.StatusUnauthorized},
		{"right token", AuthConfig{Token: "t"}, "Bearer t", http.StatusNoContent},
		{"any token accepted", AuthConfig{}, "Bearer whatever", http.StatusNoContent},
		{"empty bearer", AuthConfig{}, "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			AuthMiddleware(tt.config, zap.NewNop())(ok).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	w := httptest.NewRecorder()
	RecoveryMiddleware(zap.NewNop())(boom).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per IP")
}

func TestRequestIDMiddleware(t *testing.T) {
	h := RequestIDMiddleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })
	Chain(mw("a"), mw("b"))(final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestHealthNeedsNoToken(t *testing.T) {
	s := NewServer("")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAPIRequiresToken(t *testing.T) {
	s := NewServer("").WithAuth(AuthConfig{Token: testToken})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	client := api.NewClient(ts.URL, auth.StaticToken("wrong"))
	_, err := client.ListConversations(context.Background())

	var rf *api.RequestFailed
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, http.StatusUnauthorized, rf.Status)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestConversationLifecycle(t *testing.T) {
	s, client := newSandbox(t)
	ctx := context.Background()

	resp, err := client.SendQuery(ctx, api.QueryRequest{Agent: model.AgentDoc, Text: "Where is the guide?"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConversationID)
	assert.Contains(t, resp.Reply.Text, "Where is the guide?")
	require.Len(t, resp.Reply.Sources, 2)
	assert.Equal(t, "Onboarding.pdf", resp.Reply.Sources[0].Title)
	id := resp.ConversationID

	_, err = client.SendQuery(ctx, api.QueryRequest{Agent: model.AgentFinance, Text: "Top invoices", ConversationID: id})
	require.NoError(t, err)

	list, err := client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Where is the guide?", list[0].Title)
	assert.Equal(t, "finance", list[0].LastRoute)
	assert.WithinDuration(t, time.Now(), list[0].LastActivity, time.Minute)

	history, err := client.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.True(t, history[0].IsUser)
	assert.False(t, history[1].IsUser)
	assert.Len(t, history[1].Sources, 2)
	assert.Len(t, history[3].Rows, 3)
	require.NotNil(t, history[3].Timestamp)

	require.NoError(t, client.RenameConversation(ctx, id, "Guides"))
	list, err = client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Guides", list[0].Title)

	require.NoError(t, client.DeleteConversation(ctx, id))
	assert.Equal(t, 0, s.Store().Len())

	_, err = client.GetHistory(ctx, id)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestFinanceReturnsRows(t *testing.T) {
	_, client := newSandbox(t)
	resp, err := client.SendQuery(context.Background(), api.QueryRequest{Agent: model.AgentFinance, Text: "invoices"})
	require.NoError(t, err)
	require.Len(t, resp.Reply.Rows, 3)
	assert.Equal(t, "Acme", resp.Reply.Rows[0].Cell("client"))
	assert.Equal(t, []string{"amount", "client", "date", "invoice"}, sortedColumns(resp.Reply.Rows))
}

func TestSendWithAttachment(t *testing.T) {
	_, client := newSandbox(t)
	resp, err := client.SendQuery(context.Background(), api.QueryRequest{
		Agent: model.AgentVision,
		Text:  "What is on this receipt?",
		File:  &api.Attachment{Name: "receipt.png", Data: []byte("not really a png")},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Text, "receipt.png (16 bytes)")
	assert.Contains(t, resp.Reply.Text, "What is on this receipt?")
}

func TestSendToUnknownConversation(t *testing.T) {
	_, client := newSandbox(t)
	_, err := client.SendQuery(context.Background(), api.QueryRequest{
		Agent: model.AgentSearch, Text: "hello", ConversationID: "missing",
	})
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestRenameUnknownConversation(t *testing.T) {
	_, client := newSandbox(t)
	err := client.RenameConversation(context.Background(), "missing", "x")
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))
}

func TestPreview(t *testing.T) {
	_, client := newSandbox(t)
	ctx := context.Background()

	p, err := client.PreviewSource(ctx, "policies/Expenses.pdf - page 4", "policies/Expenses.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.URL, "https://"+previewHost+"/docs/policies/Expenses.pdf?"), p.URL)
	assert.Equal(t, PreviewValidity, p.ExpiresIn)

	p, err = client.PreviewSource(ctx, "Onboarding.pdf", "https://"+previewHost+"/docs/guides/Onboarding.pdf")
	require.NoError(t, err)
	assert.Contains(t, p.URL, "/docs/guides/Onboarding.pdf?")
}

func TestInvalidJSONBody(t *testing.T) {
	s := NewServer("").WithRateLimiter(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/rag", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer any")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON body")
}

// =============================================================================
// END TO END
// =============================================================================

func TestSessionAgainstSandbox(t *testing.T) {
	_, client := newSandbox(t)
	ctx := context.Background()
	ctrl := session.NewController(client, client, session.DefaultConfig())

	require.NoError(t, ctrl.Bootstrap(ctx, ""))
	require.NoError(t, ctrl.Send(ctx, "First question", nil))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Log, 2)
	assert.False(t, snap.Log[1].IsError)
	require.NotEmpty(t, snap.ActiveID)
	require.Len(t, ctrl.Summaries(), 1)
	assert.Equal(t, "First question", ctrl.Summaries()[0].Title)

	id := snap.ActiveID
	ctrl.StartNewConversation()
	require.NoError(t, ctrl.SelectConversation(ctx, id))
	assert.Len(t, ctrl.Snapshot().Log, 2)

	require.NoError(t, ctrl.Delete(ctx, id))
	assert.Empty(t, ctrl.Summaries())
	assert.Equal(t, session.StateEmpty, ctrl.Snapshot().State)

	err := ctrl.SelectConversation(ctx, id)
	var rf *api.RequestFailed
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusNotFound, rf.Status)
}

func sortedColumns(rows []model.Row) []string {
	cols := model.Columns(rows)
	out := append([]string(nil), cols...)
	sort.Strings(out)
	return out
}
