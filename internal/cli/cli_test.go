// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/config"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/server"
	"github.com/jeranaias/aina-tui/internal/session"
)

const testToken = "test-token"

// =============================================================================
// HELPERS
// =============================================================================

// testEnv isolates the config directory and environment, and starts a
// sandbox backend that accepts testToken.
func testEnv(t *testing.T) (*server.Server, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("AINA_HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("AINA_TOKEN", testToken)
	for _, name := range []string{"AINA_SERVER", "AINA_AGENT", "AINA_TOKEN_FILE", "AINA_LOG_LEVEL", "AINA_REQUESTS_PER_SECOND"} {
		t.Setenv(name, "")
	}

	srv := server.NewServer("").
		WithAuth(server.AuthConfig{Token: testToken}).
		WithRateLimiter(nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

// runCLI executes one command line with stdout and stderr captured together.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// decodeEnvelope unmarshals a --json response, with Data into data.
func decodeEnvelope(t *testing.T, out string, data any) JSONResponse {
	t.Helper()
	var env struct {
		JSONResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.JSONResponse
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_Finance(t *testing.T) {
	_, url := testEnv(t)

	out, err := runCLI(t, "", "--server", url, "--agent", "finance", "ask", "unpaid", "invoices")
	require.NoError(t, err)
	assert.Contains(t, out, "unpaid invoices")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "conversation ")
}

func TestAsk_ReadsQuestionFromStdin(t *testing.T) {
	srv, url := testEnv(t)

	out, err := runCLI(t, "Where is the onboarding guide?\n", "--server", url, "ask")
	require.NoError(t, err)
	assert.Contains(t, out, "Where is the onboarding guide?")
	assert.Contains(t, out, "📄 Onboarding")
	assert.Equal(t, 1, srv.Store().Len())
}

func TestAsk_JSON(t *testing.T) {
	srv, url := testEnv(t)

	out, err := runCLI(t, "", "--server", url, "--agent", "finance", "ask", "--json", "totals")
	require.NoError(t, err)

	var data AskData
	env := decodeEnvelope(t, out, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "ask", env.Command)
	assert.Equal(t, model.AgentFinance, data.Agent)
	assert.NotEmpty(t, data.ConversationID)
	assert.Len(t, data.Rows, 3)
	assert.Equal(t, 1, srv.Store().Len())
}

func TestAsk_WithAttachment(t *testing.T) {
	_, url := testEnv(t)
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o600))

	out, err := runCLI(t, "", "--server", url, "--agent", "vision", "ask", "--file", path, "total?")
	require.NoError(t, err)
	assert.Contains(t, out, "receipt.png (16 bytes)")
}

func TestAsk_NothingToAsk(t *testing.T) {
	_, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "ask")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestAsk_UnknownAgent(t *testing.T) {
	_, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "--agent", "oracle", "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestAsk_RejectedToken(t *testing.T) {
	_, url := testEnv(t)
	t.Setenv("AINA_TOKEN", "wrong")

	_, err := runCLI(t, "", "--server", url, "ask", "hi")
	require.Error(t, err)
	assert.Equal(t, 401, api.StatusOf(err))
	assert.Equal(t, ExitAuth, exitCode(err))
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestConversations_Lifecycle(t *testing.T) {
	srv, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "ask", "Quarterly budget review")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--server", url, "conversations", "list", "--json")
	require.NoError(t, err)
	var summaries []model.ConversationSummary
	decodeEnvelope(t, out, &summaries)
	require.Len(t, summaries, 1)
	id := summaries[0].ID
	assert.Equal(t, "Quarterly budget review", summaries[0].Title)

	out, err = runCLI(t, "", "--server", url, "conversations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Today")
	assert.Contains(t, out, id)

	out, err = runCLI(t, "", "--server", url, "conversations", "history", id)
	require.NoError(t, err)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Quarterly budget review")

	_, err = runCLI(t, "", "--server", url, "conversations", "rename", id, "Budget", "2025")
	require.NoError(t, err)
	out, err = runCLI(t, "", "--server", url, "conversations", "list", "--json")
	require.NoError(t, err)
	decodeEnvelope(t, out, &summaries)
	assert.Equal(t, "Budget 2025", summaries[0].Title)

	dir := t.TempDir()
	out, err = runCLI(t, "", "--server", url, "conversations", "export", id, "--format", "json", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")
	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	assert.Len(t, files, 1)

	// Piped stdin cannot confirm.
	_, err = runCLI(t, "y\n", "--server", url, "conversations", "delete", id)
	require.Error(t, err)
	assert.Equal(t, 1, srv.Store().Len())

	_, err = runCLI(t, "", "--server", url, "conversations", "delete", "--yes", id)
	require.NoError(t, err)
	assert.Equal(t, 0, srv.Store().Len())
}

func TestConversations_HistoryUnknown(t *testing.T) {
	_, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "conversations", "history", "missing")
	require.Error(t, err)
	assert.Equal(t, 404, api.StatusOf(err))
	assert.Equal(t, ExitBackend, exitCode(err))
}

func TestConversations_ExportUnknownFormat(t *testing.T) {
	_, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "conversations", "export", "any", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview(t *testing.T) {
	_, url := testEnv(t)

	out, err := runCLI(t, "", "--server", url, "preview", "policies/Expenses.pdf - page 4")
	require.NoError(t, err)
	assert.Contains(t, out, "https://aina-sandbox.blob.core.windows.net/docs/policies/Expenses.pdf")

	out, err = runCLI(t, "", "--server", url, "preview", "--json", "reports/Q1.pdf")
	require.NoError(t, err)
	var data PreviewData
	decodeEnvelope(t, out, &data)
	assert.Contains(t, data.URL, "/docs/reports/Q1.pdf")
	assert.Equal(t, 15, data.ExpiresInMinutes)
}

func TestPreview_InvalidID(t *testing.T) {
	_, url := testEnv(t)

	_, err := runCLI(t, "", "--server", url, "preview", "--id", "!!not-base64!!")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidDocumentID)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_SetGet(t *testing.T) {
	testEnv(t)

	_, err := runCLI(t, "", "config", "set", "chat.default_agent", "finance")
	require.NoError(t, err)
	_, err = runCLI(t, "", "config", "set", "server.timeout_secs", "60")
	require.NoError(t, err)

	out, err := runCLI(t, "", "config", "get", "chat.default_agent")
	require.NoError(t, err)
	assert.Equal(t, "finance\n", out)

	out, err = runCLI(t, "", "config", "get", "server.timeout_secs")
	require.NoError(t, err)
	assert.Equal(t, "60\n", out)

	path, err := config.ConfigPathTOML()
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err = runCLI(t, "", "config", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "default_agent: finance")
}

func TestConfig_SetRejectsBadValues(t *testing.T) {
	testEnv(t)

	tests := []struct {
		name       string
		key, value string
	}{
		{"unknown key", "chat.colour", "blue"},
		{"not a number", "server.timeout_secs", "soon"},
		{"unknown agent", "chat.default_agent", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "", "config", "set", tt.key, tt.value)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, exitCode(err))
		})
	}
}

func TestConfig_InitRefusesOverwrite(t *testing.T) {
	testEnv(t)

	_, err := runCLI(t, "", "config", "init")
	require.NoError(t, err)
	_, err = runCLI(t, "", "config", "init")
	require.Error(t, err)
	_, err = runCLI(t, "", "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfig_ShowRedactsToken(t *testing.T) {
	testEnv(t)

	_, err := runCLI(t, "", "config", "set", "auth.token", "super-secret")
	require.NoError(t, err)
	out, err := runCLI(t, "", "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "super-secret")
}

// =============================================================================
// AUTH AND VERSION
// =============================================================================

func TestAuthStatus_ExpiredJWT(t *testing.T) {
	testEnv(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"name": "Camille",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	t.Setenv("AINA_TOKEN", token)

	out, err := runCLI(t, "", "auth", "status", "--json")
	require.NoError(t, err)
	var data AuthStatusData
	decodeEnvelope(t, out, &data)
	assert.True(t, data.SignedIn)
	assert.True(t, data.Expired)
	assert.Equal(t, "user-1", data.Subject)
	assert.Equal(t, "Camille", data.Name)
	assert.Equal(t, "env AINA_TOKEN", data.Source)
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	testEnv(t)
	t.Setenv("AINA_TOKEN", "")
	tokenFile := filepath.Join(t.TempDir(), "token")
	t.Setenv("AINA_TOKEN_FILE", tokenFile)

	out, err := runCLI(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	_, err = runCLI(t, "opaque-token\n", "auth", "login")
	require.NoError(t, err)
	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token\n", string(data))

	out, err = runCLI(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Token from file "+tokenFile)

	_, err = runCLI(t, "", "auth", "logout")
	require.NoError(t, err)
	assert.NoFileExists(t, tokenFile)
}

func TestVersion_JSON(t *testing.T) {
	testEnv(t)

	out, err := runCLI(t, "", "version", "--json")
	require.NoError(t, err)
	var data VersionData
	decodeEnvelope(t, out, &data)
	assert.Equal(t, Version, data.Version)
	assert.NotEmpty(t, data.GoVersion)
}

// =============================================================================
// CHAT REPL
// =============================================================================

// scriptedReader answers prompts from a fixed script, then reports EOF.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (s *scriptedReader) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestREPL(t *testing.T, url string, lines ...string) (*repl, *scriptedReader, *bytes.Buffer) {
	t.Helper()
	client := api.NewClient(url, auth.StaticToken(testToken))
	ctrl := session.NewController(client, client, session.Config{
		Agent:            model.AgentDoc,
		RefreshAfterSend: true,
		Logger:           zap.NewNop(),
	})
	cfg := config.Default()
	cfg.Export.Dir = t.TempDir()

	in := &scriptedReader{lines: lines}
	var out bytes.Buffer
	return newREPL(ctrl, client, in, &out, cfg, zap.NewNop()), in, &out
}

func TestChatREPL_Session(t *testing.T) {
	srv, url := testEnv(t)
	r, in, out := newTestREPL(t, url,
		"What is onboarding?",
		"/preview 1",
		"/agent finance",
		"invoices",
		"/rename Invoices",
		"/list",
		"/export json",
		"/delete",
		"y",
		"/quit",
	)

	require.NoError(t, r.run(context.Background(), ""))

	text := out.String()
	assert.Contains(t, text, "Onboarding.pdf")
	assert.Contains(t, text, "https://aina-sandbox.blob.core.windows.net/docs/")
	assert.Contains(t, text, "Acme")
	assert.Contains(t, text, "Renamed to Invoices.")
	assert.Contains(t, text, "Exported to")
	assert.Contains(t, text, "Deleted.")
	assert.Equal(t, 0, srv.Store().Len())

	assert.Equal(t, "doc> ", in.prompts[0])
	assert.Contains(t, in.prompts, "finance> ")
}

func TestChatREPL_AttachGoesWithNextMessage(t *testing.T) {
	_, url := testEnv(t)
	path := filepath.Join(t.TempDir(), "scan.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o600))

	r, in, out := newTestREPL(t, url, "/attach "+path, "what is this?", "next")
	require.NoError(t, r.run(context.Background(), ""))

	assert.Contains(t, in.prompts, "doc +scan.jpg> ")
	assert.Contains(t, out.String(), "scan.jpg (4 bytes)")
	assert.Nil(t, r.attachment)
}

func TestChatREPL_OpenFromList(t *testing.T) {
	_, url := testEnv(t)
	seed := api.NewClient(url, auth.StaticToken(testToken))
	resp, err := seed.SendQuery(context.Background(), api.QueryRequest{Agent: model.AgentDoc, Text: "Leave policy"})
	require.NoError(t, err)

	r, _, out := newTestREPL(t, url, "/list", "/open 1", "/open 9")
	require.NoError(t, r.run(context.Background(), ""))

	assert.Equal(t, resp.ConversationID, r.ctrl.Snapshot().ActiveID)
	assert.Contains(t, out.String(), " 1. Leave policy")
	assert.Contains(t, out.String(), `received your question: "Leave policy"`)
	assert.Contains(t, out.String(), "Usage: /open")
}

func TestChatREPL_UnknownCommand(t *testing.T) {
	_, url := testEnv(t)
	r, _, out := newTestREPL(t, url, "/frobnicate")
	require.NoError(t, r.run(context.Background(), ""))
	assert.Contains(t, out.String(), "Unknown command /frobnicate")
}

// =============================================================================
// EXIT CODES AND CONFIRMATION
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageErrorf("bad"), ExitUsage},
		{"no token", auth.ErrNoToken, ExitAuth},
		{"expired", auth.ErrTokenExpired, ExitAuth},
		{"unauthorized", &api.RequestFailed{Op: api.OpList, Status: 401}, ExitAuth},
		{"server error", &api.RequestFailed{Op: api.OpList, Status: 500}, ExitBackend},
		{"other", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRequireConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    ConfirmationOptions
		want    bool
		wantErr bool
	}{
		{"yes flag", "", ConfirmationOptions{Yes: true}, true, false},
		{"json without yes", "y\n", ConfirmationOptions{JSONMode: true, Interactive: true}, false, true},
		{"not a terminal", "y\n", ConfirmationOptions{}, false, true},
		{"answer y", "y\n", ConfirmationOptions{Interactive: true}, true, false},
		{"answer YES", "YES\n", ConfirmationOptions{Interactive: true}, true, false},
		{"answer n", "n\n", ConfirmationOptions{Interactive: true}, false, false},
		{"eof", "", ConfirmationOptions{Interactive: true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := RequireConfirmation(strings.NewReader(tt.input), &out, "delete it", tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
