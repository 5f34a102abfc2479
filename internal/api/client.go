// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/aina-tui/internal/auth"
	"github.com/jeranaias/aina-tui/internal/util"
)

// Configuration constants for the Aïna backend.
const (
	// DefaultBaseURL is the production backend.
	DefaultBaseURL = "https://app-rag-its-new2.azurewebsites.net"

	// MaxResponseSize is the default cap on a response body.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// errorSnippetSize bounds how much of an error body ends up in a message.
	errorSnippetSize = 512

	userAgent = "aina-tui/1.0"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// No client-level timeout: answers can take a long time and callers bound
// requests through their context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Client talks to the Aïna backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	maxBody    int64
	logger     *zap.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty). Every
// request asks tokens for the bearer token.
func NewClient(baseURL string, tokens auth.TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: sharedHTTPClient,
		maxBody:    MaxResponseSize,
		logger:     zap.NewNop(),
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests, proxies).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout bounds each request. Zero disables the bound.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithRateLimit limits outgoing requests to rps per second. rps <= 0
// removes the limit.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithMaxResponseSize caps response bodies at n bytes.
func (c *Client) WithMaxResponseSize(n int64) *Client {
	if n > 0 {
		c.maxBody = n
	}
	return c
}

// WithLogger sets the logger. Request bodies and tokens are never logged.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do performs r and decodes a JSON response into out (when non-nil). Every
// failure is returned as *RequestFailed.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return failed(r.op, 0, err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return failed(r.op, 0, err)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return failed(r.op, 0, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", r.op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return failed(r.op, 0, err)
	}
	defer resp.Body.Close()

	// SECURITY: never log headers (Authorization) or bodies (user content).
	c.logger.Debug("request completed",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))

	body, err := c.readBody(resp)
	if err != nil {
		return failed(r.op, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(r.op, resp.StatusCode, errors.New(snippet(body, resp.Status)))
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return failed(r.op, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// readBody reads at most maxBody bytes and fails if the body is longer.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxBody)
	}
	return body, nil
}

// snippet extracts a short error description from a failed response body.
// FastAPI-style {"detail": "..."} bodies are unwrapped.
func snippet(body []byte, status string) string {
	var detail struct {
		Detail any `json:"detail"`
		Error  any `json:"error"`
	}
	if json.Unmarshal(body, &detail) == nil {
		for _, v := range []any{detail.Detail, detail.Error} {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	return util.TruncateTitle(text, errorSnippetSize)
}
