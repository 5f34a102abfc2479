// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the sandbox backend: an in-memory implementation of the
// Aïna HTTP API for local development and end-to-end tests.
//
// # Endpoints
//
//   - GET    /api/chat/list                      - conversation summaries
//   - GET    /api/chat/history?conversation_id=  - message log
//   - POST   /api/chat/rename                    - set a title
//   - DELETE /api/chat/clear?conversation_id=    - delete a conversation
//   - POST   /api/rag, /api/finance, /askVisionQuestion, /api/search
//   - GET    /api/sas?path=                      - signed preview URL
//   - GET    /health                             - liveness, no token needed
//
// Agents answer with canned echoes: finance adds a small table, doc and
// search add sources. State lives in memory and dies with the process.
//
// # Middleware
//
//   - Bearer token check with constant-time comparison
//   - Per-IP rate limiting (golang.org/x/time/rate)
//   - X-Request-ID propagation
//   - Security headers
//   - Request logging and panic recovery through zap
//
// # Usage
//
//	srv := server.NewServer("127.0.0.1:8787").
//		WithAuth(server.AuthConfig{Token: "dev"}).
//		WithLogger(logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
