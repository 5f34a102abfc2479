// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the Aïna backend.
//
// It covers the conversation store (list, history, rename, delete), the four
// agent endpoints and the signed-URL document preview. Every request carries
// a bearer token from an auth.TokenSource and an X-Request-ID.
//
// # Errors
//
// All failures are returned as *RequestFailed with the operation name, the
// HTTP status (0 when there was no response) and the cause. Nothing is
// retried; callers decide.
//
// # Agents
//
//	doc      POST /api/rag             {question, top_k: 3, conversation_id}
//	finance  POST /api/finance         {query, top: 10, conversation_id}
//	vision   POST /askVisionQuestion   {question, conversation_id}
//	search   POST /api/search          {prompt, conversation_id}
//
// # Usage
//
//	client := api.NewClient(cfg.Server.URL, tokens).
//	    WithRateLimit(cfg.Server.RequestsPerSecond, cfg.Server.Burst).
//	    WithLogger(logger)
//	resp, err := client.SendQuery(ctx, api.QueryRequest{Agent: model.AgentFinance, Text: "Q3 revenue"})
package api
