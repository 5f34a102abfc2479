// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/jeranaias/aina-tui/internal/model"
)

// MaxAttachmentSize bounds files sent with a question.
const MaxAttachmentSize = 25 * 1024 * 1024

// Attachment is a file sent along with a question.
type Attachment struct {
	Name string
	Data []byte
}

// LoadAttachment reads a file for sending. Files over MaxAttachmentSize are
// rejected.
func LoadAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), MaxAttachmentSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Attachment{Name: filepath.Base(path), Data: data}, nil
}

// QueryRequest is one question for an agent.
type QueryRequest struct {
	Agent          model.AgentType
	Text           string
	ConversationID string
	File           *Attachment
}

// QueryResponse is an agent's answer. ConversationID is set when the
// backend reports one (always for the first message of a conversation).
type QueryResponse struct {
	Reply          model.Message
	ConversationID string
}

type agentResponse struct {
	Answer         string      `json:"answer"`
	Rows           []model.Row `json:"rows"`
	UsedDocs       []rawDoc    `json:"used_docs"`
	ConversationID string      `json:"conversation_id"`
}

// endpoint describes how one agent is called.
type endpoint struct {
	path      string
	textField string
	extra     map[string]any
}

var agentEndpoints = map[model.AgentType]endpoint{
	model.AgentDoc:     {path: "/api/rag", textField: "question", extra: map[string]any{"top_k": 3}},
	model.AgentFinance: {path: "/api/finance", textField: "query", extra: map[string]any{"top": 10}},
	model.AgentVision:  {path: "/askVisionQuestion", textField: "question"},
	model.AgentSearch:  {path: "/api/search", textField: "prompt"},
}

// EndpointPath returns the URL path used for an agent.
func EndpointPath(agent model.AgentType) (string, bool) {
	ep, ok := agentEndpoints[agent]
	return ep.path, ok
}

// payload builds the request fields for an agent.
func (ep endpoint) payload(text, conversationID string) map[string]any {
	fields := make(map[string]any, len(ep.extra)+2)
	fields[ep.textField] = text
	for k, v := range ep.extra {
		fields[k] = v
	}
	if conversationID != "" {
		fields["conversation_id"] = conversationID
	}
	return fields
}

// SendQuery sends a question to the agent's endpoint. With a file attached
// the same fields are sent as multipart/form-data.
func (c *Client) SendQuery(ctx context.Context, q QueryRequest) (QueryResponse, error) {
	op := OpQuery + " " + string(q.Agent)
	ep, ok := agentEndpoints[q.Agent]
	if !ok {
		return QueryResponse{}, failed(op, 0, fmt.Errorf("%w: %q", ErrUnknownAgent, q.Agent))
	}

	fields := ep.payload(q.Text, q.ConversationID)

	var (
		body        io.Reader
		contentType string
		err         error
	)
	if q.File != nil {
		body, contentType, err = multipartBody(fields, q.File)
	} else {
		body, err = jsonBody(fields)
		contentType = "application/json"
	}
	if err != nil {
		return QueryResponse{}, failed(op, 0, err)
	}

	var resp agentResponse
	err = c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        ep.path,
		body:        body,
		contentType: contentType,
	}, &resp)
	if err != nil {
		return QueryResponse{}, err
	}

	var rows []model.Row
	if q.Agent.KeepsRows() {
		rows = resp.Rows
	}
	reply := model.NewReplyMessage(resp.Answer, NormalizeSources(resp.UsedDocs), rows)
	reply.Route = string(q.Agent)

	return QueryResponse{Reply: reply, ConversationID: resp.ConversationID}, nil
}

func multipartBody(fields map[string]any, file *Attachment) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, formValue(fields[k])); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func formValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
