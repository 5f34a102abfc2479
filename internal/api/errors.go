// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Operation names used in RequestFailed.Op.
const (
	OpList    = "list conversations"
	OpHistory = "get history"
	OpRename  = "rename conversation"
	OpDelete  = "delete conversation"
	OpQuery   = "query"
	OpPreview = "preview"
)

// Local validation errors. They are wrapped in RequestFailed like any other
// failure of a backend operation.
var (
	ErrResponseTooLarge  = errors.New("response exceeded maximum size")
	ErrInvalidDocumentID = errors.New("document id does not decode to a blob URL")
	ErrUnknownAgent      = errors.New("unknown agent")
)

// RequestFailed is the single error kind for backend operations: transport
// errors, non-2xx statuses, undecodable bodies and missing tokens all end up
// here. Status is 0 when no HTTP response was received.
type RequestFailed struct {
	Op     string
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *RequestFailed) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %v", e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *RequestFailed) Unwrap() error { return e.Cause }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var rf *RequestFailed
	if errors.As(err, &rf) {
		return rf.Status
	}
	return 0
}

func failed(op string, status int, cause error) *RequestFailed {
	return &RequestFailed{Op: op, Status: status, Cause: cause}
}
