// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/auth"
)

func TestExplainError(t *testing.T) {
	failed := func(status int, cause error) error {
		return &api.RequestFailed{Op: api.OpList, Status: status, Cause: cause}
	}
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"no token", failed(0, auth.ErrNoToken), CategoryAuth},
		{"expired", fmt.Errorf("load: %w", auth.ErrTokenExpired), CategoryAuth},
		{"timeout", failed(0, context.DeadlineExceeded), CategoryTimeout},
		{"too large", failed(200, api.ErrResponseTooLarge), CategoryLimit},
		{"bad document", api.ErrInvalidDocumentID, CategoryNotFound},
		{"unauthorized", failed(401, errors.New("nope")), CategoryAuth},
		{"not found", failed(404, errors.New("gone")), CategoryNotFound},
		{"rate limited", failed(429, errors.New("slow down")), CategoryLimit},
		{"server", failed(503, errors.New("down")), CategoryServer},
		{"network", failed(0, &net.OpError{Op: "dial", Err: errors.New("refused")}), CategoryNetwork},
		{"other", errors.New("weird"), CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExplainError(tt.err).Category)
		})
	}
}

func TestErrorNotice(t *testing.T) {
	assert.Empty(t, ErrorNotice(nil))
	err := &api.RequestFailed{Op: api.OpDelete, Status: 404, Cause: errors.New("missing")}
	assert.Equal(t, "Not found: delete conversation failed (HTTP 404): missing", ErrorNotice(err))
}

func TestToast(t *testing.T) {
	toast := NewToast(ToastSuccess, "Copied")
	assert.Equal(t, DefaultToastDuration, toast.Duration)
	assert.False(t, toast.Expired(toast.CreatedAt))
	assert.True(t, toast.Expired(toast.CreatedAt.Add(DefaultToastDuration)))
	assert.Contains(t, toast.Render(), "Copied")

	errToast := ErrorToast(&api.RequestFailed{Op: api.OpList, Status: 500, Cause: errors.New("boom")})
	assert.Equal(t, ToastError, errToast.Kind)
	assert.Equal(t, ErrorToastDuration, errToast.Duration)
	assert.Contains(t, errToast.Message, "Server error")
	assert.Contains(t, errToast.Message, "Try again later")

	assert.True(t, Toast{}.Expired(time.Now()))
}
