// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastStatus ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
)

const (
	// DefaultToastDuration is how long status and success toasts stay.
	DefaultToastDuration = 4 * time.Second
	// ErrorToastDuration is longer so errors can be read.
	ErrorToastDuration = 8 * time.Second
)

// Toast is a transient notice in the status bar.
type Toast struct {
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast with the default duration for its kind.
func NewToast(kind ToastKind, message string) Toast {
	d := DefaultToastDuration
	if kind == ToastError || kind == ToastWarning {
		d = ErrorToastDuration
	}
	return Toast{Message: message, Kind: kind, CreatedAt: time.Now(), Duration: d}
}

// ErrorToast creates an error toast describing err.
func ErrorToast(err error) Toast {
	hint := ExplainError(err)
	msg := ErrorNotice(err)
	if hint.Suggestion != "" {
		msg += ". " + hint.Suggestion
	}
	return NewToast(ToastError, msg)
}

// Expired reports whether the toast should be dismissed at now.
func (t Toast) Expired(now time.Time) bool {
	return t.Message == "" || !now.Before(t.CreatedAt.Add(t.Duration))
}

// Render renders the toast for the status bar.
func (t Toast) Render() string {
	switch t.Kind {
	case ToastError:
		return styles.RenderError(t.Message)
	case ToastWarning:
		return styles.RenderWarning(t.Message)
	case ToastSuccess:
		return styles.RenderSuccess(t.Message)
	default:
		return styles.RenderInfo(t.Message)
	}
}

// ToastTickMsg asks the view to drop expired toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd schedules the next expiry check.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}
