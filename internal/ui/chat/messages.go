// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/aina-tui/internal/api"
)

// bootstrapDoneMsg ends the initial list and history load.
type bootstrapDoneMsg struct {
	err error
}

// selectDoneMsg ends a SelectConversation call.
type selectDoneMsg struct {
	id  string
	err error
}

// sendDoneMsg ends a Send call. Failed sends show up in the log, so err is
// only set when the send was refused.
type sendDoneMsg struct {
	err error
}

// listDoneMsg ends a RefreshList call.
type listDoneMsg struct {
	err error
}

type renameDoneMsg struct {
	title string
	err   error
}

type deleteDoneMsg struct {
	title string
	err   error
}

type exportDoneMsg struct {
	path string
	err  error
}

type previewDoneMsg struct {
	index   int
	preview api.Preview
	err     error
}
