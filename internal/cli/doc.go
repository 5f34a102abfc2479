// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the aina command line with cobra.
//
// # Commands
//
//	aina                          open the chat interface
//	aina ask [question]           one question, answer on stdout
//	aina chat                     line-mode chat with history
//	aina conversations list       grouped by Today, Yesterday, This week, Older
//	aina conversations history|rename|delete|export <id>
//	aina preview <title-or-path>  signed link to a source document
//	aina config show|path|init|get|set
//	aina auth status|login|logout
//	aina sandbox                  local in-memory backend
//	aina version
//
// # Global Flags
//
//	--config   config file (default ~/.aina/config.toml)
//	--server   backend base URL
//	--agent    doc, finance, vision or search
//	--verbose  debug logging
//
// Output is plain when stdout is not a terminal, and most commands accept
// --json for scripting. Exit codes: 0 success, 1 error, 2 usage, 3 not
// signed in or token rejected, 4 backend error.
package cli
