// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the Aïna client.
//
// # Key Functions
//
// String Utilities:
//   - TruncateTitle: NFC-normalised title truncation used by the sidebar
//   - TruncateRunes: UTF-8 safe truncation with the ellipsis counted
//   - TruncateWidth, StringWidth, PadRight: terminal-column aware layout
//   - SanitizeFilename: file-name fragment for exported transcripts
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	label := util.TruncateTitle(summary.Title, 40)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
