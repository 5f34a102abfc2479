// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files.
//
// # Supported Formats
//
//   - md: Markdown with YAML front matter, tables and source lists
//   - json: the full transcript, machine-readable
//   - yaml: the same structure as JSON
//
// # Usage
//
//	t := export.NewTranscript(summary, agent, log)
//	path, err := export.Export(t, "md", &export.Options{OutputDir: dir})
//
// Files are named conversation_<title>_<yyyymmdd_hhmmss>.<ext>.
package export
