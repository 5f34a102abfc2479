// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/util"
)

// ErrUnsupportedFormat is returned by ForFormat for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists the accepted format names.
var Formats = []string{"md", "json", "yaml"}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is what gets exported: a conversation summary and its log.
type Transcript struct {
	Summary  model.ConversationSummary `json:"conversation" yaml:"conversation"`
	Agent    model.AgentType           `json:"agent" yaml:"agent"`
	Messages []model.Message           `json:"messages" yaml:"messages"`

	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
}

// NewTranscript builds a transcript stamped with the current time. The
// message slice is copied.
func NewTranscript(summary model.ConversationSummary, agent model.AgentType, log []model.Message) *Transcript {
	return &Transcript{
		Summary:    summary,
		Agent:      agent,
		Messages:   append([]model.Message(nil), log...),
		ExportedAt: time.Now(),
	}
}

func (t *Transcript) validate() error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return errors.New("conversation has no messages")
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)

	// FileExtension includes the dot, e.g. ".md".
	FileExtension() string

	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds the front matter and summary section (Markdown).
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times when they are known.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForFormat returns the exporter for a format name: md (or markdown), json,
// yaml (or yml).
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s)", ErrUnsupportedFormat, format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// FileName is the name ExportToFile uses:
// conversation_<title>_<yyyymmdd_hhmmss><ext>.
func FileName(t *Transcript, ext string) string {
	return fmt.Sprintf("conversation_%s_%s%s",
		util.SanitizeFilename(t.Summary.DisplayTitle(), 50),
		t.ExportedAt.Format("20060102_150405"),
		ext,
	)
}

// ExportToFile exports t with exporter into opts.OutputDir and returns the
// written path.
func ExportToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, FileName(t, exporter.FileExtension()))
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0o644, 0o755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// The file exists either way; failing to open it is not an export error.
		_ = openFile(outputPath)
	}
	return outputPath, nil
}

// Export is ForFormat followed by ExportToFile.
func Export(t *Transcript, format string, opts *Options) (string, error) {
	exporter, err := ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(t, exporter, opts)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
