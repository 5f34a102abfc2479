// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/aina-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes a transcript as Markdown with YAML front matter.
type MarkdownExporter struct {
	options *Options
}

func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

type frontMatter struct {
	Title          string    `yaml:"title"`
	ConversationID string    `yaml:"conversation_id,omitempty"`
	Agent          string    `yaml:"agent"`
	LastActivity   string    `yaml:"last_activity,omitempty"`
	Messages       int       `yaml:"messages"`
	Exported       time.Time `yaml:"exported"`
	Generator      string    `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := t.Summary.DisplayTitle()

	if e.options.IncludeMetadata {
		fm := frontMatter{
			Title:          title,
			ConversationID: t.Summary.ID,
			Agent:          t.Agent.DisplayName(),
			Messages:       len(t.Messages),
			Exported:       t.ExportedAt,
			Generator:      "aina-tui",
		}
		if !t.Summary.LastActivity.IsZero() {
			fm.LastActivity = t.Summary.LastActivity.Format(time.RFC3339)
		}
		// yaml.v3 quotes anything that would otherwise break the block.
		data, err := yaml.Marshal(fm)
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(data)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, msg := range t.Messages {
		label := e.roleLabel(msg, t.Agent)
		if e.options.IncludeTimestamps && msg.Timestamp != nil {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatTimestamp(*msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		if msg.Attachment != "" {
			fmt.Fprintf(&sb, "> Attachment: `%s`\n\n", msg.Attachment)
		}
		if text := strings.TrimSpace(msg.Text); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
		if msg.HasTable() {
			sb.WriteString(markdownTable(msg.Rows))
			sb.WriteString("\n")
		}
		if msg.HasSources() {
			sb.WriteString("**Related documents**\n\n")
			for n, src := range msg.Sources {
				fmt.Fprintf(&sb, "%d. %s\n", n+1, sourceTitle(src))
			}
			sb.WriteString("\n")
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "*Exported from Aïna on %s*\n", t.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }

func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) roleLabel(msg model.Message, agent model.AgentType) string {
	switch {
	case msg.IsUser:
		return "You"
	case msg.IsError:
		return "Error"
	default:
		return agent.DisplayName()
	}
}

func sourceTitle(s model.Source) string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = s.Path
	}
	return escapeMarkdown(strings.TrimSuffix(title, ".pdf"))
}

// markdownTable renders rows as a GitHub table, columns from the first row.
func markdownTable(rows []model.Row) string {
	cols := model.Columns(rows)
	if len(cols) == 0 {
		return ""
	}
	var sb strings.Builder
	writeCells := func(values []string) {
		sb.WriteString("|")
		for _, v := range values {
			sb.WriteString(" " + escapeCell(v) + " |")
		}
		sb.WriteString("\n")
	}

	writeCells(cols)
	sb.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, r := range rows {
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = r.Cell(c)
		}
		writeCells(values)
	}
	return sb.String()
}

// escapeMarkdown escapes characters that break headings and list items and
// folds line breaks.
func escapeMarkdown(s string) string {
	return strings.NewReplacer(
		"\r", "",
		"\n", " ",
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
	).Replace(s)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
