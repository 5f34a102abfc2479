// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// Command describes one slash command of the chat input.
type Command struct {
	Name  string // with the leading slash
	Args  string
	Usage string
}

// Commands is every slash command the chat view understands.
var Commands = []Command{
	{Name: "/new", Usage: "start a new conversation"},
	{Name: "/agent", Args: "<doc|finance|vision|search>", Usage: "switch agent"},
	{Name: "/attach", Args: "<path>", Usage: "attach a file to the next message"},
	{Name: "/detach", Usage: "drop the pending attachment"},
	{Name: "/rename", Args: "<title>", Usage: "rename the active conversation"},
	{Name: "/delete", Usage: "delete the active conversation"},
	{Name: "/refresh", Usage: "reload the conversation list"},
	{Name: "/preview", Args: "<n>", Usage: "print the preview link of source n"},
	{Name: "/copy", Usage: "copy the last answer"},
	{Name: "/export", Args: "[md|json|yaml]", Usage: "save the conversation to a file"},
	{Name: "/help", Usage: "list commands"},
	{Name: "/quit", Usage: "exit"},
}

// LookupCommand returns the command named name, with or without its slash.
func LookupCommand(name string) (Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// MatchCommands returns the commands input could be completing, best first.
// Input that is not a lone slash word yields nothing.
func MatchCommands(input string) []Command {
	if !strings.HasPrefix(input, "/") || strings.ContainsAny(input, " \t") {
		return nil
	}
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	var out []Command
	for _, m := range FuzzyFilter(input, names) {
		c, _ := LookupCommand(m.Target)
		out = append(out, c)
	}
	return out
}

// CompletionPopup shows the commands matching the current input.
type CompletionPopup struct {
	items      []Command
	selected   int
	maxVisible int
}

// NewCompletionPopup returns an empty popup showing at most six rows.
func NewCompletionPopup() CompletionPopup {
	return CompletionPopup{maxVisible: 6}
}

// Update recomputes the candidates for input and resets the selection.
func (c *CompletionPopup) Update(input string) {
	c.items = MatchCommands(input)
	c.selected = 0
}

func (c *CompletionPopup) Clear() {
	c.items = nil
	c.selected = 0
}

func (c *CompletionPopup) Visible() bool {
	return len(c.items) > 0
}

func (c *CompletionPopup) Next() {
	if len(c.items) > 0 {
		c.selected = (c.selected + 1) % len(c.items)
	}
}

func (c *CompletionPopup) Prev() {
	if len(c.items) > 0 {
		c.selected = (c.selected - 1 + len(c.items)) % len(c.items)
	}
}

// Selected returns the highlighted command.
func (c *CompletionPopup) Selected() (Command, bool) {
	if len(c.items) == 0 {
		return Command{}, false
	}
	return c.items[c.selected], true
}

// Accept returns the input text for the highlighted command, with a trailing
// space when the command takes arguments.
func (c *CompletionPopup) Accept() (string, bool) {
	cmd, ok := c.Selected()
	if !ok {
		return "", false
	}
	c.Clear()
	if cmd.Args != "" {
		return cmd.Name + " ", true
	}
	return cmd.Name, true
}

func (c *CompletionPopup) View(theme *styles.Theme, width int) string {
	if len(c.items) == 0 {
		return ""
	}
	start := 0
	if c.selected >= c.maxVisible {
		start = c.selected - c.maxVisible + 1
	}
	end := min(start+c.maxVisible, len(c.items))

	var lines []string
	for i := start; i < end; i++ {
		cmd := c.items[i]
		name := cmd.Name
		if cmd.Args != "" {
			name += " " + cmd.Args
		}
		key := theme.ShortcutKey
		if i == c.selected {
			key = key.Reverse(true)
		}
		lines = append(lines, key.Render(name)+"  "+theme.ShortcutDesc.Render(cmd.Usage))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(lines, "\n"))
}

// HelpText lists every command, one per line.
func HelpText() string {
	var sb strings.Builder
	for i, c := range Commands {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(c.Name)
		if c.Args != "" {
			sb.WriteString(" " + c.Args)
		}
		sb.WriteString(" - " + c.Usage)
	}
	return sb.String()
}
