// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/aina-tui/internal/api"
	"github.com/jeranaias/aina-tui/internal/model"
	"github.com/jeranaias/aina-tui/internal/session"
	"github.com/jeranaias/aina-tui/internal/ui/components"
	"github.com/jeranaias/aina-tui/internal/ui/styles"
)

// Previewer resolves signed URLs for the sources of an answer.
type Previewer interface {
	PreviewSource(ctx context.Context, title, path string) (api.Preview, error)
}

// Options configures the chat model.
type Options struct {
	Controller *session.Controller
	Previewer  Previewer
	Theme      *styles.Theme
	Logger     *zap.Logger

	// InitialID is opened on start; "" starts a new conversation.
	InitialID string

	SidebarOpen   bool
	TitleMaxRunes int
	// TypingSpeed is the delay per revealed rune of a new answer.
	TypingSpeed time.Duration

	ExportDir    string
	ExportFormat string

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	// Now defaults to time.Now; it decides the sidebar groups.
	Now func() time.Time
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// confirmation is a pending y/n question in the status bar.
type confirmation struct {
	prompt string
	action tea.Cmd
}

// Model is the chat screen.
type Model struct {
	ctrl      *session.Controller
	previewer Previewer
	theme     *styles.Theme
	logger    *zap.Logger
	keys      KeyMap
	opts      Options

	sidebar    components.Sidebar
	viewport   components.ChatViewport
	input      components.InputArea
	completion components.CompletionPopup
	spinner    components.Spinner
	typewriter components.Typewriter
	markdown   *components.Markdown

	focus       focusArea
	sidebarOpen bool
	attachment  *api.Attachment
	sending     bool
	confirm     *confirmation
	toast       components.Toast
	info        string // command output shown under the transcript
	lastTyped   string // id of the last reply handed to the typewriter
	selecting   string // id of a selection started by this view

	rendered      map[string]string
	renderedWidth int

	width  int
	height int
}

// New creates the chat model.
func New(opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sidebar := components.NewSidebar()
	sidebar.SetTitleRunes(opts.TitleMaxRunes)

	return Model{
		ctrl:        opts.Controller,
		previewer:   opts.Previewer,
		theme:       opts.Theme,
		logger:      opts.Logger.Named("chat"),
		keys:        DefaultKeyMap(),
		opts:        opts,
		sidebar:     sidebar,
		viewport:    components.NewChatViewport(),
		input:       components.NewInputArea(),
		completion:  components.NewCompletionPopup(),
		spinner:     components.NewSpinner(),
		typewriter:  components.NewTypewriter(opts.TypingSpeed),
		markdown:    components.NewMarkdown(opts.Theme.GlamourStyle()),
		sidebarOpen: opts.SidebarOpen,
		rendered:    make(map[string]string),
		width:       80,
		height:      24,
	}
}

// Init loads the conversation list and the initial conversation.
func (m Model) Init() tea.Cmd {
	ctrl, id := m.ctrl, m.opts.InitialID
	return func() tea.Msg {
		return bootstrapDoneMsg{err: ctrl.Bootstrap(context.Background(), id)}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		mm, cmd := m.handleKey(msg)
		m = mm
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m.viewport, _ = m.viewport.Update(msg)
		return m, nil

	case bootstrapDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrSuperseded) {
			cmds = append(cmds, m.showError(msg.err))
		}

	case selectDoneMsg:
		if m.selecting == msg.id {
			m.selecting = ""
		}
		if msg.err != nil && !errors.Is(msg.err, session.ErrSuperseded) {
			cmds = append(cmds, m.showError(msg.err))
		}
		m.skipTyping()

	case sendDoneMsg:
		m.sending = false
		m.spinner.Stop()
		if msg.err != nil {
			cmds = append(cmds, m.showToast(components.ToastWarning, msg.err.Error()))
		}
		cmds = append(cmds, m.startTyping())

	case listDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		}

	case renameDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		} else {
			cmds = append(cmds, m.showToast(components.ToastSuccess, "Renamed to "+msg.title))
		}

	case deleteDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		} else {
			cmds = append(cmds, m.showToast(components.ToastSuccess, "Deleted "+msg.title))
		}

	case exportDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		} else {
			cmds = append(cmds, m.showToast(components.ToastSuccess, "Exported to "+msg.path))
		}

	case previewDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showError(msg.err))
		} else {
			m.info = previewInfo(msg.index, msg.preview)
		}

	case components.TypeTickMsg:
		var cmd tea.Cmd
		m.typewriter, cmd = m.typewriter.Update(msg)
		cmds = append(cmds, cmd)

	case components.ToastTickMsg:
		if !m.toast.Expired(msg.Time) {
			cmds = append(cmds, components.ToastTickCmd())
		} else {
			m.toast = components.Toast{}
		}

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.confirm != nil {
		c := m.confirm
		m.confirm = nil
		if s := msg.String(); s == "y" || s == "Y" {
			return m, c.action
		}
		cmd := m.showToast(components.ToastStatus, "Cancelled")
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen && m.focus == focusSidebar {
			m.toggleFocus()
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusInput && m.completion.Visible() {
			if text, ok := m.completion.Accept(); ok {
				m.input.SetValue(text)
			}
			return m, nil
		}
		if m.sidebarOpen {
			m.toggleFocus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		switch {
		case m.completion.Visible():
			m.completion.Clear()
		case m.typewriter.Typing():
			m.typewriter.Finish()
		case m.focus == focusSidebar:
			m.toggleFocus()
		default:
			m.info = ""
		}
		return m, nil
	}

	switch msg.String() {
	case "pgup", "pgdown", "ctrl+home", "ctrl+end":
		m.viewport, _ = m.viewport.Update(msg)
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) toggleFocus() {
	if m.focus == focusSidebar {
		m.focus = focusInput
		m.input.Focus()
		return
	}
	m.focus = focusSidebar
	m.input.Blur()
	m.completion.Clear()
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.Move(1)
	case key.Matches(msg, m.keys.Submit):
		if sel, ok := m.sidebar.Selected(); ok {
			cmd := m.selectConversation(sel.ID)
			return m, cmd
		}
	case key.Matches(msg, m.keys.NewChat):
		cmd := m.newConversation()
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		if sel, ok := m.sidebar.Selected(); ok {
			m.askDelete(sel)
		}
	case key.Matches(msg, m.keys.Rename):
		if sel, ok := m.sidebar.Selected(); ok {
			m.toggleFocus()
			m.input.SetValue("/rename " + sel.Title)
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.completion.Visible() {
		switch msg.String() {
		case "up":
			m.completion.Prev()
			return m, nil
		case "down":
			m.completion.Next()
			return m, nil
		}
	}

	if key.Matches(msg, m.keys.Submit) {
		value := m.input.Value()
		m.completion.Clear()
		return m.submit(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.completion.Update(m.input.Value())
	return m, cmd
}

// submit runs a slash command or sends a question.
func (m Model) submit(value string) (Model, tea.Cmd) {
	if isCommand(value) {
		m.input.Reset()
		return m.runCommand(value)
	}

	snap := m.ctrl.Snapshot()
	if m.sending || m.selecting != "" || snap.State == session.StateSending || snap.State == session.StateLoading {
		cmd := m.showToast(components.ToastWarning, "Wait for the current answer to finish")
		return m, cmd
	}
	if isBlank(value) && m.attachment == nil {
		return m, nil
	}

	ctrl, file := m.ctrl, m.attachment
	m.input.Reset()
	m.attachment = nil
	m.input.SetAttachment("")
	m.info = ""
	m.sending = true
	m.viewport.ScrollToBottom()

	send := func() tea.Msg {
		return sendDoneMsg{err: ctrl.Send(context.Background(), value, file)}
	}
	tick := m.spinner.Start()
	return m, tea.Batch(send, tick)
}

// =============================================================================
// CONTROLLER COMMANDS
// =============================================================================

func (m *Model) selectConversation(id string) tea.Cmd {
	m.selecting = id
	m.info = ""
	m.focus = focusInput
	m.input.Focus()
	ctrl := m.ctrl
	return func() tea.Msg {
		return selectDoneMsg{id: id, err: ctrl.SelectConversation(context.Background(), id)}
	}
}

func (m *Model) newConversation() tea.Cmd {
	m.ctrl.StartNewConversation()
	m.selecting = ""
	m.info = ""
	m.focus = focusInput
	m.input.Focus()
	return nil
}

func (m *Model) askDelete(target model.ConversationSummary) {
	ctrl, id, title := m.ctrl, target.ID, target.DisplayTitle()
	m.confirm = &confirmation{
		prompt: "Delete \"" + title + "\"? (y/n)",
		action: func() tea.Msg {
			return deleteDoneMsg{title: title, err: ctrl.Delete(context.Background(), id)}
		},
	}
}

func refreshCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return listDoneMsg{err: ctrl.RefreshList(context.Background())}
	}
}

// =============================================================================
// NOTICES AND TYPING
// =============================================================================

func (m *Model) showToast(kind components.ToastKind, message string) tea.Cmd {
	m.toast = components.NewToast(kind, message)
	return components.ToastTickCmd()
}

func (m *Model) showError(err error) tea.Cmd {
	m.logger.Debug("operation failed", zap.Error(err))
	m.toast = components.ErrorToast(err)
	return components.ToastTickCmd()
}

// startTyping hands a reply that arrived since the last send to the
// typewriter.
func (m *Model) startTyping() tea.Cmd {
	log := m.ctrl.Snapshot().Log
	if len(log) == 0 {
		return nil
	}
	last := log[len(log)-1]
	if last.IsUser || last.IsError || last.ID == m.lastTyped {
		return nil
	}
	m.lastTyped = last.ID
	return m.typewriter.Start(last.ID, components.TypingText(last))
}

// skipTyping marks the current log as already shown, so loaded history is
// never typed out.
func (m *Model) skipTyping() {
	m.typewriter.Finish()
	if reply, ok := model.LastReply(m.ctrl.Snapshot().Log); ok {
		m.lastTyped = reply.ID
	}
}
