// Package tui implements the CrewLink terminal messenger on bubbletea:
// a conversation list pane, an open chat pane with a composer, and the
// navigation and background refresh wiring between them.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/crewlink/crewlink/internal/api"
	"github.com/crewlink/crewlink/internal/chat"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/nav"
	"github.com/crewlink/crewlink/internal/session"
	"github.com/crewlink/crewlink/internal/tui/styles"
)

// Config wires the messenger UI.
type Config struct {
	Client  *api.Client
	SelfID  string
	Session *session.Manager

	Theme          string
	ShowTimestamps bool
	CompactList    bool

	Polling chat.SchedulerConfig

	// InitialConversation deep-links straight into one chat.
	InitialConversation string
}

type focusArea int

const (
	focusList focusArea = iota
	focusComposer
)

// Model is the root bubbletea model.
type Model struct {
	conversations *chat.ConversationStore
	messages      *chat.MessageStore
	sender        *chat.Sender
	unread        *chat.UnreadCounter
	scheduler     *chat.Scheduler
	machine       *nav.Machine
	session       *session.Manager
	client        *api.Client
	logger        zerolog.Logger

	theme styles.Theme

	showTimestamps bool
	compact        bool
	pinned         map[string]bool

	list     listView
	chatPane chatView
	composer composerView

	focus  focusArea
	width  int
	height int

	statusErr string
	quitting  bool
}

// Messages delivered back into Update by commands and scheduler hooks.
type (
	conversationsRefreshedMsg struct{ err error }
	messagesRefreshedMsg      struct {
		conversationID string
		err            error
	}
	unreadRefreshedMsg struct {
		count int
		err   error
	}
	sendResultMsg struct {
		message models.Message
		err     error
	}
	markReadDoneMsg struct {
		conversationID string
		err            error
	}
)

// NewModel builds the root model and its engine stores.
func NewModel(cfg Config) *Model {
	logger := logging.Component("tui")
	theme := styles.Lookup(cfg.Theme)

	m := &Model{
		conversations:  chat.NewConversationStore(cfg.Client),
		messages:       chat.NewMessageStore(cfg.Client),
		unread:         chat.NewUnreadCounter(cfg.Client),
		machine:        nav.NewMachine(),
		session:        cfg.Session,
		client:         cfg.Client,
		logger:         logger,
		theme:          theme,
		showTimestamps: cfg.ShowTimestamps,
		compact:        cfg.CompactList,
		pinned:         make(map[string]bool),
	}
	if cfg.Session != nil {
		for _, id := range cfg.Session.Pinned() {
			m.pinned[id] = true
		}
	}
	m.sender = chat.NewSender(cfg.Client, m.messages, cfg.SelfID)
	m.list = newListView(theme, cfg.CompactList, cfg.SelfID)
	m.list.setPinned(m.pinned)
	m.chatPane = newChatView(theme, cfg.ShowTimestamps, cfg.SelfID)
	m.composer = newComposerView(theme)

	switch {
	case cfg.InitialConversation != "":
		m.machine.Dispatch(nav.Command{Kind: nav.Open, ConversationID: cfg.InitialConversation})
	case cfg.Session != nil && cfg.Session.LastConversation() != "":
		// Session restore: reopen where the previous run left off, with
		// the list still alongside.
		m.machine.Dispatch(nav.Command{Kind: nav.Open})
		m.machine.Dispatch(nav.Command{Kind: nav.Select, ConversationID: cfg.Session.LastConversation()})
	default:
		m.machine.Dispatch(nav.Command{Kind: nav.Open})
	}
	return m
}

// Run starts the messenger and blocks until it exits.
func Run(cfg Config) error {
	model := NewModel(cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background refresh works the engine stores directly and nudges the
	// UI to repaint afterwards.
	scheduler := chat.NewScheduler(cfg.Polling, chat.SchedulerHooks{
		RefreshConversations: func(ctx context.Context) {
			err := model.conversations.Refresh(ctx, chat.RefreshSilent)
			program.Send(conversationsRefreshedMsg{err: err})
		},
		RefreshMessages: func(ctx context.Context, conversationID string) {
			err := model.messages.Refresh(ctx, conversationID, chat.RefreshSilent)
			program.Send(messagesRefreshedMsg{conversationID: conversationID, err: err})
		},
		RefreshUnread: func(ctx context.Context) {
			count, err := model.unread.Refresh(ctx)
			program.Send(unreadRefreshedMsg{count: count, err: err})
		},
	})
	model.scheduler = scheduler
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	_, err := program.Run()

	if model.session != nil {
		_ = model.session.Close()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.refreshConversationsCmd(chat.RefreshVisible),
		m.refreshUnreadCmd(),
	}
	if state := m.machine.Current(); state.ChatOpen() {
		cmds = append(cmds, m.openConversationCmd(state.ConversationID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.layout()
		return m, nil

	case conversationsRefreshedMsg:
		m.noteErr("conversations", typed.err)
		m.list.setConversations(m.conversations.Conversations())
		return m, nil

	case messagesRefreshedMsg:
		if api.IsNotFound(typed.err) {
			return m, m.dropConversation(typed.conversationID)
		}
		m.noteErr("messages", typed.err)
		m.syncChatPane()
		return m, nil

	case unreadRefreshedMsg:
		m.noteErr("unread", typed.err)
		m.list.setUnreadTotal(m.unread.Count())
		return m, nil

	case sendResultMsg:
		if typed.err != nil {
			m.statusErr = "send failed: press ctrl+r to retry"
		}
		m.syncChatPane()
		return m, nil

	case markReadDoneMsg:
		if api.IsNotFound(typed.err) {
			return m, m.dropConversation(typed.conversationID)
		}
		if typed.err == nil {
			// The badge shrinks right away instead of on the next tick.
			return m, m.refreshUnreadCmd()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	// Blink ticks and other component messages flow to the composer.
	if m.focus == focusComposer {
		return m, m.composer.update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "tab":
		if m.machine.Current().ChatOpen() {
			if m.focus == focusList {
				m.setFocus(focusComposer)
			} else {
				m.setFocus(focusList)
			}
		}
		return m, nil
	case "esc":
		return m.handleBack()
	case "pgup":
		m.chatPane.scrollUp()
		return m, nil
	case "pgdown":
		m.chatPane.scrollDown()
		return m, nil
	}

	if m.focus == focusComposer && m.machine.Current().ChatOpen() {
		return m.handleComposerKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "j", "down":
		m.list.moveCursor(1)
	case "k", "up":
		m.list.moveCursor(-1)
	case "g":
		m.list.cursorTo(0)
	case "G":
		m.list.cursorTo(len(m.list.rows) - 1)
	case "r":
		return m, m.refreshConversationsCmd(chat.RefreshVisible)
	case "p":
		if selected, ok := m.list.selected(); ok {
			m.togglePin(selected.ID)
		}
	case "t":
		m.toggleTimestamps()
	case "c":
		m.toggleCompact()
	case "enter":
		selected, ok := m.list.selected()
		if !ok {
			return m, nil
		}
		m.machine.Dispatch(nav.Command{Kind: nav.Select, ConversationID: selected.ID})
		m.setFocus(focusComposer)
		return m, m.openConversationCmd(selected.ID)
	}
	return m, nil
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	conversationID := m.machine.Current().ConversationID

	switch msg.String() {
	case "enter":
		if c := m.chatPane.conversation; c != nil && c.NoReply {
			m.statusErr = "this conversation is receive-only"
			return m, nil
		}
		content := m.composer.value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		m.composer.reset()
		m.scheduler.SetTyping(false)
		if m.session != nil {
			m.session.DeleteDraft(conversationID)
		}
		return m, m.sendCmd(conversationID, content)

	case "ctrl+r":
		if tempID, ok := m.chatPane.lastFailedID(m.messages.Messages()); ok {
			m.statusErr = ""
			return m, m.retryCmd(conversationID, tempID)
		}
		return m, nil

	case "ctrl+d":
		if id, ok := m.chatPane.newestOwnConfirmedID(m.messages.Messages()); ok {
			m.messages.Tombstone(id)
			m.syncChatPane()
		}
		return m, nil
	}

	cmd := m.composer.update(msg)
	m.scheduler.SetTyping(m.composer.value() != "")
	if m.session != nil {
		m.session.SetDraft(session.Draft{ConversationID: conversationID, Body: m.composer.value()})
	}
	return m, cmd
}

func (m *Model) handleBack() (tea.Model, tea.Cmd) {
	state := m.machine.Current()
	if state.ChatOpen() {
		m.scheduler.SetTyping(false)
	}
	next := m.machine.Dispatch(nav.Command{Kind: nav.Back})
	if !next.ChatOpen() {
		m.messages.Close()
		m.scheduler.OpenConversation("")
		m.setFocus(focusList)
	}
	if next.Mode == nav.Closed {
		return m.quit()
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.scheduler.SetTyping(false)
	if m.session != nil {
		m.session.SetLastConversation(m.machine.Current().ConversationID)
	}
	return m, tea.Quit
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.composer.setFocused(f == focusComposer)
	m.list.setFocused(f == focusList)
	// The typing suspension tracks composer focus: a blurred composer
	// never holds up message polling, a refocused non-empty draft does.
	if f == focusComposer {
		m.scheduler.SetTyping(m.composer.value() != "")
	} else {
		m.scheduler.SetTyping(false)
	}
}

// dropConversation removes a conversation the server no longer knows
// about and closes its chat surface if it is the open one.
func (m *Model) dropConversation(conversationID string) tea.Cmd {
	m.logger.Info().Str("conversation_id", conversationID).Msg("conversation gone server-side, dropping")
	m.conversations.Remove(conversationID)
	m.list.setConversations(m.conversations.Conversations())
	m.statusErr = "conversation no longer exists"

	if m.machine.Current().ConversationID != conversationID {
		return nil
	}
	next := m.machine.Dispatch(nav.Command{Kind: nav.CloseChat})
	m.messages.Close()
	m.scheduler.OpenConversation("")
	m.chatPane.setConversation(nil)
	m.setFocus(focusList)
	if next.Mode == nav.Closed {
		m.quitting = true
		return tea.Quit
	}
	return nil
}

// openConversationCmd points every open-conversation consumer at the new
// id and kicks off the first transcript fetch plus the mark-read call.
func (m *Model) openConversationCmd(conversationID string) tea.Cmd {
	m.messages.Open(conversationID)
	m.scheduler.OpenConversation(conversationID)
	m.chatPane.setConversation(m.lookupConversation(conversationID))
	if m.session != nil {
		if draft, ok := m.session.Draft(conversationID); ok {
			m.composer.setValue(draft.Body)
		} else {
			m.composer.reset()
		}
	}
	if m.focus == focusComposer {
		// The restored draft decides the typing suspension, not whatever
		// the composer held before the switch.
		m.scheduler.SetTyping(m.composer.value() != "")
	}
	return tea.Batch(
		m.refreshMessagesCmd(conversationID, chat.RefreshVisible),
		m.markReadCmd(conversationID),
	)
}

func (m *Model) refreshConversationsCmd(mode chat.RefreshMode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return conversationsRefreshedMsg{err: m.conversations.Refresh(ctx, mode)}
	}
}

func (m *Model) refreshMessagesCmd(conversationID string, mode chat.RefreshMode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := m.messages.Refresh(ctx, conversationID, mode)
		return messagesRefreshedMsg{conversationID: conversationID, err: err}
	}
}

func (m *Model) refreshUnreadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		count, err := m.unread.Refresh(ctx)
		return unreadRefreshedMsg{count: count, err: err}
	}
}

func (m *Model) sendCmd(conversationID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		message, err := m.sender.Send(ctx, conversationID, content)
		return sendResultMsg{message: message, err: err}
	}
}

func (m *Model) retryCmd(conversationID, tempID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		message, err := m.sender.Retry(ctx, conversationID, tempID)
		return sendResultMsg{message: message, err: err}
	}
}

func (m *Model) markReadCmd(conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := m.client.MarkRead(ctx, conversationID)
		if err != nil {
			m.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("mark read failed")
		}
		return markReadDoneMsg{conversationID: conversationID, err: err}
	}
}

// togglePin flips a conversation's pinned flag, reorders the list and
// persists the pin set.
func (m *Model) togglePin(conversationID string) {
	if m.pinned[conversationID] {
		delete(m.pinned, conversationID)
	} else {
		m.pinned[conversationID] = true
	}
	m.list.setPinned(m.pinned)
	m.list.setConversations(m.conversations.Conversations())
	if m.session == nil {
		return
	}
	ids := make([]string, 0, len(m.pinned))
	for id := range m.pinned {
		ids = append(ids, id)
	}
	m.session.SetPinned(ids)
}

func (m *Model) toggleTimestamps() {
	m.showTimestamps = !m.showTimestamps
	m.chatPane.setShowTimestamps(m.showTimestamps)
	m.savePreferences()
}

func (m *Model) toggleCompact() {
	m.compact = !m.compact
	m.list.setCompact(m.compact)
	m.savePreferences()
}

func (m *Model) savePreferences() {
	if m.session == nil {
		return
	}
	m.session.SetPreferences(session.Preferences{
		ShowTimestamps: m.showTimestamps,
		CompactList:    m.compact,
	})
}

func (m *Model) syncChatPane() {
	m.chatPane.setMessages(m.messages.Messages(), m.messages.Generation())
}

func (m *Model) lookupConversation(conversationID string) *models.Conversation {
	conversation, err := m.conversations.Conversation(conversationID)
	if err != nil {
		return nil
	}
	return &conversation
}

func (m *Model) noteErr(what string, err error) {
	if err == nil {
		if strings.HasPrefix(m.statusErr, what) {
			m.statusErr = ""
		}
		return
	}
	m.statusErr = fmt.Sprintf("%s refresh failed: showing last known data", what)
	m.logger.Warn().Err(err).Str("surface", what).Msg("refresh failed")
}

func (m *Model) layout() {
	header := 1
	footer := 1
	content := maxInt(0, m.height-header-footer)

	state := m.machine.Current()
	widths := computePaneWidths(m.width, state)
	m.list.resize(widths.list, content)
	m.chatPane.resize(widths.chat, maxInt(0, content-m.composer.height()))
	m.composer.resize(widths.chat)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	m.layout()
	state := m.machine.Current()

	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	switch {
	case state.ListOpen() && state.ChatOpen():
		chatCol := lipgloss.JoinVertical(lipgloss.Left, m.chatPane.render(), m.composer.render())
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.list.render(), chatCol)
	case state.ChatOpen():
		body = lipgloss.JoinVertical(lipgloss.Left, m.chatPane.render(), m.composer.render())
	default:
		body = m.list.render()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "CrewLink"
	right := ""
	if total := m.unread.Count(); total > 0 {
		right = fmt.Sprintf("%d unread", total)
	}
	gap := maxInt(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return style.Width(maxInt(0, m.width)).Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Padding(0, 1)

	base := "enter select/send  tab focus  esc back  ctrl+r retry  ctrl+d delete  q quit"
	if m.statusErr != "" {
		base = m.statusErr
	}
	return style.Width(maxInt(0, m.width)).Render(truncate(base, maxInt(0, m.width-2)))
}

type paneWidths struct {
	list int
	chat int
}

const (
	minListWidth   = 24
	maxListWidth   = 44
	minChatWidth   = 36
	narrowCutoverW = 70
)

// computePaneWidths splits the window between the list and chat columns,
// degrading to a single column on narrow terminals.
func computePaneWidths(total int, state nav.State) paneWidths {
	if !state.ChatOpen() {
		return paneWidths{list: total}
	}
	if !state.ListOpen() {
		return paneWidths{chat: total}
	}
	if total < narrowCutoverW {
		// Too narrow for both: the chat wins, list collapses.
		return paneWidths{chat: total}
	}
	list := clampInt(total/3, minListWidth, maxListWidth)
	chat := total - list
	if chat < minChatWidth {
		list = maxInt(0, total-minChatWidth)
		chat = total - list
	}
	return paneWidths{list: list, chat: chat}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:maxInt(0, width-1)]) + "…"
}
