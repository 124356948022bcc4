package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewlink/crewlink/internal/identity"
	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/timeutil"
	"github.com/crewlink/crewlink/internal/tui/styles"
)

// chatView renders the open conversation transcript.
type chatView struct {
	theme          styles.Theme
	msgStyles      styles.MessageStyles
	showTimestamps bool
	selfID         string

	conversation *models.Conversation
	messages     []models.Message
	generation   uint64
	rendered     bool

	vp     viewport.Model
	width  int
	height int
}

func newChatView(theme styles.Theme, showTimestamps bool, selfID string) chatView {
	return chatView{
		theme:          theme,
		msgStyles:      styles.NewMessageStyles(theme),
		showTimestamps: showTimestamps,
		selfID:         selfID,
		vp:             viewport.New(0, 0),
	}
}

func (v *chatView) setConversation(c *models.Conversation) {
	v.conversation = c
	v.messages = nil
	v.generation = 0
	v.rendered = false
}

// setMessages swaps in a transcript snapshot. The generation counter
// makes unchanged refreshes free: same generation, no re-render.
func (v *chatView) setMessages(msgs []models.Message, generation uint64) {
	if v.rendered && generation == v.generation {
		return
	}
	atBottom := v.vp.AtBottom()
	v.messages = msgs
	v.generation = generation
	v.rebuild()
	if atBottom || !v.rendered {
		v.vp.GotoBottom()
	}
	v.rendered = true
}

func (v *chatView) setShowTimestamps(show bool) {
	if v.showTimestamps == show {
		return
	}
	v.showTimestamps = show
	v.rebuild()
}

func (v *chatView) resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width = width
	v.height = height
	v.vp.Width = maxInt(0, width-2)
	v.vp.Height = maxInt(0, height-3)
	v.rebuild()
}

func (v *chatView) scrollUp()   { v.vp.HalfViewUp() }
func (v *chatView) scrollDown() { v.vp.HalfViewDown() }

func (v *chatView) rebuild() {
	inner := maxInt(8, v.width-4)
	now := time.Now()

	var sections []string
	for _, group := range timeutil.GroupByDay(v.messages, now) {
		sections = append(sections, v.msgStyles.RenderDaySeparator(group.Label, inner))
		for _, msg := range group.Messages {
			sections = append(sections, v.renderMessage(msg, inner))
		}
	}
	if len(sections) == 0 {
		sections = append(sections, v.theme.MutedStyle().Render("No messages yet. Say hello."))
	}
	v.vp.SetContent(strings.Join(sections, "\n"))
}

func (v *chatView) renderMessage(msg models.Message, width int) string {
	if msg.Type == models.MessageTypeSystem {
		return v.msgStyles.RenderBubble(styles.Bubble{
			Content: msg.Content,
			System:  true,
		}, width)
	}

	side := styles.SideLeft
	if identity.IsSelf(msg.Sender, v.selfID) {
		side = styles.SideRight
	}

	content := msg.Content
	if card := renderProductCard(msg.Metadata); card != "" {
		content = card + "\n" + content
	}

	bubble := styles.Bubble{
		Content: content,
		Side:    side,
		Pending: msg.SendState == models.SendPending,
		Failed:  msg.SendState == models.SendFailed,
	}
	if v.showTimestamps && msg.SendState == models.SendConfirmed {
		bubble.Timestamp = timeutil.Clock(msg.CreatedAt)
	}
	return v.msgStyles.RenderBubble(bubble, width)
}

// renderProductCard summarizes an attached listing from message metadata.
func renderProductCard(meta models.Metadata) string {
	if meta.IsZero() {
		return ""
	}
	title, ok := meta.StringField(models.MetaTitle)
	if !ok || strings.TrimSpace(title) == "" {
		return ""
	}
	card := "[" + title
	if price, ok := meta.StringField(models.MetaPrice); ok && price != "" {
		card += " - " + price
	}
	card += "]"
	if url, ok := meta.StringField(models.MetaURL); ok && url != "" {
		card += "\n" + url
	}
	return card
}

func (v *chatView) render() string {
	if v.width <= 0 {
		return ""
	}

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(v.theme.Borders.InactivePane)).
		Width(maxInt(0, v.width-2)).
		Height(maxInt(0, v.height-2))

	header := v.renderHeader(maxInt(1, v.width-4))
	return frame.Render(header + "\n" + v.vp.View())
}

func (v *chatView) renderHeader(width int) string {
	if v.conversation == nil {
		return v.theme.MutedStyle().Render(strings.Repeat("─", maxInt(0, width)))
	}

	title := conversationTitle(*v.conversation, v.selfID)
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color(v.theme.Base.Accent)).
		Render(title)

	right := contextLabel(v.conversation.Context)
	if v.conversation.NoReply {
		right = "receive-only"
	}
	right = v.theme.MutedStyle().Render(right)

	gap := maxInt(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return truncateVis(left+strings.Repeat(" ", gap)+right, width)
}

// lastFailedID finds the most recent failed optimistic entry, the target
// of the retry key.
func (v *chatView) lastFailedID(msgs []models.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].SendState == models.SendFailed {
			return msgs[i].ID, true
		}
	}
	return "", false
}

// newestOwnConfirmedID finds the newest confirmed message the session
// user sent, the target of the delete key.
func (v *chatView) newestOwnConfirmedID(msgs []models.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].SendState == models.SendConfirmed && identity.IsSelf(msgs[i].Sender, v.selfID) {
			return msgs[i].ID, true
		}
	}
	return "", false
}
