package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/timeutil"
	"github.com/crewlink/crewlink/internal/tui/styles"
)

// listView renders the conversation list pane.
type listView struct {
	theme   styles.Theme
	compact bool
	selfID  string

	rows        []models.Conversation
	pinned      map[string]bool
	cursor      int
	top         int
	unreadTotal int

	focused bool
	width   int
	height  int
}

func newListView(theme styles.Theme, compact bool, selfID string) listView {
	return listView{theme: theme, compact: compact, selfID: selfID, focused: true}
}

func (v *listView) setConversations(rows []models.Conversation) {
	v.rows = orderRows(rows, v.pinned)
	if v.cursor >= len(v.rows) {
		v.cursor = maxInt(0, len(v.rows)-1)
	}
}

// orderRows floats pinned conversations to the top, keeping the server
// ordering within each group.
func orderRows(rows []models.Conversation, pinned map[string]bool) []models.Conversation {
	if len(pinned) == 0 {
		return rows
	}
	out := make([]models.Conversation, 0, len(rows))
	for _, c := range rows {
		if pinned[c.ID] {
			out = append(out, c)
		}
	}
	for _, c := range rows {
		if !pinned[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func (v *listView) setPinned(pinned map[string]bool) { v.pinned = pinned }

func (v *listView) setCompact(compact bool) { v.compact = compact }

func (v *listView) setUnreadTotal(total int) { v.unreadTotal = total }

func (v *listView) setFocused(focused bool) { v.focused = focused }

func (v *listView) resize(width, height int) {
	v.width = width
	v.height = height
}

func (v *listView) moveCursor(delta int) {
	v.cursorTo(v.cursor + delta)
}

func (v *listView) cursorTo(index int) {
	if len(v.rows) == 0 {
		v.cursor = 0
		return
	}
	v.cursor = clampInt(index, 0, len(v.rows)-1)
}

func (v *listView) selected() (models.Conversation, bool) {
	if len(v.rows) == 0 || v.cursor >= len(v.rows) {
		return models.Conversation{}, false
	}
	return v.rows[v.cursor], true
}

func (v *listView) render() string {
	if v.width <= 0 {
		return ""
	}

	borderColor := v.theme.Borders.InactivePane
	if v.focused {
		borderColor = v.theme.Borders.ActivePane
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(maxInt(0, v.width-2)).
		Height(maxInt(0, v.height-2))

	innerWidth := maxInt(1, v.width-4)
	if len(v.rows) == 0 {
		return frame.Render(v.theme.MutedStyle().Render("No conversations yet"))
	}

	rowHeight := 2
	if v.compact {
		rowHeight = 1
	}
	visible := maxInt(1, (v.height-2)/rowHeight)
	v.ensureVisible(visible)

	lines := make([]string, 0, v.height)
	for i := v.top; i < len(v.rows) && i < v.top+visible; i++ {
		lines = append(lines, v.renderRow(v.rows[i], i == v.cursor, innerWidth)...)
	}
	return frame.Render(strings.Join(lines, "\n"))
}

func (v *listView) ensureVisible(visible int) {
	if v.cursor < v.top {
		v.top = v.cursor
	}
	if v.cursor >= v.top+visible {
		v.top = v.cursor - visible + 1
	}
	if v.top < 0 {
		v.top = 0
	}
}

// renderRow is one list entry: partner name, unread badge and activity
// time on the first line, context title and last message on the second.
func (v *listView) renderRow(c models.Conversation, selected bool, width int) []string {
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(v.theme.Base.Foreground))
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(lipgloss.Color(v.theme.Chrome.SelectedItem))
	}
	if c.UnreadCount > 0 {
		nameStyle = nameStyle.Bold(true)
	}

	name := conversationTitle(c, v.selfID)
	if v.pinned[c.ID] {
		name = "* " + name
	}
	badge := ""
	if c.UnreadCount > 0 {
		badge = lipgloss.NewStyle().
			Foreground(lipgloss.Color(v.theme.Chrome.UnreadBadge)).
			Bold(true).
			Render(fmt.Sprintf(" (%d)", c.UnreadCount))
	}

	when := v.theme.MutedStyle().Render(timeutil.Relative(conversationActivity(c), time.Now()))

	first := nameStyle.Render(truncate(name, maxInt(1, width-lipgloss.Width(badge)-lipgloss.Width(when)-1))) + badge
	gap := maxInt(1, width-lipgloss.Width(first)-lipgloss.Width(when))
	first = first + strings.Repeat(" ", gap) + when

	if v.compact {
		return []string{truncateVis(first, width)}
	}

	second := previewLine(c)
	return []string{
		truncateVis(first, width),
		v.theme.MutedStyle().Render(truncate(second, width)),
	}
}

// conversationTitle is the list label: the other participant, falling
// back to the conversation id for system conversations.
func conversationTitle(c models.Conversation, selfID string) string {
	if other, ok := c.OtherParticipant(selfID); ok {
		return other.DisplayName()
	}
	return "Conversation " + c.ID
}

func conversationActivity(c models.Conversation) time.Time {
	if c.LastMessage != nil && !c.LastMessage.CreatedAt.IsZero() {
		return c.LastMessage.CreatedAt
	}
	return c.UpdatedAt
}

func previewLine(c models.Conversation) string {
	var parts []string
	if label := contextLabel(c.Context); label != "" {
		parts = append(parts, label)
	}
	if c.LastMessage != nil {
		preview := strings.ReplaceAll(c.LastMessage.Content, "\n", " ")
		parts = append(parts, preview)
	}
	if len(parts) == 0 {
		return "No messages yet"
	}
	return strings.Join(parts, " | ")
}

// contextLabel renders the marketplace origin of a conversation, e.g.
// "application: accepted".
func contextLabel(ctx *models.ConversationContext) string {
	if ctx == nil {
		return ""
	}
	label := string(ctx.Kind)
	if ctx.Status != "" {
		label += ": " + ctx.Status
	}
	return label
}

func truncateVis(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	// ANSI-aware hard cut.
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
