package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Side controls bubble alignment within the transcript column.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SideCenter
)

const (
	// PendingMarker suffixes a bubble whose send is still in flight.
	PendingMarker = "..."

	// FailedMarker suffixes a bubble whose send was rejected.
	FailedMarker = "! failed"

	maxBubbleShare = 3 // bubble takes at most 2/3 of the column
)

// MessageStyles contains pre-built styles for transcript rendering.
type MessageStyles struct {
	Theme Theme

	OwnBubble    lipgloss.Style
	OtherBubble  lipgloss.Style
	SystemLine   lipgloss.Style
	Timestamp    lipgloss.Style
	Pending      lipgloss.Style
	Failed       lipgloss.Style
	DaySeparator lipgloss.Style
}

// NewMessageStyles builds a reusable style set for the transcript.
func NewMessageStyles(theme Theme) MessageStyles {
	return MessageStyles{
		Theme: theme,
		OwnBubble: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Message.Own)).
			Padding(0, 1),
		OtherBubble: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Message.Other)).
			Padding(0, 1),
		SystemLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Message.System)).
			Italic(true),
		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Base.Muted)),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.SendState.Pending)).
			Faint(true),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.SendState.Failed)).
			Bold(true),
		DaySeparator: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Base.Muted)).
			Bold(true),
	}
}

// Bubble describes one transcript entry to render.
type Bubble struct {
	Content   string
	Side      Side
	System    bool
	Pending   bool
	Failed    bool
	Timestamp string
}

// RenderBubble renders one aligned bubble within the given column width.
func (s MessageStyles) RenderBubble(b Bubble, width int) string {
	if width < 8 {
		width = 8
	}

	if b.System {
		line := s.SystemLine.Render(WrapBody(b.Content, width-2))
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
	}

	bubbleWidth := width * 2 / maxBubbleShare
	if bubbleWidth < 8 {
		bubbleWidth = 8
	}

	style := s.OtherBubble
	align := lipgloss.Left
	if b.Side == SideRight {
		style = s.OwnBubble
		align = lipgloss.Right
	}

	body := WrapBody(b.Content, bubbleWidth-4)
	block := style.Render(body)

	var footer string
	switch {
	case b.Failed:
		footer = s.Failed.Render(FailedMarker)
	case b.Pending:
		footer = s.Pending.Render(PendingMarker)
	case b.Timestamp != "":
		footer = s.Timestamp.Render(b.Timestamp)
	}
	if footer != "" {
		block = lipgloss.JoinVertical(align, block, footer)
	}

	return lipgloss.PlaceHorizontal(width, align, block)
}

// RenderDaySeparator renders a centered "--- Today ---" style rule.
func (s MessageStyles) RenderDaySeparator(label string, width int) string {
	if width < 1 {
		return label
	}
	text := " " + label + " "
	side := (width - lipgloss.Width(text)) / 2
	if side < 2 {
		return s.DaySeparator.Render(text)
	}
	rule := strings.Repeat("─", side)
	return s.DaySeparator.Render(rule + text + rule)
}

// WrapBody wraps message text at the given width, preserving blank lines.
func WrapBody(body string, width int) string {
	if width < 1 {
		width = 1
	}
	return wordwrap.String(strings.TrimRight(body, "\n"), width)
}
