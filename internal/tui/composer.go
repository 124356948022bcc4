package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewlink/crewlink/internal/tui/styles"
)

const composerHeight = 3

// composerView is the message input box under the transcript.
type composerView struct {
	theme   styles.Theme
	ta      textarea.Model
	focused bool
	width   int
}

func newComposerView(theme styles.Theme) composerView {
	ta := textarea.New()
	ta.Placeholder = "Type a message"
	ta.Prompt = "> "
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	return composerView{theme: theme, ta: ta}
}

func (c *composerView) setFocused(focused bool) {
	c.focused = focused
	if focused {
		c.ta.Focus()
	} else {
		c.ta.Blur()
	}
}

func (c *composerView) resize(width int) {
	c.width = width
	c.ta.SetWidth(maxInt(1, width-4))
}

func (c *composerView) height() int { return composerHeight }

func (c *composerView) value() string { return c.ta.Value() }

func (c *composerView) setValue(s string) { c.ta.SetValue(s) }

func (c *composerView) reset() { c.ta.Reset() }

func (c *composerView) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.ta, cmd = c.ta.Update(msg)
	return cmd
}

func (c *composerView) render() string {
	if c.width <= 0 {
		return ""
	}
	borderColor := c.theme.Borders.InactivePane
	if c.focused {
		borderColor = c.theme.Borders.ActivePane
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(maxInt(0, c.width-2)).
		Render(c.ta.View())
}
