package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors for transcript bubbles.
type MessageColors struct {
	Own    string
	Other  string
	System string
}

// SendStateColors defines colors for delivery markers.
type SendStateColors struct {
	Pending string
	Failed  string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	UnreadBadge  string
}

// BorderColors defines border colors for pane state.
type BorderColors struct {
	ActivePane   string
	InactivePane string
	Divider      string
}

// Theme defines the CrewLink style tokens.
type Theme struct {
	Name string

	Base      BaseColors
	Message   MessageColors
	SendState SendStateColors
	Chrome    ChromeColors
	Borders   BorderColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default": DefaultTheme,
	"light":   LightTheme,
}

// Lookup returns the named theme, falling back to the default palette.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Own:    "81",
		Other:  "147",
		System: "214",
	},
	SendState: SendStateColors{
		Pending: "245",
		Failed:  "203",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
		UnreadBadge:  "203",
	},
	Borders: BorderColors{
		ActivePane:   "75",
		InactivePane: "240",
		Divider:      "238",
	},
}

// LightTheme favors legibility on light terminal backgrounds.
var LightTheme = Theme{
	Name: "light",
	Base: BaseColors{
		Background: "255",
		Foreground: "235",
		Muted:      "243",
		Accent:     "26",
		Border:     "250",
	},
	Message: MessageColors{
		Own:    "26",
		Other:  "90",
		System: "130",
	},
	SendState: SendStateColors{
		Pending: "243",
		Failed:  "160",
	},
	Chrome: ChromeColors{
		Header:       "25",
		Footer:       "24",
		SelectedItem: "26",
		UnreadBadge:  "160",
	},
	Borders: BorderColors{
		ActivePane:   "26",
		InactivePane: "250",
		Divider:      "252",
	},
}

func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

func (t Theme) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Accent))
}
