package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette holds the colors of one theme
type palette struct {
	accent    lipgloss.Color
	secondary lipgloss.Color
	text      lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	errorFg   lipgloss.Color
	border    lipgloss.Color
}

var (
	darkPalette = palette{
		accent:    lipgloss.Color("#00FFFF"),
		secondary: lipgloss.Color("#FF00FF"),
		text:      lipgloss.Color("#FFFFFF"),
		muted:     lipgloss.Color("#B0B0B0"),
		success:   lipgloss.Color("#39FF14"),
		errorFg:   lipgloss.Color("#FF5555"),
		border:    lipgloss.Color("#FF00FF"),
	}

	lightPalette = palette{
		accent:    lipgloss.Color("#0057B8"),
		secondary: lipgloss.Color("#C13584"),
		text:      lipgloss.Color("#1A1A1A"),
		muted:     lipgloss.Color("#6B6B6B"),
		success:   lipgloss.Color("#1E7B34"),
		errorFg:   lipgloss.Color("#C62828"),
		border:    lipgloss.Color("#C13584"),
	}
)

// Styles are the rendered styles of one theme
type Styles struct {
	Title   lipgloss.Style
	Intro   lipgloss.Style
	Input   lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	URL     lipgloss.Style
	Caption lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles builds the styles for theme
func NewStyles(theme Theme) Styles {
	p := darkPalette
	if theme == ThemeLight {
		p = lightPalette
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(p.secondary).
			Bold(true).
			Padding(0, 1),
		Intro: lipgloss.NewStyle().
			Foreground(p.text),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 2),
		Label: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		URL: lipgloss.NewStyle().
			Foreground(p.text).
			Underline(true),
		Caption: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(p.errorFg).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(p.success),
		Muted: lipgloss.NewStyle().
			Foreground(p.muted),
		Help: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(1, 0, 0, 1),
	}
}
