package tui

import "github.com/charmbracelet/lipgloss"

// theme is the palette for one mode.
type theme struct {
	background lipgloss.Color

	title       lipgloss.Style
	subtle      lipgloss.Style
	info        lipgloss.Style
	err         lipgloss.Style
	button      lipgloss.Style
	card        lipgloss.Style
	cardTitle   lipgloss.Style
	primary     lipgloss.Style
	secondary   lipgloss.Style
	muted       lipgloss.Style
	border      lipgloss.Style
	tableHeader lipgloss.Style
	cell        lipgloss.Style
	badgeOK     lipgloss.Style
	badgeErr    lipgloss.Style
	errorCard   lipgloss.Style
}

var (
	darkPalette = palette{
		background: "#121212", surface: "#1E1E1E", text: "#FFFFFF", dim: "241",
		primary: "#90CAF9", secondary: "#CE93D8", error: "#F44336", errorBg: "#121212",
		buttonBg: "#2196F3", buttonFg: "#000000", border: "#424242",
	}
	lightPalette = palette{
		background: "#F7F7F7", surface: "#FFFFFF", text: "#000000", dim: "244",
		primary: "#1976D2", secondary: "#9C27B0", error: "#D32F2F", errorBg: "#FFE5E5",
		buttonBg: "#FF9800", buttonFg: "#FFFFFF", border: "#BDBDBD",
	}
)

type palette struct {
	background, surface, text, dim     lipgloss.Color
	primary, secondary, error, errorBg lipgloss.Color
	buttonBg, buttonFg, border         lipgloss.Color
}

func newTheme(dark bool) theme {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return theme{
		background: p.background,
		title: lipgloss.NewStyle().
			Foreground(p.text).
			Bold(true).
			Padding(0, 1),
		subtle: lipgloss.NewStyle().Foreground(p.dim),
		info:   lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		err:    lipgloss.NewStyle().Foreground(p.error),
		button: lipgloss.NewStyle().
			Foreground(p.buttonFg).
			Background(p.buttonBg).
			Bold(true).
			Padding(0, 2),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Background(p.surface).
			Padding(0, 1).
			Width(24),
		cardTitle: lipgloss.NewStyle().Foreground(p.text).Background(p.surface).Bold(true),
		primary:   lipgloss.NewStyle().Foreground(p.primary).Background(p.surface).Bold(true),
		secondary: lipgloss.NewStyle().Foreground(p.secondary).Background(p.surface).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(p.dim),
		border:    lipgloss.NewStyle().Foreground(p.border),
		tableHeader: lipgloss.NewStyle().
			Foreground(p.text).
			Bold(true).
			Padding(0, 1),
		cell:     lipgloss.NewStyle().Foreground(p.text).Padding(0, 1),
		badgeOK:  lipgloss.NewStyle().Foreground(p.primary).Padding(0, 1),
		badgeErr: lipgloss.NewStyle().Foreground(p.error).Padding(0, 1),
		errorCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.error).
			Background(p.errorBg).
			Padding(1, 2).
			Width(44).
			Align(lipgloss.Center),
	}
}
