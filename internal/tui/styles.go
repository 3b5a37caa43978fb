package tui

import "github.com/charmbracelet/lipgloss"

// styles holds the lipgloss styles for one color scheme.
type styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Item     lipgloss.Style
	Cursor   lipgloss.Style
	Current  lipgloss.Style
	Muted    lipgloss.Style
	Controls lipgloss.Style
	Error    lipgloss.Style
	FlagOn   lipgloss.Style
}

// newStyles builds the style set for the light or dark scheme.
func newStyles(dark bool) styles {
	fg := lipgloss.Color("235")
	muted := lipgloss.Color("245")
	accent := lipgloss.Color("27")
	if dark {
		fg = lipgloss.Color("252")
		muted = lipgloss.Color("243")
		accent = lipgloss.Color("39")
	}

	return styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Section:  lipgloss.NewStyle().Bold(true).Foreground(fg),
		Item:     lipgloss.NewStyle().Foreground(fg),
		Cursor:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Current:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Controls: lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		FlagOn:   lipgloss.NewStyle().Bold(true).Foreground(accent),
	}
}
