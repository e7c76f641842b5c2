package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	primary     = lipgloss.Color("#00A278")
	muted       = lipgloss.Color("#7B8794")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles of the storefront screen
type Styles struct {
	Title    lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Price    lipgloss.Style
	Total    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the default styles
func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)

	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Pane:     pane,
		Focused:  pane.BorderForeground(accent),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Price:    lipgloss.NewStyle().Foreground(primary),
		Total:    lipgloss.NewStyle().Bold(true),
		Success:  lipgloss.NewStyle().Foreground(accent),
		Warning:  lipgloss.NewStyle().Foreground(warning),
		Error:    lipgloss.NewStyle().Foreground(destructive),
	}
}

func (s Styles) pane(focused bool) lipgloss.Style {
	if focused {
		return s.Focused
	}
	return s.Pane
}
