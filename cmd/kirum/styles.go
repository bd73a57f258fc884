package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette for terminal output.
var (
	colorPrimary = lipgloss.Color("#8BC34A")
	colorAccent  = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#7a8290")
	colorError   = lipgloss.Color("#e53935")
)

// Styles holds the styled components of command output.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// newStyles builds styles bound to w, so colour is only emitted when w is a
// terminal.
func newStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		Label:  r.NewStyle().Width(16),
		Value:  r.NewStyle().Bold(true).Foreground(colorAccent),
		Muted:  r.NewStyle().Foreground(colorMuted),
		Status: r.NewStyle().Foreground(colorPrimary),
		Error:  r.NewStyle().Foreground(colorError),
	}
}
