// Package ui provides the Bubble Tea dashboard for watch mode.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the dashboard panels.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#10B981")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
)

var (
	// BoxStyle frames each panel.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// TitleStyle is the banner above the panels.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	// StatusConnected is the healthy state, StatusDisconnected a degraded one.
	StatusConnected    = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	StatusDisconnected = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	MutedValue  = lipgloss.NewStyle().Foreground(ColorMuted)
	PausedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	ErrorStyle  = lipgloss.NewStyle().Foreground(ColorDanger)
	HelpStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Padding(0, 1)
)
