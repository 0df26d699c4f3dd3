package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds scan statistics for display.
type Stats struct {
	Scans        uint64
	PairsChecked int
	TotalFound   int
	Errors       uint64
	LastScan     time.Time
	LastDuration time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	last := "never"
	if !s.stats.LastScan.IsZero() {
		last = s.stats.LastScan.Format("15:04:05")
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Scans: %s  │  Pairs checked: %s  │  Found: %s  │  Errors: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.PairsChecked)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.TotalFound)),
			errorsDisplay,
		) +
		fmt.Sprintf("Last scan: %s  │  Took: %s",
			valueStyle.Render(last),
			valueStyle.Render(s.stats.LastDuration.Round(time.Millisecond).String()),
		)
}
