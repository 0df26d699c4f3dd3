package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SourceStatus is the health of one exchange.
type SourceStatus struct {
	Name    string
	Healthy bool
	Detail  string
	Failed  bool // failed during the last scan
}

// StatusComponent renders exchange status.
type StatusComponent struct {
	sources []SourceStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the statuses, keeping the failed flags of known sources.
func (s *StatusComponent) Update(statuses []SourceStatus) {
	failed := make(map[string]bool, len(s.sources))
	for _, src := range s.sources {
		failed[src.Name] = src.Failed
	}
	for i := range statuses {
		statuses[i].Failed = statuses[i].Failed || failed[statuses[i].Name]
	}
	s.sources = statuses
}

// MarkFailed flags the named sources as failed in the last scan and clears
// the flag on the rest.
func (s *StatusComponent) MarkFailed(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	for i := range s.sources {
		_, s.sources[i].Failed = set[s.sources[i].Name]
	}
}

// Healthy returns how many sources are healthy and answered the last scan.
func (s *StatusComponent) Healthy() int {
	n := 0
	for _, src := range s.sources {
		if src.Healthy && !src.Failed {
			n++
		}
	}
	return n
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("EXCHANGES"))
	b.WriteString("\n\n")

	if len(s.sources) == 0 {
		b.WriteString(mutedStyle.Render("  Waiting for first scan..."))
		return b.String()
	}

	for _, src := range s.sources {
		icon, style := "●", okStyle
		switch {
		case !src.Healthy:
			icon, style = "○", downStyle
		case src.Failed:
			icon, style = "◐", warnStyle
		}
		detail := src.Detail
		if src.Failed && src.Healthy {
			detail = "last scan failed"
		}
		b.WriteString("  ")
		b.WriteString(style.Render(icon + " " + src.Name))
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render(detail))
		b.WriteString("\n")
	}
	return b.String()
}
