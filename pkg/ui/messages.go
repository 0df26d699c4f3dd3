package ui

import (
	"time"

	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// Message types for TUI updates

// ScanMsg is sent when a scan completes.
type ScanMsg struct {
	ID            string
	At            time.Time
	Duration      time.Duration
	Rows          []components.OpportunityRow
	TotalFound    int
	PairsChecked  int
	FailedSources []string
}

// SourceStatusMsg carries the health of every exchange.
type SourceStatusMsg struct {
	Sources []components.SourceStatus
}

// ErrorMsg is sent when a scan fails as a whole.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
