// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
)

// PairCatalog provides the pairs every reachable source lists.
type PairCatalog interface {
	ResolveCommonPairs(ctx context.Context) ([]string, error)
	Forget(ctx context.Context) error
}

// OpportunityScanner runs one arbitrage scan.
type OpportunityScanner interface {
	Execute(ctx context.Context, filters Filters) (*ScanResult, error)
}

// SourceStatus is the health of one exchange as seen by its client.
type SourceStatus struct {
	Name    string
	Healthy bool
	Detail  string
}

// Reporter defines the interface for presenting scan results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportScan presents a completed scan.
	ReportScan(result *ScanResult)

	// ReportError presents a scan that failed as a whole.
	ReportError(err error)

	// UpdateSourceStatus presents the latest health of each source.
	UpdateSourceStatus(statuses []SourceStatus)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Controls lets a reporter steer the running detector.
type Controls interface {
	// TogglePause pauses or resumes scanning and returns true when paused.
	TogglePause() bool

	// RefreshCatalog drops the cached common pairs and scans at once.
	RefreshCatalog()
}
