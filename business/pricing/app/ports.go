// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
)

// QuoteSource is the capability every exchange adapter provides. Adapters
// return normalized BASE/QUOTE symbols only.
type QuoteSource interface {
	// Name returns the exchange identifier. It never fails.
	Name() string

	// FetchOne retrieves the latest quote for a single pair.
	FetchOne(ctx context.Context, pair string) (domain.Quote, error)

	// FetchAll retrieves the latest quote for every pair the exchange lists.
	FetchAll(ctx context.Context) ([]domain.Quote, error)

	// ListAvailablePairs returns the active spot pairs.
	ListAvailablePairs(ctx context.Context) ([]string, error)
}

// StatusReporter is implemented by sources that can report their own health,
// e.g. circuit breaker state.
type StatusReporter interface {
	Status() (healthy bool, detail string)
}

// SourceNames returns the names of sources in order.
func SourceNames(sources []QuoteSource) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}
