package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/domain"
	pricingApp "github.com/fd1az/arbitrage-scanner/business/pricing/app"
	pricingDomain "github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const tracerName = "github.com/fd1az/arbitrage-scanner/business/arbitrage/app"

// DefaultMinProfit is the minimum profit percent applied when none is given.
var DefaultMinProfit = decimal.RequireFromString("0.1")

// Filters narrow a scan result.
type Filters struct {
	MinProfit decimal.Decimal `json:"minProfit"`
	Top       *int            `json:"top,omitempty"`
}

// DefaultFilters returns a MinProfit of 0.1 percent and no Top limit.
func DefaultFilters() Filters {
	return Filters{MinProfit: DefaultMinProfit}
}

// ScanResult is the outcome of one arbitrage scan.
type ScanResult struct {
	ID            uuid.UUID            `json:"id"`
	ScannedAt     time.Time            `json:"scannedAt"`
	Duration      time.Duration        `json:"durationNs"`
	Opportunities []domain.Opportunity `json:"opportunities"`
	TotalFound    int                  `json:"totalFound"`
	PairsChecked  int                  `json:"pairsChecked"`
	Filters       Filters              `json:"filters"`
	FailedSources []string             `json:"failedSources"`
}

// Scanner finds arbitrage opportunities across every configured source.
type Scanner struct {
	sources []pricingApp.QuoteSource
	catalog PairCatalog
	fetcher *pricingApp.Fetcher
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time
}

// NewScanner creates a Scanner.
func NewScanner(sources []pricingApp.QuoteSource, catalog PairCatalog, fetcher *pricingApp.Fetcher, log logger.LoggerInterface) *Scanner {
	return &Scanner{
		sources: sources,
		catalog: catalog,
		fetcher: fetcher,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// Execute resolves the common pairs, pulls every source's full ticker once
// and ranks the opportunities found among the common pairs. Catalog errors
// are returned unchanged. A source that fails the bulk fetch is listed in
// FailedSources and its quotes are left out.
func (s *Scanner) Execute(ctx context.Context, filters Filters) (*ScanResult, error) {
	if len(s.sources) == 0 {
		return nil, pricingApp.NewConfigurationError("no exchange sources configured")
	}

	id := uuid.New()
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan",
		trace.WithAttributes(
			attribute.String("scan_id", id.String()),
			attribute.String("min_profit", filters.MinProfit.String()),
		))
	defer span.End()

	common, err := s.catalog.ResolveCommonPairs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "common pairs")
		return nil, err
	}

	values, failed, errs := pricingApp.FanOut(ctx, s.fetcher, s.sources,
		func(ctx context.Context, src pricingApp.QuoteSource) ([]pricingDomain.Quote, error) {
			return src.FetchAll(ctx)
		})
	for _, name := range failed {
		s.logger.Warn(ctx, "source excluded from scan", "scan_id", id, "source", name, "error", errs[name])
	}

	grouped := s.group(common, values)
	found := domain.FindOpportunities(grouped, filters.MinProfit)

	result := &ScanResult{
		ID:            id,
		ScannedAt:     started,
		Duration:      s.now().Sub(started),
		Opportunities: found,
		TotalFound:    len(found),
		PairsChecked:  len(common),
		Filters:       filters,
		FailedSources: failed,
	}
	if filters.Top != nil && *filters.Top > 0 && len(found) > *filters.Top {
		result.Opportunities = found[:*filters.Top]
	}
	if result.Opportunities == nil {
		result.Opportunities = []domain.Opportunity{}
	}

	span.SetAttributes(
		attribute.Int("pairs_checked", result.PairsChecked),
		attribute.Int("total_found", result.TotalFound),
		attribute.Int("failed_sources", len(failed)),
	)
	s.logger.Info(ctx, "arbitrage scan complete",
		"scan_id", id,
		"pairs_checked", result.PairsChecked,
		"total_found", result.TotalFound,
		"returned", len(result.Opportunities),
		"failed_sources", failed)

	return result, nil
}

// group collects quotes by common pair. Sources are walked in configuration
// order so equal prices resolve to the earlier source.
func (s *Scanner) group(common []string, values map[string][]pricingDomain.Quote) map[string][]pricingDomain.Quote {
	wanted := make(map[string]struct{}, len(common))
	for _, pair := range common {
		wanted[pair] = struct{}{}
	}

	grouped := make(map[string][]pricingDomain.Quote, len(common))
	for _, src := range s.sources {
		for _, q := range values[src.Name()] {
			if _, ok := wanted[q.Pair]; !ok {
				continue
			}
			grouped[q.Pair] = append(grouped[q.Pair], q)
		}
	}

	for pair, quotes := range grouped {
		if len(quotes) < 2 {
			delete(grouped, pair)
		}
	}
	return grouped
}
