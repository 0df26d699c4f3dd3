package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

// PricePoint is one end of a best price result.
type PricePoint struct {
	Source     string          `json:"source"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"timestamp"`
}

// BestPriceResult is the cross-exchange view of a single pair.
type BestPriceResult struct {
	Pair           string                 `json:"pair"`
	Min            PricePoint             `json:"min"`
	Max            PricePoint             `json:"max"`
	Difference     domain.PriceDifference `json:"difference"`
	SourcesChecked int                    `json:"sourcesChecked"`
	FailedSources  []string               `json:"failedSources"`
}

// BestPriceService finds the lowest and highest price of one pair.
type BestPriceService struct {
	sources []QuoteSource
	fetcher *Fetcher
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewBestPriceService creates a BestPriceService.
func NewBestPriceService(sources []QuoteSource, fetcher *Fetcher, log logger.LoggerInterface) *BestPriceService {
	return &BestPriceService{
		sources: sources,
		fetcher: fetcher,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Execute queries every source for pair concurrently. Sources that fail are
// listed in FailedSources, in configuration order.
func (s *BestPriceService) Execute(ctx context.Context, pair string) (*BestPriceResult, error) {
	if len(s.sources) == 0 {
		return nil, NewConfigurationError("no exchange sources configured")
	}

	ctx, span := s.tracer.Start(ctx, "pricing.best_price",
		trace.WithAttributes(attribute.String("pair", pair)))
	defer span.End()

	results := fanOut(ctx, s.fetcher, s.sources, func(ctx context.Context, src QuoteSource) (domain.Quote, error) {
		return src.FetchOne(ctx, pair)
	})

	var (
		quotes []domain.Quote
		failed []string
	)
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r.source)
			s.logger.Warn(ctx, "source failed for pair", "source", r.source, "pair", pair, "error", r.err)
			continue
		}
		quotes = append(quotes, r.value)
	}

	if len(quotes) == 0 {
		err := NewPairNotFoundError(pair, failed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "pair not found")
		return nil, err
	}

	ext, err := domain.FindExtremes(quotes)
	if err != nil {
		return nil, err
	}
	diff, err := domain.Difference(ext.Min.Price, ext.Max.Price)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("quotes", len(quotes)),
		attribute.Int("failed_sources", len(failed)),
	)

	return &BestPriceResult{
		Pair:           pair,
		Min:            pointOf(ext.Min),
		Max:            pointOf(ext.Max),
		Difference:     diff,
		SourcesChecked: len(quotes),
		FailedSources:  failed,
	}, nil
}

func pointOf(q domain.Quote) PricePoint {
	return PricePoint{Source: q.Source, Price: q.Price, ObservedAt: q.ObservedAt}
}
