package app

import (
	"context"
	"slices"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/internal/cache"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const (
	// CommonPairsKey is the cache key of the published intersection.
	CommonPairsKey = "common_pairs"
	// DefaultCatalogTTL is how long the intersection stays cached.
	DefaultCatalogTTL = time.Hour
)

// PairCatalog resolves the pairs listed by every reachable source.
type PairCatalog struct {
	sources []QuoteSource
	fetcher *Fetcher
	store   cache.Store[[]string]
	ttl     time.Duration
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	lookups metric.Int64Counter
}

// NewPairCatalog creates a PairCatalog. A non-positive ttl uses DefaultCatalogTTL.
func NewPairCatalog(sources []QuoteSource, fetcher *Fetcher, store cache.Store[[]string], ttl time.Duration, log logger.LoggerInterface) *PairCatalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}

	lookups, err := otel.Meter(meterName).Int64Counter(
		"pair_catalog_lookups_total",
		metric.WithDescription("Common pair lookups by cache result"),
	)
	if err != nil {
		log.Warn(context.Background(), "failed to create catalog counter", "error", err)
	}

	return &PairCatalog{
		sources: sources,
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		lookups: lookups,
	}
}

// ResolveCommonPairs returns the sorted intersection of every reachable
// source's pairs, served from cache when present.
func (c *PairCatalog) ResolveCommonPairs(ctx context.Context) ([]string, error) {
	if len(c.sources) == 0 {
		return nil, NewConfigurationError("no exchange sources configured")
	}

	ctx, span := c.tracer.Start(ctx, "pricing.resolve_common_pairs")
	defer span.End()

	computed := false
	pairs, err := c.store.Remember(ctx, CommonPairsKey, c.ttl, func(ctx context.Context) ([]string, error) {
		computed = true
		return c.compute(ctx)
	})
	c.recordLookup(ctx, computed)
	span.SetAttributes(attribute.Bool("cache_hit", !computed))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("pairs", len(pairs)))
	return slices.Clone(pairs), nil
}

// Forget drops the cached intersection. It is safe to call when nothing is cached.
func (c *PairCatalog) Forget(ctx context.Context) error {
	removed, err := c.store.Forget(ctx, CommonPairsKey)
	if err != nil {
		return err
	}
	c.logger.Debug(ctx, "pair catalog forgotten", "removed", removed)
	return nil
}

func (c *PairCatalog) compute(ctx context.Context) ([]string, error) {
	results := fanOut(ctx, c.fetcher, c.sources, func(ctx context.Context, src QuoteSource) ([]string, error) {
		return src.ListAvailablePairs(ctx)
	})

	var (
		lists     [][]string
		succeeded []string
		failed    []string
	)
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r.source)
			c.logger.Warn(ctx, "source excluded from pair catalog", "source", r.source, "error", r.err)
			continue
		}
		succeeded = append(succeeded, r.source)
		lists = append(lists, r.value)
	}

	if len(succeeded) == 0 {
		return nil, NewAllSourcesUnavailableError(failed)
	}

	common := IntersectPairs(lists)
	if len(common) == 0 {
		return nil, NewNoCommonPairsError(succeeded)
	}

	c.logger.Info(ctx, "pair catalog resolved",
		"common_pairs", len(common),
		"sources", succeeded,
		"failed_sources", failed)
	return common, nil
}

func (c *PairCatalog) recordLookup(ctx context.Context, miss bool) {
	if c.lookups == nil {
		return
	}
	result := "hit"
	if miss {
		result = "miss"
	}
	c.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// IntersectPairs returns the pairs present in every list, deduplicated and
// sorted ascending. No lists yields nil.
func IntersectPairs(lists [][]string) []string {
	if len(lists) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, list := range lists {
		seen := make(map[string]struct{}, len(list))
		for _, p := range list {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			counts[p]++
		}
	}

	var common []string
	for p, n := range counts {
		if n == len(lists) {
			common = append(common, p)
		}
	}
	sort.Strings(common)
	return common
}
