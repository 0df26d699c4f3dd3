package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const (
	tracerName = "github.com/fd1az/arbitrage-scanner/business/pricing/app"
	meterName  = "github.com/fd1az/arbitrage-scanner/business/pricing/app"

	// DefaultAttempts is the total number of tries, including the first.
	DefaultAttempts = 3
	// DefaultRetryDelay is the fixed pause between tries.
	DefaultRetryDelay = 200 * time.Millisecond
)

// FetchPolicy holds retry settings for the fetch wrapper.
type FetchPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultFetchPolicy returns 3 attempts with a fixed 200ms delay.
func DefaultFetchPolicy() FetchPolicy {
	return FetchPolicy{
		Attempts: DefaultAttempts,
		Delay:    DefaultRetryDelay,
	}
}

type fetcherMetrics struct {
	attempts metric.Int64Counter
	failures metric.Int64Counter
}

// Fetcher runs source calls with bounded retry. It holds no per-call state
// and is safe to share.
type Fetcher struct {
	policy  FetchPolicy
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *fetcherMetrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher. Non-positive policy values fall back to defaults.
func NewFetcher(policy FetchPolicy, log logger.LoggerInterface) *Fetcher {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultAttempts
	}
	if policy.Delay < 0 {
		policy.Delay = DefaultRetryDelay
	}

	f := &Fetcher{
		policy: policy,
		logger: log,
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
	}
	f.initMetrics()
	return f
}

// Policy returns the effective retry policy.
func (f *Fetcher) Policy() FetchPolicy {
	return f.policy
}

func (f *Fetcher) initMetrics() {
	meter := otel.Meter(meterName)
	m := &fetcherMetrics{}

	var err error
	if m.attempts, err = meter.Int64Counter(
		"source_fetch_attempts_total",
		metric.WithDescription("Exchange calls issued, retries included"),
		metric.WithUnit("{call}"),
	); err != nil {
		m.attempts = nil
	}
	if m.failures, err = meter.Int64Counter(
		"source_fetch_failures_total",
		metric.WithDescription("Exchange calls that failed after the retry policy"),
		metric.WithUnit("{call}"),
	); err != nil {
		m.failures = nil
	}
	f.metrics = m
}

func (f *Fetcher) recordAttempt(ctx context.Context, source string) {
	if f.metrics.attempts != nil {
		f.metrics.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	}
}

func (f *Fetcher) recordFailure(ctx context.Context, source, kind string) {
	if f.metrics.failures != nil {
		f.metrics.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("kind", kind),
		))
	}
}

// Fetch executes op against source. Transient failures are retried up to the
// policy's attempt count with a fixed delay; a permanent failure stops at once
// and becomes ExchangeProtocolError. Running out of attempts, or losing the
// context, yields ExchangeUnavailableError with the last cause.
func Fetch[T any](ctx context.Context, f *Fetcher, source string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, span := f.tracer.Start(ctx, "pricing.fetch",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.Int("max_attempts", f.policy.Attempts),
		),
	)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= f.policy.Attempts; attempt++ {
		f.recordAttempt(ctx, source)

		v, err := op(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}

		if !IsTransient(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "permanent failure")
			f.recordFailure(ctx, source, "protocol")
			f.logger.Debug(ctx, "permanent source failure", "source", source, "attempt", attempt, "error", err)
			return zero, NewProtocolError(source, err)
		}

		f.logger.Debug(ctx, "transient source failure",
			"source", source,
			"attempt", attempt,
			"max_attempts", f.policy.Attempts,
			"error", err)

		if attempt < f.policy.Attempts {
			if err := f.sleep(ctx, f.policy.Delay); err != nil {
				break
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "source unavailable")
	f.recordFailure(ctx, source, "unavailable")
	return zero, NewUnavailableError(source, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sourceResult is the outcome of one per-source call.
type sourceResult[T any] struct {
	source string
	value  T
	err    error
}

// fanOut calls every source concurrently through the fetcher and waits for
// all of them. Results keep the order of sources.
func fanOut[T any](ctx context.Context, f *Fetcher, sources []QuoteSource, call func(ctx context.Context, src QuoteSource) (T, error)) []sourceResult[T] {
	results := make([]sourceResult[T], len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			v, err := Fetch(ctx, f, src.Name(), func(ctx context.Context) (T, error) {
				return call(ctx, src)
			})
			results[i] = sourceResult[T]{source: src.Name(), value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FanOut is the exported form of fanOut for other bounded contexts.
func FanOut[T any](ctx context.Context, f *Fetcher, sources []QuoteSource, call func(ctx context.Context, src QuoteSource) (T, error)) (values map[string]T, failed []string, errs map[string]error) {
	values = make(map[string]T, len(sources))
	errs = make(map[string]error)
	for _, r := range fanOut(ctx, f, sources, call) {
		if r.err != nil {
			failed = append(failed, r.source)
			errs[r.source] = r.err
			continue
		}
		values[r.source] = r.value
	}
	return values, failed, errs
}
