// Package apptest provides in-memory quote sources for use case tests.
package apptest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

// ObservedAt is the fixed timestamp stamped on fake quotes.
var ObservedAt = time.UnixMilli(1700000000000)

// Source is a scripted QuoteSource. Prices map a pair to a decimal string.
// Setting Err makes every call fail with it.
type Source struct {
	SourceName string
	Prices     map[string]string
	Err        error

	// Errs, when set, is consumed one error per call before falling back to
	// the normal behaviour. It scripts flaky sources.
	mu   sync.Mutex
	Errs []error

	ListCalls atomic.Int32
	OneCalls  atomic.Int32
	AllCalls  atomic.Int32
}

// NewSource creates a Source with the given prices.
func NewSource(name string, prices map[string]string) *Source {
	return &Source{SourceName: name, Prices: prices}
}

// Failing creates a Source whose every call returns err.
func Failing(name string, err error) *Source {
	return &Source{SourceName: name, Err: err}
}

// Unreachable returns a transient connection error.
func Unreachable(name string) error {
	return apperror.External(apperror.CodeExchangeConnectionFailed, name, context.DeadlineExceeded)
}

func (s *Source) Name() string { return s.SourceName }

func (s *Source) nextErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Errs) > 0 {
		err := s.Errs[0]
		s.Errs = s.Errs[1:]
		return err
	}
	return s.Err
}

func (s *Source) FetchOne(ctx context.Context, pair string) (domain.Quote, error) {
	s.OneCalls.Add(1)
	if err := s.nextErr(); err != nil {
		return domain.Quote{}, err
	}
	price, ok := s.Prices[pair]
	if !ok {
		return domain.Quote{}, apperror.New(apperror.CodeUnknownSymbol, apperror.WithContext(pair))
	}
	return domain.NewQuote(pair, decimal.RequireFromString(price), s.SourceName, ObservedAt), nil
}

func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	s.AllCalls.Add(1)
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	quotes := make([]domain.Quote, 0, len(s.Prices))
	for _, pair := range s.pairs() {
		quotes = append(quotes, domain.NewQuote(pair, decimal.RequireFromString(s.Prices[pair]), s.SourceName, ObservedAt))
	}
	return quotes, nil
}

func (s *Source) ListAvailablePairs(ctx context.Context) ([]string, error) {
	s.ListCalls.Add(1)
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	return s.pairs(), nil
}

func (s *Source) pairs() []string {
	pairs := make([]string, 0, len(s.Prices))
	for p := range s.Prices {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}
