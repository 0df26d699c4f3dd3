package exchange

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/asset"
)

// Markets maps exchange symbols to normalized pairs. Quote lookups load it
// lazily; listing pairs always re-reads it so the catalog sees new listings
// and halts.
type Markets struct {
	mu     sync.Mutex
	loaded bool
	pairs  map[string]string // exchange symbol -> BASE/QUOTE
}

// LoadFunc fetches the active spot markets keyed by exchange symbol.
type LoadFunc func(ctx context.Context) (map[string]string, error)

// Get returns the index, calling load if it has not succeeded before.
// A failed load is not remembered.
func (m *Markets) Get(ctx context.Context, load LoadFunc) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.pairs, nil
	}
	return m.load(ctx, load)
}

// Refresh reloads the index. On failure the previous index stays in use.
func (m *Markets) Refresh(ctx context.Context, load LoadFunc) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(ctx, load)
}

func (m *Markets) load(ctx context.Context, load LoadFunc) (map[string]string, error) {
	pairs, err := load(ctx)
	if err != nil {
		return nil, err
	}
	m.pairs = pairs
	m.loaded = true
	return m.pairs, nil
}

// Pairs refreshes the index and returns its sorted normalized pairs.
func (m *Markets) Pairs(ctx context.Context, load LoadFunc) ([]string, error) {
	index, err := m.Refresh(ctx, load)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(index))
	pairs := make([]string, 0, len(index))
	for _, p := range index {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs, nil
}

// ParsePrice parses a ticker price and requires it to be positive.
func ParsePrice(source, symbol, raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTicker,
			apperror.WithContext(source+" "+symbol+": unparseable price "+strconv.Quote(raw)),
			apperror.WithCause(err))
	}
	if !price.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTicker,
			apperror.WithContext(source+" "+symbol+": non-positive price "+raw))
	}
	return price, nil
}

// NewQuote builds a quote stamped with the exchange time when known.
func NewQuote(pair string, price decimal.Decimal, source string, millis int64, now func() time.Time) domain.Quote {
	if millis > 0 {
		return domain.NewQuoteFromMillis(pair, price, source, millis)
	}
	return domain.NewQuote(pair, price, source, now())
}

// UnknownSymbol reports a pair the exchange does not list.
func UnknownSymbol(source, pair string) error {
	return apperror.New(apperror.CodeUnknownSymbol,
		apperror.WithContext(source+": "+pair),
		apperror.WithSources(source))
}

// InvalidPayload reports a response that does not have the expected shape.
func InvalidPayload(source, detail string) error {
	return apperror.New(apperror.CodeInvalidTicker, apperror.WithContext(source+": "+detail))
}

// ParsePair validates a normalized pair argument.
func ParsePair(pair string) (asset.Pair, error) {
	p, err := asset.ParsePair(pair)
	if err != nil {
		return asset.Pair{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(err.Error()))
	}
	return p, nil
}
