// Package domain contains the core domain types for the pricing context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one source's reported price for a pair at a point in time.
// A non-positive price is not rejected here; consumers must check it before
// dividing by it.
type Quote struct {
	Pair       string // normalized BASE/QUOTE, e.g. "BTC/USDT"
	Price      decimal.Decimal
	Source     string // exchange name, e.g. "Binance"
	ObservedAt time.Time
}

// NewQuote creates a Quote with the timestamp truncated to milliseconds.
func NewQuote(pair string, price decimal.Decimal, source string, observedAt time.Time) Quote {
	return Quote{
		Pair:       pair,
		Price:      price,
		Source:     source,
		ObservedAt: time.UnixMilli(observedAt.UnixMilli()),
	}
}

// NewQuoteFromMillis creates a Quote from a unix millisecond timestamp.
// A zero timestamp means "now".
func NewQuoteFromMillis(pair string, price decimal.Decimal, source string, millis int64) Quote {
	if millis <= 0 {
		return NewQuote(pair, price, source, time.Now())
	}
	return NewQuote(pair, price, source, time.UnixMilli(millis))
}

// HasPositivePrice reports whether the quote can be used as a divisor.
func (q Quote) HasPositivePrice() bool {
	return q.Price.IsPositive()
}

// GroupByPair groups quotes by pair keeping input order inside each group.
func GroupByPair(quotes []Quote) map[string][]Quote {
	grouped := make(map[string][]Quote)
	for _, q := range quotes {
		grouped[q.Pair] = append(grouped[q.Pair], q)
	}
	return grouped
}
