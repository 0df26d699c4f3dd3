// Package asset holds trading pair symbols and the normalization rules shared
// by exchange adapters.
package asset

import (
	"fmt"
	"regexp"
	"strings"
)

// Separator joins base and quote in the normalized form.
const Separator = "/"

var pairPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}/[A-Z0-9]{2,10}$`)

// Pair is a tradable asset combination such as BTC/USDT.
type Pair struct {
	Base  string
	Quote string
}

// NewPair builds an uppercased pair.
func NewPair(base, quote string) Pair {
	return Pair{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// ParsePair parses "BASE/QUOTE" in any letter case.
func ParsePair(s string) (Pair, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if !pairPattern.MatchString(normalized) {
		return Pair{}, fmt.Errorf("invalid pair %q: expected BASE/QUOTE (e.g. BTC/USDT)", s)
	}
	base, quote, _ := strings.Cut(normalized, Separator)
	return Pair{Base: base, Quote: quote}, nil
}

// IsValidSymbol reports whether s is a well formed BASE/QUOTE symbol,
// ignoring letter case.
func IsValidSymbol(s string) bool {
	return pairPattern.MatchString(strings.ToUpper(s))
}

// String returns the normalized symbol, e.g. "BTC/USDT".
func (p Pair) String() string {
	return p.Base + Separator + p.Quote
}

// Join renders the pair with an exchange-specific separator ("" for
// BTCUSDT, "_" for BTC_USDT).
func (p Pair) Join(sep string) string {
	return p.Base + sep + p.Quote
}

// IsZero reports whether the pair is unset.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// FromSeparated parses an exchange symbol that uses sep between base and quote.
func FromSeparated(symbol, sep string) (Pair, bool) {
	base, quote, ok := strings.Cut(symbol, sep)
	if !ok || base == "" || quote == "" {
		return Pair{}, false
	}
	return NewPair(base, quote), true
}
