package asset

import "strings"

// Well-known quote assets, in the order they are tried when splitting a
// concatenated symbol such as BTCUSDT.
var QuoteAssets = []string{"USDT", "USDC", "BTC", "ETH", "BNB", "USD"}

// SplitConcatenated splits a symbol without separator using the known quote
// suffixes. The first matching suffix wins and the base must be non-empty.
func SplitConcatenated(symbol string) (Pair, bool) {
	return SplitWithQuotes(symbol, QuoteAssets)
}

// SplitWithQuotes is SplitConcatenated with a custom suffix list.
func SplitWithQuotes(symbol string, quotes []string) (Pair, bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range quotes {
		if strings.HasSuffix(s, q) {
			base := strings.TrimSuffix(s, q)
			if base != "" {
				return Pair{Base: base, Quote: q}, true
			}
		}
	}
	return Pair{}, false
}

// Denormalize strips the separator: "BTC/USDT" -> "BTCUSDT".
func Denormalize(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), Separator, "")
}
