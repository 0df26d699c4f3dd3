// Package whitebit implements a QuoteSource for the WhiteBIT v4 public API.
package whitebit

// tickerEntry is one value of the /api/v4/public/ticker map, keyed by market
// name such as BTC_USDT.
type tickerEntry struct {
	LastPrice string `json:"last_price"`
	IsFrozen  bool   `json:"isFrozen"`
}

// market is one element of /api/v4/public/markets.
type market struct {
	Name          string `json:"name"`
	Stock         string `json:"stock"`
	Money         string `json:"money"`
	TradesEnabled bool   `json:"tradesEnabled"`
	Type          string `json:"type"`
}

const (
	marketTypeSpot = "spot"
	symbolSep      = "_"
)
