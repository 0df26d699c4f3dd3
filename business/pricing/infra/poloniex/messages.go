// Package poloniex implements a QuoteSource for the Poloniex v3 spot API.
package poloniex

// price is returned by /markets/{symbol}/price and, as a list, by /markets/price.
type price struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Time   int64  `json:"time"`
	TS     int64  `json:"ts"`
}

// millis prefers the quote time over the response time.
func (p price) millis() int64 {
	if p.Time > 0 {
		return p.Time
	}
	return p.TS
}

// market is one element of /markets.
type market struct {
	Symbol            string `json:"symbol"`
	BaseCurrencyName  string `json:"baseCurrencyName"`
	QuoteCurrencyName string `json:"quoteCurrencyName"`
	State             string `json:"state"`
}

const (
	stateNormal = "NORMAL"
	symbolSep   = "_"
)
