// Package jbex implements a QuoteSource for the JBEX open API.
package jbex

// tickerPrice is returned by /openapi/quote/v1/ticker/price, as an object
// when a symbol is given and as a list otherwise.
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// brokerInfo is the subset of /openapi/v1/brokerInfo used to list markets.
type brokerInfo struct {
	ServerTime int64        `json:"serverTime"`
	Symbols    []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

const (
	statusTrading = "TRADING"
	apiKeyHeader  = "X-BH-APIKEY"
)
