// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// Opportunity is a pair that can be bought on one exchange and sold on
// another for more. BuySource and SellSource always differ.
type Opportunity struct {
	Pair          string          `json:"pair"`
	BuySource     string          `json:"buyExchange"`
	SellSource    string          `json:"sellExchange"`
	BuyPrice      decimal.Decimal `json:"buyPrice"`
	SellPrice     decimal.Decimal `json:"sellPrice"`
	ProfitPercent decimal.Decimal `json:"profitPercent"`
}

// Route renders the trade direction, e.g. "Binance → Bybit".
func (o Opportunity) Route() string {
	return o.BuySource + " → " + o.SellSource
}

// CalculateProfit returns (sell - buy) / buy * 100.
func CalculateProfit(buy, sell decimal.Decimal) (decimal.Decimal, error) {
	if !buy.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("buy price must be positive, got "+buy.String()))
	}
	return sell.Sub(buy).Div(buy).Mul(hundred), nil
}
