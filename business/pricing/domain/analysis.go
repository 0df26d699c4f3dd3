package domain

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// Extremes holds the lowest and highest quote of a collection.
type Extremes struct {
	Min Quote
	Max Quote
}

// PriceDifference is the spread between two prices.
type PriceDifference struct {
	Absolute decimal.Decimal `json:"absolute"` // max - min
	Percent  decimal.Decimal `json:"percent"`  // (max - min) / min * 100, signed
}

// FindExtremes scans quotes once. The first element seeds both ends and ties
// keep the quote seen first.
func FindExtremes(quotes []Quote) (Extremes, error) {
	if len(quotes) == 0 {
		return Extremes{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("cannot find extremes of an empty quote list"))
	}

	ext := Extremes{Min: quotes[0], Max: quotes[0]}
	for _, q := range quotes[1:] {
		if q.Price.LessThan(ext.Min.Price) {
			ext.Min = q
		}
		if q.Price.GreaterThan(ext.Max.Price) {
			ext.Max = q
		}
	}
	return ext, nil
}

// Difference computes max-min and its percentage of min. If max < min the
// result is negative.
func Difference(minPrice, maxPrice decimal.Decimal) (PriceDifference, error) {
	if !minPrice.IsPositive() {
		return PriceDifference{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("minimum price must be positive, got "+minPrice.String()))
	}

	absolute := maxPrice.Sub(minPrice)
	return PriceDifference{
		Absolute: absolute,
		Percent:  absolute.Div(minPrice).Mul(hundred),
	}, nil
}
