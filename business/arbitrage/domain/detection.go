package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/arbitrage-scanner/business/pricing/domain"
)

// FindOpportunities buys at the lowest and sells at the highest quote of each
// pair. Pairs are visited in ascending order and the result is ranked by
// profit, highest first; equal profits keep pair order.
//
// A pair is skipped when it has fewer than two quotes, when its extremes come
// from the same exchange, or when the lowest price is not positive.
func FindOpportunities(quotesByPair map[string][]pricingDomain.Quote, minProfit decimal.Decimal) []Opportunity {
	pairs := make([]string, 0, len(quotesByPair))
	for pair := range quotesByPair {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	var opportunities []Opportunity
	for _, pair := range pairs {
		quotes := quotesByPair[pair]
		if len(quotes) < 2 {
			continue
		}

		ext, err := pricingDomain.FindExtremes(quotes)
		if err != nil {
			continue
		}
		if ext.Min.Source == ext.Max.Source {
			continue
		}

		profit, err := CalculateProfit(ext.Min.Price, ext.Max.Price)
		if err != nil {
			continue
		}
		if profit.LessThan(minProfit) {
			continue
		}

		opportunities = append(opportunities, Opportunity{
			Pair:          pair,
			BuySource:     ext.Min.Source,
			SellSource:    ext.Max.Source,
			BuyPrice:      ext.Min.Price,
			SellPrice:     ext.Max.Price,
			ProfitPercent: profit,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].ProfitPercent.GreaterThan(opportunities[j].ProfitPercent)
	})
	return opportunities
}
