// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/internal/cache"
	"github.com/fd1az/arbitrage-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Sources     = di.NewToken[[]app.QuoteSource]("pricing.Sources")
	Fetcher     = di.NewToken[*app.Fetcher]("pricing.Fetcher")
	PairCatalog = di.NewToken[*app.PairCatalog]("pricing.PairCatalog")
	BestPrice   = di.NewToken[*app.BestPriceService]("pricing.BestPriceService")
)

// Private dependency tokens - internal to pricing module
var (
	CatalogStore = di.NewToken[cache.Store[[]string]]("pricing:catalogStore")
)

// Helper functions for type-safe access
func GetSources(c di.ServiceRegistry) []app.QuoteSource {
	return di.GetToken(c, Sources)
}

func GetFetcher(c di.ServiceRegistry) *app.Fetcher {
	return di.GetToken(c, Fetcher)
}

func GetPairCatalog(c di.ServiceRegistry) *app.PairCatalog {
	return di.GetToken(c, PairCatalog)
}

func GetBestPrice(c di.ServiceRegistry) *app.BestPriceService {
	return di.GetToken(c, BestPrice)
}

func GetCatalogStore(c di.ServiceRegistry) cache.Store[[]string] {
	return di.GetToken(c, CatalogStore)
}
