// Package pricing implements the pricing bounded context: exchange quote
// sources, the common pair catalog and the best price use case.
package pricing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	pricingDI "github.com/fd1az/arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/binance"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/bybit"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/exchange"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/jbex"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/poloniex"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/whitebit"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/cache"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/di"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

// cacheJanitorInterval is how often the in-memory catalog store evicts.
const cacheJanitorInterval = time.Minute

type sourceFactory func(exchange.Config, logger.LoggerInterface) (app.QuoteSource, error)

func adapt[S app.QuoteSource](build func(exchange.Config, logger.LoggerInterface) (S, error)) sourceFactory {
	return func(cfg exchange.Config, log logger.LoggerInterface) (app.QuoteSource, error) {
		s, err := build(cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

var factories = map[string]sourceFactory{
	config.Binance:  adapt(binance.New),
	config.Bybit:    adapt(bybit.New),
	config.WhiteBIT: adapt(whitebit.New),
	config.Poloniex: adapt(poloniex.New),
	config.JBEX:     adapt(jbex.New),
}

// BuildSources creates the enabled exchange adapters in config.ExchangeOrder.
// An empty result is not an error here; the use cases reject it.
func BuildSources(cfg *config.Config, log logger.LoggerInterface) ([]app.QuoteSource, error) {
	var sources []app.QuoteSource
	for _, name := range cfg.Exchanges.Enabled() {
		ex, _ := cfg.Exchanges.ByName(name)
		build, ok := factories[name]
		if !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("unsupported exchange "+name))
		}

		src, err := build(exchange.Config{
			BaseURL:           ex.BaseURL,
			APIKey:            ex.APIKey,
			RequestsPerMinute: ex.RequestsPerMinute,
			Timeout:           ex.Timeout,
			TraceBodies:       cfg.App.LogLevel == "debug",
		}, log)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := c.Get(monolith.ConfigService).(*config.Config)
	log := c.Get(monolith.LoggerService).(logger.LoggerInterface)

	// Adapters are built eagerly so config errors surface at startup.
	sources, err := BuildSources(cfg, log)
	if err != nil {
		return err
	}

	di.RegisterToken(c, pricingDI.Sources, func(sr di.ServiceRegistry) []app.QuoteSource {
		return sources
	})

	di.RegisterToken(c, pricingDI.Fetcher, func(sr di.ServiceRegistry) *app.Fetcher {
		return app.NewFetcher(app.FetchPolicy{
			Attempts: cfg.Fetch.Attempts,
			Delay:    cfg.Fetch.Delay,
		}, log)
	})

	// Register catalog store - private dependency
	di.RegisterToken(c, pricingDI.CatalogStore, func(sr di.ServiceRegistry) cache.Store[[]string] {
		if cfg.Catalog.Backend == "redis" {
			client := sr.Get(monolith.RedisService).(redis.UniversalClient)
			return cache.NewRedisStore[[]string](client, log, cache.WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		return cache.NewMemoryStore[[]string](cacheJanitorInterval)
	})

	di.RegisterToken(c, pricingDI.PairCatalog, func(sr di.ServiceRegistry) *app.PairCatalog {
		return app.NewPairCatalog(
			pricingDI.GetSources(sr),
			pricingDI.GetFetcher(sr),
			pricingDI.GetCatalogStore(sr),
			cfg.Catalog.TTL,
			log,
		)
	})

	// Register BestPriceService (public - exposed to the CLI)
	di.RegisterToken(c, pricingDI.BestPrice, func(sr di.ServiceRegistry) *app.BestPriceService {
		return app.NewBestPriceService(pricingDI.GetSources(sr), pricingDI.GetFetcher(sr), log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if store, ok := pricingDI.GetCatalogStore(mono.Services()).(*cache.MemoryStore[[]string]); ok {
		mono.OnClose(func() error {
			store.Close()
			return nil
		})
	}

	sources := pricingDI.GetSources(mono.Services())
	if len(sources) == 0 {
		log.Warn(ctx, "no exchanges enabled")
	}

	log.Info(ctx, "pricing module started",
		"sources", app.SourceNames(sources),
		"catalog_backend", mono.Config().Catalog.Backend,
	)
	return nil
}
