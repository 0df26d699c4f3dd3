// Package arbitrage implements the arbitrage bounded context for opportunity detection.
package arbitrage

import (
	"context"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/arbitrage-scanner/business/arbitrage/di"
	pricingDI "github.com/fd1az/arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/arbitrage-scanner/internal/di"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

// Module implements the arbitrage bounded context. It depends on pricing.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return app.NewScanner(
			pricingDI.GetSources(sr),
			pricingDI.GetPairCatalog(sr),
			pricingDI.GetFetcher(sr),
			log,
		)
	})
	return nil
}

// Startup initializes the arbitrage module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	// Resolve early so wiring errors panic before any command output.
	_ = arbitrageDI.GetScanner(mono.Services())
	mono.Logger().Info(ctx, "arbitrage module started")
	return nil
}

// NewDetector builds a watch mode detector around the registered scanner.
// The reporter depends on the output mode, so it is not a container service.
func NewDetector(sr di.ServiceRegistry, reporter app.Reporter, cfg app.DetectorConfig) *app.Detector {
	log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
	return app.NewDetector(
		arbitrageDI.GetScanner(sr),
		pricingDI.GetPairCatalog(sr),
		pricingDI.GetSources(sr),
		reporter,
		cfg,
		log,
	)
}
