package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage"
	arbitrageApp "github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/infra"
	pricingApp "github.com/fd1az/arbitrage-scanner/business/pricing/app"
	pricingDI "github.com/fd1az/arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/arbitrage-scanner/internal/health"
	"github.com/fd1az/arbitrage-scanner/internal/metrics"
	"github.com/fd1az/arbitrage-scanner/pkg/ui"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	var (
		flags    filterFlags
		interval time.Duration
		noTUI    bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan for opportunities periodically",
		Long: `Run the opportunity scan on start and then every interval until interrupted.
The dashboard is the default output; --no-tui prints each scan instead.

Keys: q quit, p pause, r refresh the pair catalog, e clear errors, ? help.

Examples:
  arbitrage watch
  arbitrage watch --interval 10s --min-profit 0.3 --no-tui`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(cmd); err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") && interval <= 0 {
				return usageErrorf("invalid --interval %s: must be > 0", interval)
			}

			// The dashboard owns the terminal, logs would tear it.
			logOut := cmd.ErrOrStderr()
			if !noTUI {
				logOut = io.Discard
			}

			s, err := startSession(cmd.Context(), root, sessionOptions{logOut: logOut, prometheus: true})
			if err != nil {
				return err
			}
			defer s.Close()

			if !cmd.Flags().Changed("interval") {
				interval = s.cfg.Arbitrage.WatchInterval
			}
			filters := flags.filters(cmd, s.cfg.Arbitrage)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sources := pricingDI.GetSources(s.app.Services())
			stopServers := startWatchServers(s, sources)
			defer stopServers()

			var (
				reporter arbitrageApp.Reporter
				tui      *infra.TUIReporter
			)
			if noTUI {
				reporter = infra.NewConsoleReporter(cmd.OutOrStdout())
			} else {
				tui = infra.NewTUIReporter(ui.Options{
					Sources:   pricingApp.SourceNames(sources),
					Interval:  interval,
					MinProfit: filters.MinProfit.String(),
				}, cancel)
				reporter = tui
			}

			detector := arbitrage.NewDetector(s.app.Services(), reporter, arbitrageApp.DetectorConfig{
				Interval:    interval,
				ScanTimeout: s.cfg.Arbitrage.ScanTimeout,
				Filters:     filters,
			})
			if tui != nil {
				tui.SetControls(detector)
			}

			s.log.Info(ctx, "watch started", "interval", interval.String(), "min_profit", filters.MinProfit.String())

			if err := detector.Start(ctx); err != nil {
				return fmt.Errorf("start detector: %w", err)
			}

			<-ctx.Done()

			s.log.Info(context.Background(), "shutting down", "scans", detector.Scans())
			return detector.Stop()
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Time between scans")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print scans to stdout instead of the dashboard")

	return cmd
}

// startWatchServers starts the health server with one check per source and
// the Prometheus scrape server when a registry exists.
func startWatchServers(s *session, sources []pricingApp.QuoteSource) func() {
	var stops []func(context.Context) error

	if s.cfg.Health.Enabled {
		hs := health.NewServer(s.cfg.Health.Port, version, s.log)
		for _, src := range sources {
			hs.RegisterCheck(src.Name(), sourceCheck(src))
		}
		if err := hs.Start(); err != nil {
			s.log.Warn(context.Background(), "failed to start health server", "error", err)
		} else {
			stops = append(stops, hs.Stop)
		}
	}

	if s.metrics != nil && s.metrics.Registry != nil {
		ms := metrics.NewPrometheusServer(s.metrics.Registry, s.log, metrics.WithPort(s.cfg.Telemetry.PrometheusPort))
		if err := ms.Start(); err != nil {
			s.log.Warn(context.Background(), "failed to start metrics server", "error", err)
		} else {
			stops = append(stops, ms.Stop)
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			_ = stop(ctx)
		}
	}
}

func sourceCheck(src pricingApp.QuoteSource) health.CheckFunc {
	return func(ctx context.Context) (bool, string) {
		if sr, ok := src.(pricingApp.StatusReporter); ok {
			return sr.Status()
		}
		return true, "ok"
	}
}
