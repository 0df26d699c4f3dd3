package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage"
	"github.com/fd1az/arbitrage-scanner/business/pricing"
	"github.com/fd1az/arbitrage-scanner/internal/apm"
	"github.com/fd1az/arbitrage-scanner/internal/config"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/metrics"
	"github.com/fd1az/arbitrage-scanner/internal/monolith"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "arbitrage",
		Short: "Cross-exchange spot price and arbitrage scanner",
		Long: `Compare spot prices of the same trading pair across centralized exchanges
(Binance, JBEX, Poloniex, Bybit, WhiteBIT) and rank buy-low/sell-high opportunities.

Examples:
  arbitrage price BTC/USDT
  arbitrage opportunities --min-profit 0.5 --top 10
  arbitrage pairs --refresh
  arbitrage watch --interval 15s`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to configuration file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newPriceCommand(opts))
	rootCmd.AddCommand(newOpportunitiesCommand(opts))
	rootCmd.AddCommand(newPairsCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// usageArgs turns positional argument errors into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// application is the monolith as seen by the commands.
type application interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

// session is one command run: config, logger, telemetry and started modules.
type session struct {
	cfg     *config.Config
	log     logger.LoggerInterface
	app     application
	traces  apm.TraceProvider
	metrics *metrics.MeterProvider
}

type sessionOptions struct {
	// logOut receives JSON logs; commands pass stderr, the TUI discards.
	logOut io.Writer
	// prometheus adds the scrape reader, used by watch.
	prometheus bool
}

func startSession(ctx context.Context, opts *rootOptions, so sessionOptions) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, usageError(err)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
			cfg.App.LogLevel = opts.logLevel
		default:
			return nil, usageErrorf("invalid --log-level %q: expected debug, info, warn or error", opts.logLevel)
		}
	}

	log := logger.New(so.logOut, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	s := &session{cfg: cfg, log: log}

	if cfg.Telemetry.Enabled {
		if err := s.startTelemetry(so); err != nil {
			s.Close()
			return nil, err
		}
	}

	app, err := monolith.New(ctx, cfg, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.app = app

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{},
		&arbitrage.Module{},
	}

	if err := app.RegisterModules(modules...); err != nil {
		s.Close()
		return nil, err
	}
	if err := app.StartModules(ctx, modules...); err != nil {
		s.Close()
		return nil, err
	}

	log.Debug(ctx, "session started",
		"version", version,
		"environment", cfg.App.Environment,
	)
	return s, nil
}

func (s *session) startTelemetry(so sessionOptions) error {
	tel := s.cfg.Telemetry

	endpoint := tel.OTLPEndpoint
	if tel.TraceExporter == string(apm.ZipkinProvider) {
		endpoint = tel.ZipkinURL
	}

	tp, err := apm.NewTraceProvider(s.log,
		apm.WithServiceName(tel.ServiceName),
		apm.WithProvider(apm.Provider(tel.TraceExporter), apm.ExporterConfig{
			Endpoint: endpoint,
			Headers:  tel.Headers(),
			Console:  so.logOut,
		}, s.log),
	)
	if err != nil {
		return err
	}
	s.traces = tp

	metricOpts := []metrics.OptionFn{metrics.WithServiceName(tel.ServiceName)}
	if so.prometheus && tel.PrometheusPort > 0 {
		metricOpts = append(metricOpts, metrics.WithProviderConfig(metrics.NewPrometheusConfig()))
	}
	if tel.OTLPMetrics {
		insecure := strings.HasPrefix(tel.OTLPEndpoint, "http://")
		metricOpts = append(metricOpts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tel.OTLPEndpoint, tel.Headers(), insecure),
		))
	}

	mp, err := metrics.NewMetricProvider(metricOpts...)
	if err != nil {
		return err
	}
	s.metrics = mp
	return nil
}

// commandContext bounds a one-shot command by fetch.timeout.
func (s *session) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Fetch.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Fetch.Timeout)
	}
	return context.WithCancel(ctx)
}

// Close releases the monolith and flushes telemetry.
func (s *session) Close() error {
	var errs []error
	if s.app != nil {
		errs = append(errs, s.app.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.metrics != nil {
		errs = append(errs, s.metrics.Shutdown(ctx))
	}
	if s.traces != nil {
		errs = append(errs, s.traces.Stop())
	}
	return errors.Join(errs...)
}
