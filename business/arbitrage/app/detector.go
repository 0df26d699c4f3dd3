package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	pricingApp "github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

// DefaultWatchInterval is the pause between two scans in watch mode.
const DefaultWatchInterval = 30 * time.Second

// DetectorConfig holds configuration for the arbitrage detector.
type DetectorConfig struct {
	Interval    time.Duration
	ScanTimeout time.Duration
	Filters     Filters
}

// Detector runs the scanner periodically and feeds a Reporter.
type Detector struct {
	scanner  OpportunityScanner
	catalog  PairCatalog
	sources  []pricingApp.QuoteSource
	reporter Reporter
	config   DetectorConfig
	logger   logger.LoggerInterface

	paused  atomic.Bool
	refresh chan struct{}
	scans   atomic.Uint64
	wg      sync.WaitGroup
}

// NewDetector creates a new arbitrage Detector. A non-positive interval uses
// DefaultWatchInterval.
func NewDetector(
	scanner OpportunityScanner,
	catalog PairCatalog,
	sources []pricingApp.QuoteSource,
	reporter Reporter,
	config DetectorConfig,
	log logger.LoggerInterface,
) *Detector {
	if config.Interval <= 0 {
		config.Interval = DefaultWatchInterval
	}
	return &Detector{
		scanner:  scanner,
		catalog:  catalog,
		sources:  sources,
		reporter: reporter,
		config:   config,
		logger:   log,
		refresh:  make(chan struct{}, 1),
	}
}

// Start starts the reporter and the detection loop. The first scan runs
// immediately.
func (d *Detector) Start(ctx context.Context) error {
	d.logger.Info(ctx, "starting arbitrage detector",
		"interval", d.config.Interval,
		"min_profit", d.config.Filters.MinProfit.String())

	if err := d.reporter.Start(ctx); err != nil {
		return err
	}

	d.wg.Add(1)
	go d.run(ctx)

	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	d.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(context.Background(), "detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			if d.paused.Load() {
				continue
			}
			d.scan(ctx)
		case <-d.refresh:
			if err := d.catalog.Forget(ctx); err != nil {
				d.logger.Warn(ctx, "failed to forget pair catalog", "error", err)
			}
			d.scan(ctx)
			ticker.Reset(d.config.Interval)
		}
	}
}

func (d *Detector) scan(ctx context.Context) {
	if d.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ScanTimeout)
		defer cancel()
	}

	result, err := d.scanner.Execute(ctx, d.config.Filters)
	d.scans.Add(1)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Warn(ctx, "scan failed", "error", err)
		}
		d.reporter.ReportError(err)
	} else {
		d.reporter.ReportScan(result)
	}

	d.reporter.UpdateSourceStatus(d.statuses())
}

func (d *Detector) statuses() []SourceStatus {
	out := make([]SourceStatus, 0, len(d.sources))
	for _, src := range d.sources {
		st := SourceStatus{Name: src.Name(), Healthy: true, Detail: "ok"}
		if r, ok := src.(pricingApp.StatusReporter); ok {
			st.Healthy, st.Detail = r.Status()
		}
		out = append(out, st)
	}
	return out
}

// Scans returns how many scans have run.
func (d *Detector) Scans() uint64 {
	return d.scans.Load()
}

// TogglePause pauses or resumes periodic scans. It returns true when paused.
func (d *Detector) TogglePause() bool {
	for {
		old := d.paused.Load()
		if d.paused.CompareAndSwap(old, !old) {
			d.logger.Info(context.Background(), "detector pause toggled", "paused", !old)
			return !old
		}
	}
}

// Paused reports whether periodic scans are suspended.
func (d *Detector) Paused() bool {
	return d.paused.Load()
}

// RefreshCatalog asks the loop to drop the cached pairs and scan now.
// Requests made while one is pending are merged.
func (d *Detector) RefreshCatalog() {
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

// Stop waits for the loop to exit and shuts down the reporter. The context
// passed to Start must be cancelled first.
func (d *Detector) Stop() error {
	d.wg.Wait()
	d.logger.Info(context.Background(), "stopping arbitrage detector", "scans", d.scans.Load())
	return d.reporter.Stop()
}

var _ Controls = (*Detector)(nil)
