package infra

import (
	"context"
	"sync"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/pkg/ui"
	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// TUIReporter implements Reporter for the Bubble Tea dashboard.
type TUIReporter struct {
	mu        sync.Mutex
	opts      ui.Options
	onQuit    func()
	dashboard *ui.Dashboard
}

// NewTUIReporter creates a TUIReporter. onQuit runs when the user leaves
// the dashboard.
func NewTUIReporter(opts ui.Options, onQuit func()) *TUIReporter {
	return &TUIReporter{opts: opts, onQuit: onQuit}
}

// SetControls wires the keyboard to the detector. It must be called before Start.
func (r *TUIReporter) SetControls(c app.Controls) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts.Controls = c
}

// Start launches the dashboard.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboard = ui.NewDashboard(ui.New(r.opts))
	r.dashboard.Start(r.onQuit)
	return nil
}

func (r *TUIReporter) send(msg any) {
	r.mu.Lock()
	d := r.dashboard
	r.mu.Unlock()
	if d != nil {
		d.Send(msg)
	}
}

// ReportScan sends a completed scan to the dashboard.
func (r *TUIReporter) ReportScan(result *app.ScanResult) {
	r.send(ui.ScanMsg{
		ID:            result.ID.String(),
		At:            result.ScannedAt,
		Duration:      result.Duration,
		Rows:          OpportunityRows(result.Opportunities),
		TotalFound:    result.TotalFound,
		PairsChecked:  result.PairsChecked,
		FailedSources: result.FailedSources,
	})
}

// ReportError sends a failed scan to the dashboard.
func (r *TUIReporter) ReportError(err error) {
	r.send(ui.ErrorMsg{Error: err})
}

// UpdateSourceStatus sends exchange health to the dashboard.
func (r *TUIReporter) UpdateSourceStatus(statuses []app.SourceStatus) {
	out := make([]components.SourceStatus, len(statuses))
	for i, st := range statuses {
		out[i] = components.SourceStatus{Name: st.Name, Healthy: st.Healthy, Detail: st.Detail}
	}
	r.send(ui.SourceStatusMsg{Sources: out})
}

// Stop quits the dashboard and waits for the terminal to be restored.
func (r *TUIReporter) Stop() error {
	r.mu.Lock()
	d := r.dashboard
	r.mu.Unlock()
	if d == nil {
		return nil
	}
	return d.Stop()
}

var _ app.Reporter = (*TUIReporter)(nil)
