// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/domain"
	"github.com/fd1az/arbitrage-scanner/pkg/ui/components"
)

// ConsoleReporter implements Reporter for plain terminal output.
type ConsoleReporter struct {
	mu       sync.Mutex
	out      io.Writer
	statuses map[string]app.SourceStatus
}

// NewConsoleReporter creates a ConsoleReporter. A nil writer means stdout.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{
		out:      out,
		statuses: make(map[string]app.SourceStatus),
	}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Arbitrage Scanner Started")
	fmt.Fprintln(r.out, "=========================")
	return nil
}

// ReportScan prints the ranked opportunities of one scan.
func (r *ConsoleReporter) ReportScan(result *app.ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintf(r.out, "[%s] scan %s\n", result.ScannedAt.Format("15:04:05"), shortID(result))
	WriteScanResult(r.out, result)
}

// ReportError prints a failed scan.
func (r *ConsoleReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] scan failed: %v\n", time.Now().Format("15:04:05"), err)
}

// UpdateSourceStatus prints exchanges whose health changed.
func (r *ConsoleReporter) UpdateSourceStatus(statuses []app.SourceStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range statuses {
		prev, seen := r.statuses[st.Name]
		r.statuses[st.Name] = st
		if seen && prev.Healthy == st.Healthy {
			continue
		}
		state := "healthy"
		if !st.Healthy {
			state = "unhealthy"
		}
		fmt.Fprintf(r.out, "[%s] %s: %s (%s)\n", time.Now().Format("15:04:05"), st.Name, state, st.Detail)
	}
}

// Stop prints the closing line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Arbitrage Scanner Stopped")
	return nil
}

func shortID(result *app.ScanResult) string {
	id := result.ID.String()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// WriteScanResult prints the filters, the opportunity table and the
// summary lines of a scan.
func WriteScanResult(w io.Writer, result *app.ScanResult) {
	top := "none"
	if result.Filters.Top != nil {
		top = fmt.Sprintf("%d", *result.Filters.Top)
	}
	fmt.Fprintf(w, "Filters: min profit %s%%, top %s\n", result.Filters.MinProfit.String(), top)

	if len(result.Opportunities) == 0 {
		fmt.Fprintf(w, "No arbitrage opportunities found above %s%% across %d common pairs.\n",
			result.Filters.MinProfit.String(), result.PairsChecked)
	} else {
		fmt.Fprintln(w, RenderOpportunities(result.Opportunities))
		fmt.Fprintf(w, "Showing %d of %d opportunities across %d common pairs.\n",
			len(result.Opportunities), result.TotalFound, result.PairsChecked)
	}

	if len(result.FailedSources) > 0 {
		fmt.Fprintf(w, "Skipped exchanges: %s\n", strings.Join(result.FailedSources, ", "))
	}
}

// RenderOpportunities draws the opportunity table.
func RenderOpportunities(opps []domain.Opportunity) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(components.OpportunityHeaders[1:]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, row := range OpportunityRows(opps) {
		t.Row(row.Cells(i + 1)[1:]...)
	}
	return t.Render()
}

// OpportunityRows converts opportunities for display.
func OpportunityRows(opps []domain.Opportunity) []components.OpportunityRow {
	rows := make([]components.OpportunityRow, len(opps))
	for i, o := range opps {
		rows[i] = components.OpportunityRow{
			Pair:       o.Pair,
			BuySource:  o.BuySource,
			BuyPrice:   o.BuyPrice,
			SellSource: o.SellSource,
			SellPrice:  o.SellPrice,
			Profit:     o.ProfitPercent,
		}
	}
	return rows
}

var _ app.Reporter = (*ConsoleReporter)(nil)
