// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// OpportunityRow is one ranked opportunity.
type OpportunityRow struct {
	Pair       string
	BuySource  string
	BuyPrice   decimal.Decimal
	SellSource string
	SellPrice  decimal.Decimal
	Profit     decimal.Decimal
}

// OpportunityHeaders are the column titles shared by every opportunity table.
var OpportunityHeaders = []string{"#", "Pair", "Buy From", "Buy Price", "Sell To", "Sell Price", "Profit %"}

// Cells renders the row for a table, prices with 8 decimals and profit with 2.
func (r OpportunityRow) Cells(rank int) []string {
	return []string{
		strconv.Itoa(rank),
		r.Pair,
		r.BuySource,
		r.BuyPrice.StringFixed(8),
		r.SellSource,
		r.SellPrice.StringFixed(8),
		r.Profit.StringFixed(2) + "%",
	}
}

// OpportunitiesComponent renders the latest ranked opportunities.
type OpportunitiesComponent struct {
	rows       []OpportunityRow
	totalFound int
	offset     int
	maxVisible int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxVisible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{maxVisible: maxVisible}
}

// Set replaces the rows with the latest scan. The scroll position is kept
// when it still fits.
func (o *OpportunitiesComponent) Set(rows []OpportunityRow, totalFound int) {
	o.rows = rows
	o.totalFound = totalFound
	if o.offset > o.maxOffset() {
		o.offset = o.maxOffset()
	}
}

// Len returns the number of rows held.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// ScrollUp moves the window one row up.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window one row down.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset < o.maxOffset() {
		o.offset++
	}
}

func (o *OpportunitiesComponent) maxOffset() int {
	if n := len(o.rows) - o.maxVisible; n > 0 {
		return n
	}
	return 0
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	title := headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d found)", o.totalFound))
	if len(o.rows) == 0 {
		return title + "\n\n" + mutedStyle.Render("  No opportunities above the threshold")
	}

	end := o.offset + o.maxVisible
	if end > len(o.rows) {
		end = len(o.rows)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))).
		Headers(OpportunityHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == len(OpportunityHeaders)-1:
				return profitStyle
			default:
				return cellStyle
			}
		})
	for i := o.offset; i < end; i++ {
		t.Row(o.rows[i].Cells(i + 1)...)
	}

	view := title + "\n" + t.Render()
	if len(o.rows) > o.maxVisible {
		view += "\n" + mutedStyle.Render(fmt.Sprintf("  rows %d-%d of %d", o.offset+1, end, len(o.rows)))
	}
	return view
}
