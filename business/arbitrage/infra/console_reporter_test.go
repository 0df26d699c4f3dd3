package infra

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-scanner/business/arbitrage/app"
	"github.com/fd1az/arbitrage-scanner/business/arbitrage/domain"
)

func sampleResult(top *int) *app.ScanResult {
	return &app.ScanResult{
		ID:        uuid.MustParse("0b7e3c1a-9f0d-4c55-8d1e-5a4a2b3c4d5e"),
		ScannedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Opportunities: []domain.Opportunity{{
			Pair:          "BTC/USDT",
			BuySource:     "Binance",
			SellSource:    "Bybit",
			BuyPrice:      decimal.RequireFromString("42150.5"),
			SellPrice:     decimal.RequireFromString("42380.2"),
			ProfitPercent: decimal.RequireFromString("0.5449"),
		}},
		TotalFound:    3,
		PairsChecked:  12,
		Filters:       app.Filters{MinProfit: decimal.RequireFromString("0.1"), Top: top},
		FailedSources: []string{"JBEX"},
	}
}

func TestWriteScanResult(t *testing.T) {
	top := 1
	var buf bytes.Buffer

	WriteScanResult(&buf, sampleResult(&top))

	out := buf.String()
	for _, want := range []string{
		"Filters: min profit 0.1%, top 1",
		"Buy From", "Sell Price", "Profit %",
		"BTC/USDT", "42150.50000000", "42380.20000000", "0.54%",
		"Showing 1 of 3 opportunities across 12 common pairs.",
		"Skipped exchanges: JBEX",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteScanResult_Empty(t *testing.T) {
	res := sampleResult(nil)
	res.Opportunities = nil
	res.TotalFound = 0
	res.FailedSources = nil
	var buf bytes.Buffer

	WriteScanResult(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "top none")
	assert.Contains(t, out, "No arbitrage opportunities found above 0.1% across 12 common pairs.")
	assert.NotContains(t, out, "Skipped")
}

func TestConsoleReporter_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	require.NoError(t, r.Start(context.Background()))
	r.ReportScan(sampleResult(nil))
	r.ReportError(errors.New("no common pairs"))
	r.UpdateSourceStatus([]app.SourceStatus{{Name: "Binance", Healthy: true, Detail: "circuit closed"}})
	r.UpdateSourceStatus([]app.SourceStatus{{Name: "Binance", Healthy: true, Detail: "circuit closed"}})
	r.UpdateSourceStatus([]app.SourceStatus{{Name: "Binance", Healthy: false, Detail: "circuit open"}})
	require.NoError(t, r.Stop())

	out := buf.String()
	assert.Contains(t, out, "Arbitrage Scanner Started")
	assert.Contains(t, out, "scan 0b7e3c1a")
	assert.Contains(t, out, "scan failed: no common pairs")
	assert.Equal(t, 1, strings.Count(out, "Binance: healthy"), "unchanged status is printed once")
	assert.Contains(t, out, "Binance: unhealthy (circuit open)")
	assert.Contains(t, out, "Arbitrage Scanner Stopped")
}
