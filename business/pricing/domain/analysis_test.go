package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
)

func quote(source, price string) Quote {
	return NewQuote("BTC/USDT", decimal.RequireFromString(price), source, time.UnixMilli(1700000000000))
}

func TestFindExtremes(t *testing.T) {
	tests := []struct {
		name    string
		quotes  []Quote
		wantMin string // source of min
		wantMax string // source of max
	}{
		{
			name:    "single_quote_is_min_and_max",
			quotes:  []Quote{quote("Binance", "42150.50")},
			wantMin: "Binance",
			wantMax: "Binance",
		},
		{
			name: "distinct_prices",
			quotes: []Quote{
				quote("Binance", "100"),
				quote("Bybit", "110"),
				quote("WhiteBIT", "95"),
			},
			wantMin: "WhiteBIT",
			wantMax: "Bybit",
		},
		{
			name: "tie_on_min_keeps_first_seen",
			quotes: []Quote{
				quote("Binance", "100"),
				quote("Bybit", "100"),
				quote("JBEX", "120"),
			},
			wantMin: "Binance",
			wantMax: "JBEX",
		},
		{
			name: "tie_on_max_keeps_first_seen",
			quotes: []Quote{
				quote("Binance", "90"),
				quote("Bybit", "120"),
				quote("JBEX", "120"),
			},
			wantMin: "Binance",
			wantMax: "Bybit",
		},
		{
			name: "all_equal_first_wins_both",
			quotes: []Quote{
				quote("Poloniex", "10"),
				quote("Binance", "10"),
			},
			wantMin: "Poloniex",
			wantMax: "Poloniex",
		},
		{
			name: "zero_price_is_still_a_minimum",
			quotes: []Quote{
				quote("Binance", "10"),
				quote("Bybit", "0"),
			},
			wantMin: "Bybit",
			wantMax: "Binance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindExtremes(tt.quotes)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Min.Source != tt.wantMin {
				t.Errorf("expected min from %s, got %s", tt.wantMin, got.Min.Source)
			}
			if got.Max.Source != tt.wantMax {
				t.Errorf("expected max from %s, got %s", tt.wantMax, got.Max.Source)
			}
		})
	}
}

func TestFindExtremes_EmptyInput(t *testing.T) {
	_, err := FindExtremes(nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperror.CodeInvalidInput, apperror.GetCode(err))
	}
}

func TestDifference(t *testing.T) {
	tests := []struct {
		name         string
		min          string
		max          string
		wantAbsolute string
		wantPercent  string
	}{
		{
			name:         "ten_percent",
			min:          "100",
			max:          "110",
			wantAbsolute: "10",
			wantPercent:  "10",
		},
		{
			name:         "equal_prices",
			min:          "100",
			max:          "100",
			wantAbsolute: "0",
			wantPercent:  "0",
		},
		{
			name:         "fifty_percent",
			min:          "100",
			max:          "150",
			wantAbsolute: "50",
			wantPercent:  "50",
		},
		{
			name:         "reversed_arguments_are_negative",
			min:          "110",
			max:          "99",
			wantAbsolute: "-11",
			wantPercent:  "-10",
		},
		{
			name:         "fractional_prices",
			min:          "10",
			max:          "10.5",
			wantAbsolute: "0.5",
			wantPercent:  "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Difference(decimal.RequireFromString(tt.min), decimal.RequireFromString(tt.max))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Absolute.Equal(decimal.RequireFromString(tt.wantAbsolute)) {
				t.Errorf("absolute: expected %s, got %s", tt.wantAbsolute, got.Absolute)
			}
			if !got.Percent.Equal(decimal.RequireFromString(tt.wantPercent)) {
				t.Errorf("percent: expected %s, got %s", tt.wantPercent, got.Percent)
			}
		})
	}
}

func TestDifference_NonPositiveMin(t *testing.T) {
	for _, minPrice := range []string{"0", "-1"} {
		t.Run("min_"+minPrice, func(t *testing.T) {
			_, err := Difference(decimal.RequireFromString(minPrice), decimal.NewFromInt(100))
			if apperror.GetCode(err) != apperror.CodeInvalidInput {
				t.Fatalf("expected %s, got %v", apperror.CodeInvalidInput, err)
			}
		})
	}
}

func TestDifference_Precision(t *testing.T) {
	got, err := Difference(decimal.RequireFromString("42150.50"), decimal.RequireFromString("42380.20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := decimal.RequireFromString("0.545")
	tolerance := decimal.RequireFromString("0.001")
	if got.Percent.Sub(want).Abs().GreaterThan(tolerance) {
		t.Errorf("expected ~%s%%, got %s%%", want, got.Percent)
	}
}

func TestNewQuote_TruncatesToMillis(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)
	q := NewQuote("ETH/USDT", decimal.NewFromInt(1), "Bybit", at)

	if q.ObservedAt.UnixMilli() != at.UnixMilli() {
		t.Errorf("expected %d ms, got %d", at.UnixMilli(), q.ObservedAt.UnixMilli())
	}
	if q.ObservedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("expected millisecond resolution, got %d ns", q.ObservedAt.Nanosecond())
	}
}

func TestGroupByPair_KeepsOrder(t *testing.T) {
	quotes := []Quote{
		NewQuote("BTC/USDT", decimal.NewFromInt(1), "A", time.Now()),
		NewQuote("ETH/USDT", decimal.NewFromInt(2), "A", time.Now()),
		NewQuote("BTC/USDT", decimal.NewFromInt(3), "B", time.Now()),
	}

	grouped := GroupByPair(quotes)
	if len(grouped) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(grouped))
	}
	btc := grouped["BTC/USDT"]
	if len(btc) != 2 || btc[0].Source != "A" || btc[1].Source != "B" {
		t.Errorf("unexpected BTC/USDT group: %+v", btc)
	}
}
