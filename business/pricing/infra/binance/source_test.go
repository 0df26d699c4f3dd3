package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/exchange"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/cache"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

const exchangeInfoJSON = `{
  "symbols": [
    {"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT","isSpotTradingAllowed":true},
    {"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC","isSpotTradingAllowed":true},
    {"symbol":"LUNAUSDT","status":"BREAK","baseAsset":"LUNA","quoteAsset":"USDT","isSpotTradingAllowed":true},
    {"symbol":"BTCUSDC","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDC","isSpotTradingAllowed":false}
  ]
}`

var fixedNow = time.UnixMilli(1700000000123)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := New(exchange.Config{BaseURL: server.URL, RequestsPerMinute: -1}, &mockLogger{})
	require.NoError(t, err)
	src.now = func() time.Time { return fixedNow }
	return src
}

func TestSource_FetchOne(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tickerPriceEndpoint, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"42150.50000000"}`))
	})

	q, err := src.FetchOne(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", q.Pair)
	assert.Equal(t, Name, q.Source)
	assert.Equal(t, "42150.5", q.Price.String())
	assert.Equal(t, fixedNow.UnixMilli(), q.ObservedAt.UnixMilli())
}

func TestSource_FetchOne_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  apperror.Code
		transient bool
	}{
		{"server_error", http.StatusBadGateway, `oops`, apperror.CodeServiceUnavailable, true},
		{"rate_limited", http.StatusTooManyRequests, `{"code":-1003,"msg":"Too many requests"}`, apperror.CodeExchangeRateLimited, true},
		{"ip_banned", http.StatusTeapot, `{"code":-1003,"msg":"banned"}`, apperror.CodeExchangeRateLimited, true},
		{"invalid_symbol", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, apperror.CodeExchangeRejected, false},
		{"zero_price", http.StatusOK, `{"symbol":"BTCUSDT","price":"0.00000000"}`, apperror.CodeInvalidTicker, false},
		{"garbage_price", http.StatusOK, `{"symbol":"BTCUSDT","price":"abc"}`, apperror.CodeInvalidTicker, false},
		{"malformed_json", http.StatusOK, `{"symbol":`, apperror.CodeInvalidTicker, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := src.FetchOne(context.Background(), "BTC/USDT")
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), "expected %s, got %v", tt.wantCode, err)
			assert.Equal(t, tt.transient, app.IsTransient(err))
		})
	}
}

func TestSource_FetchOne_InvalidPair(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a malformed pair")
	})

	_, err := src.FetchOne(context.Background(), "BTCUSDT")
	assert.Equal(t, apperror.CodeInvalidInput, apperror.GetCode(err))
}

const haltedBTCExchangeInfoJSON = `{
  "symbols": [
    {"symbol":"BTCUSDT","status":"HALT","baseAsset":"BTC","quoteAsset":"USDT","isSpotTradingAllowed":true},
    {"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC","isSpotTradingAllowed":true}
  ]
}`

func TestSource_ListAvailablePairs(t *testing.T) {
	calls := 0
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, exchangeInfoEndpoint, r.URL.Path)
		if calls == 1 {
			w.Write([]byte(exchangeInfoJSON))
			return
		}
		w.Write([]byte(haltedBTCExchangeInfoJSON))
	})

	pairs, err := src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/BTC"}, pairs)

	pairs, err = src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH/BTC"}, pairs)
	assert.Equal(t, 2, calls, "markets are re-read on every listing")
}

func TestSource_CatalogForgetDropsHaltedPair(t *testing.T) {
	var halted atomic.Bool
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if halted.Load() {
			w.Write([]byte(haltedBTCExchangeInfoJSON))
			return
		}
		w.Write([]byte(exchangeInfoJSON))
	})
	store := cache.NewMemoryStore[[]string](0)
	t.Cleanup(store.Close)
	catalog := app.NewPairCatalog([]app.QuoteSource{src}, app.NewFetcher(app.DefaultFetchPolicy(), &mockLogger{}), store, time.Hour, &mockLogger{})
	ctx := context.Background()

	before, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/BTC"}, before)

	halted.Store(true)
	cached, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, cached, "served from cache until forgotten")

	require.NoError(t, catalog.Forget(ctx))
	after, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH/BTC"}, after)
}

func TestSource_ListAvailablePairs_RetriesAfterFailure(t *testing.T) {
	calls := 0
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(exchangeInfoJSON))
	})

	_, err := src.ListAvailablePairs(context.Background())
	require.Error(t, err)

	pairs, err := src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestSource_FetchAll(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case exchangeInfoEndpoint:
			w.Write([]byte(exchangeInfoJSON))
		case tickerPriceEndpoint:
			assert.Empty(t, r.URL.Query().Get("symbol"))
			w.Write([]byte(`[
				{"symbol":"BTCUSDT","price":"42000.10"},
				{"symbol":"ETHBTC","price":"0.05"},
				{"symbol":"LUNAUSDT","price":"0.0001"},
				{"symbol":"XRPUSDT","price":"0"}
			]`))
		}
	})

	quotes, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC/USDT", quotes[0].Pair)
	assert.Equal(t, "ETH/BTC", quotes[1].Pair)
}

func TestSource_FetchAll_SplitsWithoutMarkets(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case exchangeInfoEndpoint:
			w.WriteHeader(http.StatusInternalServerError)
		case tickerPriceEndpoint:
			w.Write([]byte(`[
				{"symbol":"BTCUSDT","price":"42000.10"},
				{"symbol":"SOLBNB","price":"0.3"},
				{"symbol":"WEIRD","price":"1"},
				{"symbol":"ETHUSDC","price":"bad"}
			]`))
		}
	})

	quotes, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC/USDT", quotes[0].Pair)
	assert.Equal(t, "SOL/BNB", quotes[1].Pair)
}

func TestSource_Status(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {})

	healthy, detail := src.Status()
	assert.True(t, healthy)
	assert.Contains(t, detail, "closed")
}
