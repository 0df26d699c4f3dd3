package poloniex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/exchange"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
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

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := New(exchange.Config{BaseURL: server.URL, RequestsPerMinute: -1}, &mockLogger{})
	require.NoError(t, err)
	return src
}

func TestSource_FetchOne(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/BTC_USDT/price", r.URL.Path)
		w.Write([]byte(`{"symbol":"BTC_USDT","price":"42200.01","time":1700000000999,"dailyChange":"0.01","ts":1700000001000}`))
	})

	q, err := src.FetchOne(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", q.Pair)
	assert.Equal(t, "42200.01", q.Price.String())
	assert.Equal(t, time.UnixMilli(1700000000999), q.ObservedAt)
}

func TestSource_FetchOne_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  apperror.Code
		transient bool
	}{
		{"unknown_symbol", http.StatusBadRequest, `{"code":21607,"message":"Invalid symbol!"}`, apperror.CodeExchangeRejected, false},
		{"maintenance", http.StatusServiceUnavailable, ``, apperror.CodeServiceUnavailable, true},
		{"mismatched_symbol", http.StatusOK, `{"symbol":"ETH_USDT","price":"1"}`, apperror.CodeInvalidTicker, false},
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

func TestSource_FetchAll(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pricesEndpoint, r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"BTC_USDT","price":"42000","ts":1700000000000},
			{"symbol":"TRX_USDT","price":"0"},
			{"symbol":"NOSEP","price":"1"},
			{"symbol":"ETH_BTC","price":"0.0531","time":1700000000500}
		]`))
	})

	quotes, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC/USDT", quotes[0].Pair)
	assert.Equal(t, int64(1700000000000), quotes[0].ObservedAt.UnixMilli())
	assert.Equal(t, "ETH/BTC", quotes[1].Pair)
}

func TestSource_ListAvailablePairs(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, marketsEndpoint, r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"BTC_USDT","baseCurrencyName":"BTC","quoteCurrencyName":"USDT","state":"NORMAL"},
			{"symbol":"ETH_USDT","baseCurrencyName":"ETH","quoteCurrencyName":"USDT","state":"NORMAL"},
			{"symbol":"XYZ_USDT","baseCurrencyName":"XYZ","quoteCurrencyName":"USDT","state":"OFFLINE"}
		]`))
	})

	pairs, err := src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, pairs)
}
