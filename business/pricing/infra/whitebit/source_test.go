package whitebit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

const tickerJSON = `{
  "BTC_USDT": {"base_id":1,"quote_id":825,"last_price":"42380.20","quote_volume":"1","base_volume":"1","isFrozen":false,"change":"0.1"},
  "ETH_USDT": {"last_price":"2251.00","isFrozen":false},
  "FRZ_USDT": {"last_price":"1.00","isFrozen":true},
  "BAD_USDT": {"last_price":"n/a","isFrozen":false}
}`

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
		assert.Equal(t, tickerEndpoint, r.URL.Path)
		w.Write([]byte(tickerJSON))
	})

	q, err := src.FetchOne(context.Background(), "btc/usdt")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", q.Pair)
	assert.Equal(t, Name, q.Source)
	assert.Equal(t, "42380.2", q.Price.String())
}

func TestSource_FetchOne_Errors(t *testing.T) {
	tests := []struct {
		name     string
		pair     string
		wantCode apperror.Code
	}{
		{"unlisted", "XRP/USDT", apperror.CodeUnknownSymbol},
		{"frozen", "FRZ/USDT", apperror.CodeUnknownSymbol},
		{"unparseable_price", "BAD/USDT", apperror.CodeInvalidTicker},
	}

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tickerJSON))
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.FetchOne(context.Background(), tt.pair)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}

func TestSource_FetchAll(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tickerJSON))
	})

	quotes, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC/USDT", quotes[0].Pair)
	assert.Equal(t, "ETH/USDT", quotes[1].Pair)
}

func TestSource_FetchAll_NullBody(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	_, err := src.FetchAll(context.Background())
	assert.Equal(t, apperror.CodeInvalidTicker, apperror.GetCode(err))
}

func TestSource_ListAvailablePairs(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, marketsEndpoint, r.URL.Path)
		w.Write([]byte(`[
			{"name":"BTC_USDT","stock":"BTC","money":"USDT","tradesEnabled":true,"type":"spot"},
			{"name":"ETH_BTC","stock":"ETH","money":"BTC","tradesEnabled":true,"type":"spot"},
			{"name":"BTC_PERP","stock":"BTC","money":"USDT","tradesEnabled":true,"type":"futures"},
			{"name":"OFF_USDT","stock":"OFF","money":"USDT","tradesEnabled":false,"type":"spot"}
		]`))
	})

	pairs, err := src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/BTC"}, pairs)
}
