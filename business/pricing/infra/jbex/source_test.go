package jbex

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

func newTestSource(t *testing.T, apiKey string, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := New(exchange.Config{BaseURL: server.URL, APIKey: apiKey, RequestsPerMinute: -1}, &mockLogger{})
	require.NoError(t, err)
	return src
}

func TestSource_FetchOne_SendsAPIKey(t *testing.T) {
	src := newTestSource(t, "secret-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get(apiKeyHeader))
		assert.Equal(t, tickerPriceEndpoint, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"42150.50"}`))
	})

	q, err := src.FetchOne(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", q.Pair)
	assert.Equal(t, Name, q.Source)
	assert.Equal(t, "42150.5", q.Price.String())
}

func TestSource_FetchOne_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	src := newTestSource(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header[http.CanonicalHeaderKey(apiKeyHeader)]
		assert.False(t, present)
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"1"}`))
	})

	_, err := src.FetchOne(context.Background(), "BTC/USDT")
	require.NoError(t, err)
}

func TestSource_FetchOne_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperror.Code
	}{
		{"missing_price", http.StatusOK, `{"symbol":"BTCUSDT"}`, apperror.CodeUnknownSymbol},
		{"zero_price", http.StatusOK, `{"symbol":"BTCUSDT","price":"0"}`, apperror.CodeInvalidTicker},
		{"bad_request", http.StatusBadRequest, `{"code":-100011,"msg":"Invalid symbol"}`, apperror.CodeExchangeRejected},
		{"unauthorized", http.StatusUnauthorized, `{"code":-1002,"msg":"Unauthorized"}`, apperror.CodeExchangeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, "", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := src.FetchOne(context.Background(), "BTC/USDT")
			assert.True(t, apperror.HasCode(err, tt.wantCode), "expected %s, got %v", tt.wantCode, err)
		})
	}
}

func TestSource_FetchAll(t *testing.T) {
	src := newTestSource(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","price":"42100"},
			{"symbol":"ETHBTC","price":"0.053"},
			{"symbol":"USDT","price":"1"},
			{"symbol":"XRPEUR","price":"0.5"},
			{"symbol":"SOLUSDC"}
		]`))
	})

	quotes, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "BTC/USDT", quotes[0].Pair)
	assert.Equal(t, "ETH/BTC", quotes[1].Pair)
}

func TestSource_ListAvailablePairs(t *testing.T) {
	src := newTestSource(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, brokerInfoEndpoint, r.URL.Path)
		w.Write([]byte(`{"serverTime":1700000000000,"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
			{"symbol":"ETHUSDT"},
			{"symbol":"DOTUSDT","status":"HALT"}
		]}`))
	})

	pairs, err := src.ListAvailablePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, pairs)
}

func TestSource_ListAvailablePairs_InvalidPayload(t *testing.T) {
	src := newTestSource(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverTime":1}`))
	})

	_, err := src.ListAvailablePairs(context.Background())
	assert.Equal(t, apperror.CodeInvalidTicker, apperror.GetCode(err))
}
