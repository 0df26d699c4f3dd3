package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	mp, err := NewMetricProvider(
		WithServiceName("scanner-test"),
		WithProviderConfig(NewPrometheusConfig()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	require.NotNil(t, mp.Registry)

	counter, err := mp.Meter("test").Int64Counter("arbitrage.scans")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	srv := NewPrometheusServer(mp.Registry, logger.New(io.Discard, logger.LevelError, "", nil))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "arbitrage_scans_total")
}

func TestNewMetricProvider_NoReaders(t *testing.T) {
	mp, err := NewMetricProvider()
	require.NoError(t, err)

	assert.Nil(t, mp.Registry)
	assert.NoError(t, mp.Shutdown(context.Background()))
}
