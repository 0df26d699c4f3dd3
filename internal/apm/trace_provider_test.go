package apm

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestNewTraceProvider_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()

	tp, err := NewTraceProvider(testLogger(), WithServiceName("scanner-test"), WithExporter("memory", exp))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "arbitrage.scan")
	span.End()
	require.NoError(t, tp.Stop())

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "arbitrage.scan", spans[0].Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "scanner-test", service)
}

func TestNewTraceProvider_Empty(t *testing.T) {
	tests := []struct {
		name string
		opts []TracerOption
	}{
		{name: "no_options"},
		{name: "none_provider", opts: []TracerOption{WithProvider(EmptyProvider, ExporterConfig{}, testLogger())}},
		{name: "unknown_provider", opts: []TracerOption{WithProvider("jaeger", ExporterConfig{}, testLogger())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTraceProvider(testLogger(), tt.opts...)
			require.NoError(t, err)
			assert.IsType(t, emptyTraceProvider{}, tp)
			assert.NoError(t, tp.Stop())
		})
	}
}

func TestNewTraceProvider_Console(t *testing.T) {
	var buf bytes.Buffer

	tp, err := NewTraceProvider(testLogger(),
		WithServiceName("scanner-test"),
		WithProvider(ConsoleProvider, ExporterConfig{Console: &buf}, testLogger()),
	)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "pricing.fetch")
	span.End()
	require.NoError(t, tp.Stop())

	assert.Contains(t, buf.String(), "pricing.fetch")
}
