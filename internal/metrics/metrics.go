// Package metrics configures the global OpenTelemetry meter provider and
// the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metric2 "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// MeterProvider is the SDK meter provider plus the registry the Prometheus reader
// writes to. Registry is nil when no Prometheus reader is configured.
type MeterProvider struct {
	*metric2.MeterProvider
	Registry *promclient.Registry
}

var _ MetricProvider = (*MeterProvider)(nil)

func getReaders(ctx context.Context, cfg Config) ([]metric2.Reader, *promclient.Registry, error) {
	var readers []metric2.Reader
	var registry *promclient.Registry

	for _, provider := range cfg.Provider {
		switch provider.Provider {
		case PrometheusProvider:
			registry = promclient.NewRegistry()
			promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
			if err != nil {
				return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
			}

			readers = append(readers, promExporter)
		case OtelCollector:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(provider.Endpoint),
				otlpmetricgrpc.WithHeaders(provider.Headers),
			}

			if provider.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}

			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, nil, fmt.Errorf("otlp metric exporter: %w", err)
			}

			var readerOpts []metric2.PeriodicReaderOption
			if cfg.Interval > 0 {
				readerOpts = append(readerOpts, metric2.WithInterval(cfg.Interval))
			}
			readers = append(readers, metric2.NewPeriodicReader(exp, readerOpts...))
		}
	}

	return readers, registry, nil
}

// NewMetricProvider builds the meter provider and registers it globally.
// Without any provider config the global no-op provider is left in place.
func NewMetricProvider(options ...OptionFn) (*MeterProvider, error) {
	ctx := context.Background()

	var cfg Config

	for _, opt := range options {
		cfg = opt(cfg)
	}

	readers, registry, err := getReaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var metricsOps []metric2.Option

	for _, reader := range readers {
		metricsOps = append(metricsOps, metric2.WithReader(reader))
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	metricsOps = append(metricsOps, metric2.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	))

	meterProvider := metric2.NewMeterProvider(metricsOps...)

	if len(readers) > 0 {
		otel.SetMeterProvider(meterProvider)
	}

	return &MeterProvider{MeterProvider: meterProvider, Registry: registry}, nil
}

// Server exposes a Prometheus registry on /metrics.
type Server struct {
	server *http.Server
	log    logger.LoggerInterface
}

// NewPrometheusServer creates the scrape server. The default port is 2223.
func NewPrometheusServer(registry *promclient.Registry, log logger.LoggerInterface, opt ...PromOptionFn) *Server {
	cfg := PromServerConfig{port: 2223}

	for _, o := range opt {
		cfg = o(cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler returns the scrape handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	s.log.Info(context.Background(), "serving metrics", "addr", s.server.Addr, "path", "/metrics")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
