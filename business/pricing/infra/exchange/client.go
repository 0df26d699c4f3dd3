// Package exchange holds the plumbing shared by the REST exchange adapters:
// an instrumented, throttled HTTP client behind a circuit breaker, error
// classification and a lazily loaded market index.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/circuitbreaker"
	"github.com/fd1az/arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
	"github.com/fd1az/arbitrage-scanner/internal/ratelimit"
)

// Defaults applied when the configuration leaves a field empty.
const (
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerMinute = 1200
)

// Config configures one exchange client.
type Config struct {
	Name              string
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration

	// Headers are sent with every request.
	Headers map[string]string
	// SensitiveHeaders are masked when headers are traced.
	SensitiveHeaders []string
	// TraceBodies records response bodies as span events.
	TraceBodies bool

	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	// Breaker overrides the circuit breaker settings.
	Breaker *circuitbreaker.Config
}

// Client performs GET requests against one exchange.
type Client struct {
	name      string
	http      httpclient.Client
	breaker   *circuitbreaker.CircuitBreaker[[]byte]
	sensitive []string
	logger    logger.LoggerInterface
}

// NewClient builds a Client with its own rate limiter and circuit breaker.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.Name == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("exchange name is required"))
	}
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(cfg.Name+": base url is required"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	opts := []httpclient.ClientOption{
		httpclient.WithProviderName(cfg.Name),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(cfg.Headers),
		httpclient.WithLimiter(ratelimit.New(cfg.RequestsPerMinute)),
	}
	if cfg.Transport != nil {
		opts = append(opts, httpclient.WithRoundTripper(cfg.Transport))
	}
	if cfg.TraceBodies {
		opts = append(opts, httpclient.WithResponseTracing(otel.Tracer("exchange/"+cfg.Name)))
	}

	hc, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, cfg.Name+": http client", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
		breakerCfg.Name = cfg.Name
	}
	// Rejected requests prove the exchange is reachable.
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || !countsAgainstBreaker(err)
	}
	breakerCfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn(context.Background(), "exchange circuit breaker state changed",
			"exchange", name, "from", from.String(), "to", to.String())
	}

	return &Client{
		name:      cfg.Name,
		http:      hc,
		breaker:   circuitbreaker.New[[]byte](breakerCfg),
		sensitive: cfg.SensitiveHeaders,
		logger:    log,
	}, nil
}

// Name returns the exchange name.
func (c *Client) Name() string {
	return c.name
}

// Status reports whether the breaker lets requests through.
func (c *Client) Status() (bool, string) {
	state := c.breaker.State()
	return state != circuitbreaker.StateOpen, "circuit " + state.String()
}

// Get fetches path and decodes the JSON body into out. Errors are classified
// with apperror codes so callers can tell transient from permanent failures.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		reqOpts := []httpclient.RequestOption{
			httpclient.WithResponseErrorHandler(c.statusError),
			httpclient.WithLabels(httpclient.NewLabel("endpoint", path)),
		}
		if len(c.sensitive) > 0 {
			reqOpts = append(reqOpts, httpclient.WithHeadersLogConfig(true, c.sensitive...))
		}

		resp, err := c.http.NewRequestWithOptions(reqOpts...).
			SetQuery(query).
			SetResult(out).
			Get(ctx, path)
		if err != nil {
			return nil, c.classify(path, err)
		}
		return resp.Body(), nil
	})
	if err != nil {
		if circuitbreaker.IsRejection(err) {
			return apperror.External(apperror.CodeCircuitOpen, c.name, err)
		}
		return err
	}
	return nil
}

// statusError maps HTTP status codes to apperror codes.
func (c *Client) statusError(status int, body []byte) error {
	if status < 400 {
		return nil
	}

	detail := fmt.Sprintf("%s: http %d", c.name, status)
	cause := &httpclient.StatusError{StatusCode: status, Body: truncateBody(body)}

	switch {
	case status == http.StatusTooManyRequests, status == http.StatusTeapot:
		// Binance answers 418 once an IP is auto-banned for ignoring 429s.
		return apperror.New(apperror.CodeExchangeRateLimited,
			apperror.WithContext(detail), apperror.WithCause(cause))
	case status >= 500:
		return apperror.External(apperror.CodeServiceUnavailable, detail, cause)
	default:
		return apperror.New(apperror.CodeExchangeRejected,
			apperror.WithContext(detail), apperror.WithCause(cause))
	}
}

func (c *Client) classify(path string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}

	detail := c.name + " " + path
	var decodeErr *httpclient.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return apperror.New(apperror.CodeInvalidTicker,
			apperror.WithContext(detail+": malformed payload"), apperror.WithCause(err))
	case errors.Is(err, ratelimit.ErrWaitAborted):
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithContext(detail), apperror.WithCause(err))
	default:
		return apperror.External(apperror.CodeExchangeConnectionFailed, detail, err)
	}
}

// countsAgainstBreaker reports whether err says the exchange is unhealthy,
// as opposed to the request being wrong.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch apperror.GetCode(err) {
	case apperror.CodeExchangeRejected, apperror.CodeInvalidTicker, apperror.CodeUnknownSymbol:
		return false
	}
	return true
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
