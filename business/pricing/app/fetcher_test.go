package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/circuitbreaker"
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

// newTestFetcher returns a Fetcher that records waits instead of sleeping.
func newTestFetcher(waits *[]time.Duration) *Fetcher {
	f := NewFetcher(DefaultFetchPolicy(), &mockLogger{})
	f.sleep = func(ctx context.Context, d time.Duration) error {
		if waits != nil {
			*waits = append(*waits, d)
		}
		return ctx.Err()
	}
	return f
}

var (
	errTransient = apperror.External(apperror.CodeExchangeConnectionFailed, "test", errors.New("connection reset"))
	errPermanent = apperror.New(apperror.CodeExchangeRejected, apperror.WithContext("bad symbol"))
)

func TestFetch_Retries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error // returned by successive calls, nil means success
		wantCalls int
		wantWaits int
		wantCode  apperror.Code // empty means success
	}{
		{
			name:      "success_first_try",
			errs:      []error{nil},
			wantCalls: 1,
		},
		{
			name:      "transient_then_success",
			errs:      []error{errTransient, nil},
			wantCalls: 2,
			wantWaits: 1,
		},
		{
			name:      "two_transients_then_success",
			errs:      []error{errTransient, errTransient, nil},
			wantCalls: 3,
			wantWaits: 2,
		},
		{
			name:      "transient_exhausts_attempts",
			errs:      []error{errTransient, errTransient, errTransient, nil},
			wantCalls: 3,
			wantWaits: 2,
			wantCode:  apperror.CodeExchangeUnavailable,
		},
		{
			name:      "permanent_fails_immediately",
			errs:      []error{errPermanent, nil},
			wantCalls: 1,
			wantCode:  apperror.CodeExchangeProtocolError,
		},
		{
			name:      "transient_then_permanent",
			errs:      []error{errTransient, errPermanent},
			wantCalls: 2,
			wantWaits: 1,
			wantCode:  apperror.CodeExchangeProtocolError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var waits []time.Duration
			f := newTestFetcher(&waits)

			calls := 0
			got, err := Fetch(context.Background(), f, "Binance", func(ctx context.Context) (int, error) {
				e := tt.errs[calls]
				calls++
				if e != nil {
					return 0, e
				}
				return 42, nil
			})

			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if len(waits) != tt.wantWaits {
				t.Errorf("expected %d waits, got %d", tt.wantWaits, len(waits))
			}
			for _, w := range waits {
				if w != DefaultRetryDelay {
					t.Errorf("expected fixed delay %v, got %v", DefaultRetryDelay, w)
				}
			}

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != 42 {
					t.Errorf("expected 42, got %d", got)
				}
				return
			}

			if apperror.GetCode(err) != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			sources := apperror.SourcesOf(err)
			if len(sources) != 1 || sources[0] != "Binance" {
				t.Errorf("expected source Binance, got %v", sources)
			}
		})
	}
}

func TestFetch_UnavailableKeepsLastCause(t *testing.T) {
	f := newTestFetcher(nil)

	calls := 0
	_, err := Fetch(context.Background(), f, "Bybit", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, apperror.External(apperror.CodeServiceTimeout, fmt.Sprintf("attempt %d", calls), nil)
	})

	if !strings.Contains(err.Error(), "attempt 3") {
		t.Errorf("expected last cause in error, got %v", err)
	}
}

func TestFetch_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFetcher(FetchPolicy{Attempts: 3, Delay: time.Hour}, &mockLogger{})

	calls := 0
	_, err := Fetch(ctx, f, "JBEX", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if apperror.GetCode(err) != apperror.CodeExchangeUnavailable {
		t.Fatalf("expected %s, got %v", apperror.CodeExchangeUnavailable, err)
	}
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(FetchPolicy{}, &mockLogger{})
	if f.Policy().Attempts != DefaultAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultAttempts, f.Policy().Attempts)
	}

	f = NewFetcher(FetchPolicy{Attempts: 5, Delay: 0}, &mockLogger{})
	if f.Policy().Attempts != 5 || f.Policy().Delay != 0 {
		t.Errorf("expected explicit policy to be kept, got %+v", f.Policy())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"net_error", timeoutErr{}, true},
		{"wrapped_net_error", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"deadline_exceeded", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"breaker_open", circuitbreaker.ErrOpen, true},
		{"breaker_half_open_quota", circuitbreaker.ErrTooManyRequests, true},
		{"connection_failed", apperror.New(apperror.CodeExchangeConnectionFailed), true},
		{"rate_limited", apperror.New(apperror.CodeExchangeRateLimited), true},
		{"limiter_wait", apperror.New(apperror.CodeRateLimitExceeded), true},
		{"service_unavailable", apperror.New(apperror.CodeServiceUnavailable), true},
		{"rejected", apperror.New(apperror.CodeExchangeRejected), false},
		{"invalid_ticker", apperror.New(apperror.CodeInvalidTicker), false},
		{"unknown_symbol", apperror.New(apperror.CodeUnknownSymbol), false},
		{"plain_error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
