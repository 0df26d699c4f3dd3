package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message_only",
			err:  New(CodeNoCommonPairs),
			want: "No trading pairs are common to all exchanges (code: NO_COMMON_PAIRS)",
		},
		{
			name: "context_and_sources",
			err:  New(CodeAllSourcesUnavailable, WithContext("fetch tickers"), WithSources("Binance", "Bybit")),
			want: "All exchanges are unavailable: fetch tickers [Binance, Bybit] (code: ALL_SOURCES_UNAVAILABLE)",
		},
		{
			name: "cause",
			err:  New(CodeExchangeRateLimited, WithContext("Binance"), WithCause(errors.New("status 429"))),
			want: "Exchange rate limit exceeded: Binance: status 429 (code: EXCHANGE_RATE_LIMITED)",
		},
		{
			name: "custom_message",
			err:  New(CodeInvalidInput, WithMessage("bad pair")),
			want: "bad pair (code: INVALID_INPUT)",
		},
		{
			name: "unknown_code_uses_code_as_message",
			err:  New(Code("SOMETHING_NEW")),
			want: "SOMETHING_NEW (code: SOMETHING_NEW)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("scan: %w", New(CodePairNotFound, WithContext("XYZ/USDT")))

	assert.ErrorIs(t, err, New(CodePairNotFound))
	assert.NotErrorIs(t, err, New(CodeNoCommonPairs))
}

func TestHasCode(t *testing.T) {
	inner := New(CodeExchangeRateLimited, WithContext("Bybit"))
	outer := External(CodeAllSourcesUnavailable, "fetch tickers", inner)

	assert.True(t, HasCode(outer, CodeAllSourcesUnavailable))
	assert.True(t, HasCode(outer, CodeExchangeRateLimited), "cause chain is searched")
	assert.False(t, HasCode(outer, CodeCircuitOpen))
	assert.False(t, HasCode(errors.New("plain"), CodeCircuitOpen))
	assert.False(t, HasCode(nil, CodeCircuitOpen))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeConfigurationError, GetCode(fmt.Errorf("wrapped: %w", New(CodeConfigurationError))))
	assert.Equal(t, CodeUnknownError, GetCode(errors.New("plain")))
}

func TestSourcesOf(t *testing.T) {
	sources := []string{"A", "B"}
	err := New(CodeAllSourcesUnavailable, WithSources(sources...))
	sources[0] = "mutated"

	assert.Equal(t, []string{"A", "B"}, SourcesOf(err), "sources are copied")
	assert.Nil(t, SourcesOf(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternalError, "ctx"))
	})

	t.Run("plain_error_becomes_internal", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause, CodeInternalError, "decode")

		require.NotNil(t, err)
		assert.Equal(t, CodeInternalError, err.Code)
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("app_error_is_kept", func(t *testing.T) {
		orig := New(CodeCircuitOpen)
		err := Wrap(orig, CodeInternalError, "Binance")

		assert.Same(t, orig, err)
		assert.Equal(t, "Binance", err.Context)
	})
}

func TestDefaultStatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodePairNotFound, http.StatusNotFound},
		{CodeNoCommonPairs, http.StatusNotFound},
		{CodeConfigurationError, http.StatusBadRequest},
		{CodeInvalidTicker, http.StatusBadRequest},
		{CodeExchangeUnavailable, http.StatusServiceUnavailable},
		{CodeCircuitOpen, http.StatusServiceUnavailable},
		{CodeExchangeRateLimited, http.StatusTooManyRequests},
		{CodeExchangeRejected, http.StatusBadGateway},
		{CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code).StatusCode)
		})
	}
}

func TestAppError_ToLog(t *testing.T) {
	err := New(CodeExchangeRejected, WithContext("JBEX"), WithCause(errors.New("status 400")), WithSources("JBEX"))

	fields := err.ToLog()

	assert.Equal(t, CodeExchangeRejected, fields["code"])
	assert.Equal(t, "JBEX", fields["context"])
	assert.Equal(t, "status 400", fields["cause"])
	assert.Equal(t, []string{"JBEX"}, fields["sources"])
	assert.NotEmpty(t, fields["stack"])
	assert.NotContains(t, fields, "traceId")
}
