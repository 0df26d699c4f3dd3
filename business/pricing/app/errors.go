package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/circuitbreaker"
)

// transientCodes are adapter error codes worth retrying.
var transientCodes = []apperror.Code{
	apperror.CodeExchangeConnectionFailed,
	apperror.CodeExchangeRateLimited,
	apperror.CodeRateLimitExceeded,
	apperror.CodeServiceTimeout,
	apperror.CodeServiceUnavailable,
	apperror.CodeCircuitOpen,
}

// IsTransient reports whether err is network or timeout class.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || circuitbreaker.IsRejection(err) {
		return true
	}
	for _, code := range transientCodes {
		if apperror.HasCode(err, code) {
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// NewConfigurationError reports a missing or unusable source setup.
func NewConfigurationError(detail string) error {
	return apperror.New(apperror.CodeConfigurationError, apperror.WithContext(detail))
}

// NewProtocolError reports a permanent failure of one source.
func NewProtocolError(source string, cause error) error {
	return apperror.New(apperror.CodeExchangeProtocolError,
		apperror.WithContext(source),
		apperror.WithSources(source),
		apperror.WithCause(cause))
}

// NewUnavailableError reports a source that kept failing transiently.
func NewUnavailableError(source string, cause error) error {
	return apperror.New(apperror.CodeExchangeUnavailable,
		apperror.WithContext(source),
		apperror.WithSources(source),
		apperror.WithCause(cause))
}

// NewAllSourcesUnavailableError reports that no source answered.
func NewAllSourcesUnavailableError(failed []string) error {
	return apperror.New(apperror.CodeAllSourcesUnavailable, apperror.WithSources(failed...))
}

// NewNoCommonPairsError reports an empty intersection among the sources that answered.
func NewNoCommonPairsError(succeeded []string) error {
	return apperror.New(apperror.CodeNoCommonPairs,
		apperror.WithContext("checked exchanges"),
		apperror.WithSources(succeeded...))
}

// NewPairNotFoundError reports a pair no source could quote.
func NewPairNotFoundError(pair string, failed []string) error {
	opts := []apperror.Option{apperror.WithContext(fmt.Sprintf("trading pair '%s'", pair))}
	if len(failed) > 0 {
		opts = append(opts, apperror.WithSources(failed...))
	}
	return apperror.New(apperror.CodePairNotFound, opts...)
}
