package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner-specific error codes
const (
	// Exchange adapter errors. Network and 5xx failures are transient,
	// rejections and malformed payloads are permanent.
	CodeExchangeConnectionFailed Code = "EXCHANGE_CONNECTION_FAILED"
	CodeExchangeRejected         Code = "EXCHANGE_REJECTED"
	CodeExchangeRateLimited      Code = "EXCHANGE_RATE_LIMITED"
	CodeInvalidTicker            Code = "INVALID_TICKER"
	CodeUnknownSymbol            Code = "UNKNOWN_SYMBOL"

	// Fetch wrapper outcomes
	CodeExchangeProtocolError Code = "EXCHANGE_PROTOCOL_ERROR"
	CodeExchangeUnavailable   Code = "EXCHANGE_UNAVAILABLE"

	// Aggregate outcomes
	CodeAllSourcesUnavailable Code = "ALL_SOURCES_UNAVAILABLE"
	CodeNoCommonPairs         Code = "NO_COMMON_PAIRS"
	CodePairNotFound          Code = "PAIR_NOT_FOUND"

	// Cache errors
	CodeCacheUnavailable Code = "CACHE_UNAVAILABLE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
