package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Exchange adapter errors
	CodeExchangeConnectionFailed: "Failed to reach exchange API",
	CodeExchangeRejected:         "Exchange rejected the request",
	CodeExchangeRateLimited:      "Exchange rate limit exceeded",
	CodeInvalidTicker:            "Invalid ticker data",
	CodeUnknownSymbol:            "Symbol not listed on exchange",

	// Fetch wrapper outcomes
	CodeExchangeProtocolError: "Exchange returned a permanent error",
	CodeExchangeUnavailable:   "Exchange unavailable after retries",

	// Aggregate outcomes
	CodeAllSourcesUnavailable: "All exchanges are unavailable",
	CodeNoCommonPairs:         "No trading pairs are common to all exchanges",
	CodePairNotFound:          "Trading pair not found on any exchange",

	// Cache errors
	CodeCacheUnavailable: "Cache backend unavailable",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
