package dto

import (
	"net/http"

	"github.com/shopcart/backend/internal/domain/shared"
)

// Error code constants
// Format: ERR_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTransient is used when storage was unavailable or too slow and
	// the request can be retried
	ErrCodeTransient = "ERR_TRANSIENT"
)

// Input error codes
const (
	// ErrCodeValidation is used when the request body or a field is invalid
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeBodyTooLarge is used when the request body exceeds the limit
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is the single code returned by the access gate
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeInvalidCredentials is used when the password does not match
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeForbidden is used when the client address is not allowed
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking kept failing
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// ErrCodeRateLimited is used when rate limit is exceeded
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:  http.StatusInternalServerError,
	ErrCodeTransient: http.StatusServiceUnavailable,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusBadRequest,
	ErrCodeForbidden:          http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	// Conflicts that survive the retry policy are reported like any other
	// temporary failure
	ErrCodeConcurrencyConflict: http.StatusServiceUnavailable,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// DomainErrorCodes maps domain error codes to the wire codes above
var DomainErrorCodes = map[string]string{
	shared.CodeNotFound:            ErrCodeNotFound,
	shared.CodeAlreadyExists:       ErrCodeAlreadyExists,
	shared.CodeInvalidCredentials:  ErrCodeInvalidCredentials,
	shared.CodeUnauthorized:        ErrCodeUnauthorized,
	shared.CodeValidation:          ErrCodeValidation,
	shared.CodeTransient:           ErrCodeTransient,
	shared.CodeConcurrencyConflict: ErrCodeConcurrencyConflict,
	shared.CodeInternal:            ErrCodeInternal,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its wire code.
// Unknown codes become ErrCodeInternal.
func NormalizeErrorCode(code string) string {
	if wire, ok := DomainErrorCodes[code]; ok {
		return wire
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether clients should be told to retry after a delay
func IsRetryable(code string) bool {
	return GetHTTPStatus(code) == http.StatusServiceUnavailable
}
