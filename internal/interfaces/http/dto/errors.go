package dto

import (
	"net/http"

	"github.com/assetflow/backend/internal/domain/shared"
)

// Domain error codes travel to clients unchanged
const (
	ErrCodeNotFound               = shared.CodeNotFound
	ErrCodeAlreadyExists          = shared.CodeAlreadyExists
	ErrCodeValidation             = shared.CodeValidation
	ErrCodeInvalidState           = shared.CodeInvalidState
	ErrCodeInsufficientStock      = shared.CodeInsufficientStock
	ErrCodeOutstandingAssignments = shared.CodeOutstandingAssignments
	ErrCodePermissionDenied       = shared.CodePermissionDenied
	ErrCodeUnauthorized           = shared.CodeUnauthorized
	ErrCodeConcurrencyConflict    = shared.CodeConcurrencyConflict
)

// Transport error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeAlreadyExists:          http.StatusConflict,
	ErrCodeValidation:             http.StatusUnprocessableEntity,
	ErrCodeInvalidState:           http.StatusConflict,
	ErrCodeInsufficientStock:      http.StatusConflict,
	ErrCodeOutstandingAssignments: http.StatusConflict,
	ErrCodePermissionDenied:       http.StatusForbidden,
	ErrCodeUnauthorized:           http.StatusUnauthorized,
	ErrCodeConcurrencyConflict:    http.StatusConflict,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
