package shared

import (
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so
// errors.Is(err, ErrInsufficientStock) holds for every instance.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of the error with an extra detail attached
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidState           = "INVALID_STATE"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeOutstandingAssignments = "OUTSTANDING_ASSIGNMENTS"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation             = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrOutstandingAssignments = NewDomainError(CodeOutstandingAssignments, "Outstanding assignments must be returned first")
	ErrPermission             = NewDomainError(CodePermissionDenied, "Not permitted to perform this action")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Authentication required")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// NewValidationError reports a missing or unknown reference, or bad input
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewInvalidStateError reports a transition attempted from the wrong state
func NewInvalidStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewPermissionError reports self-approval or a role outside the allow-list
func NewPermissionError(format string, args ...any) *DomainError {
	return NewDomainError(CodePermissionDenied, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing entity by kind
func NewNotFoundError(kind string) *DomainError {
	return NewDomainError(CodeNotFound, kind+" not found")
}

// NewInsufficientStockError reports that a decrement would drive quantity negative
func NewInsufficientStockError(productName string, available, requested int) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: %d available, %d requested", productName, available, requested)).
		WithDetail("available", available).
		WithDetail("requested", requested)
}

// OutstandingAssignmentsError blocks deactivation while assignments are unreturned
type OutstandingAssignmentsError struct {
	Count int64
}

// NewOutstandingAssignmentsError creates the error for the given count
func NewOutstandingAssignmentsError(count int64) *OutstandingAssignmentsError {
	return &OutstandingAssignmentsError{Count: count}
}

// Error implements the error interface
func (e *OutstandingAssignmentsError) Error() string {
	return fmt.Sprintf("cannot deactivate: %d outstanding assignment(s) must be returned first", e.Count)
}

// Unwrap exposes the coded DomainError to errors.As and errors.Is
func (e *OutstandingAssignmentsError) Unwrap() error {
	return NewDomainError(CodeOutstandingAssignments, e.Error()).WithDetail("outstanding", e.Count)
}
