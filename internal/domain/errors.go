package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnresolvable is returned when no trip plan can be built from the priced items
	ErrUnresolvable = errors.New("trip plan unresolvable")

	// ErrRetailerFailure is returned when a retailer API request fails
	ErrRetailerFailure = errors.New("retailer API request failed")

	// ErrMalformedPayload is returned when a retailer response cannot be parsed
	ErrMalformedPayload = errors.New("malformed retailer payload")

	// ErrUnknownStore is returned when a store id is not in the catalog
	ErrUnknownStore = errors.New("unknown store")

	// ErrSessionNotFound is returned when a session has expired or never existed
	ErrSessionNotFound = errors.New("session not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationError rejects malformed input at the boundary and names the
// offending field, e.g. "items[2].quantity".
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRequest, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// UnresolvableError carries the reason an optimize call produced no plan.
type UnresolvableError struct {
	Reason string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvable, e.Reason)
}

func (e *UnresolvableError) Unwrap() error {
	return ErrUnresolvable
}
