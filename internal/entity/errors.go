package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrShortCodeExists is returned by a store when a URL with the same short code is already present.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned when a URL with the specified short code is past its expiry.
	ErrURLExpired = errors.New("url expired")
)

// Reasons carried by a ValidationError.
var (
	ErrURLRequired       = errors.New("URL is required")
	ErrInvalidURL        = errors.New("please enter a valid URL")
	ErrInvalidShortCode  = errors.New("shortcode must be 3-20 alphanumeric characters")
	ErrShortCodeInUse    = errors.New("this shortcode is already in use")
	ErrShortCodeReserved = errors.New("this shortcode is reserved")
	ErrInvalidValidity   = errors.New("validity must be between 1 minute and 24 hours")
)

// Validated fields.
const (
	FieldOriginalURL     = "original_url"
	FieldCustomShortCode = "custom_short_code"
	FieldValidityMinutes = "validity_minutes"
)

// ValidationError is a user-correctable problem with a single input field.
type ValidationError struct {
	Field  string
	Reason error
}

func NewValidationError(field string, reason error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
