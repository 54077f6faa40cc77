package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique field (email, phone, payment id) is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a missing, malformed or expired bearer credential.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when an authenticated user acts on another user's data.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyCart is returned when checkout is attempted without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentNotVerified blocks order creation for card payments.
	ErrPaymentNotVerified = errors.New("payment not verified")
	// ErrUpstream wraps identity provider and payment gateway failures.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrPersistence wraps storage write failures.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes one offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// Add appends another offending field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// OrNil returns nil when no field was recorded, so callers can build errors incrementally.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
