package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")

	// ErrSystemic marks failures that make continuing a batch pointless
	// (checkpoint store unwritable, document universe unreadable). Per-document
	// failures are never wrapped with it.
	ErrSystemic = errors.New("systemic failure")

	// ErrServiceUnavailable marks model-service failures the pipeline degrades
	// around (pattern-only resolution) instead of failing the document.
	ErrServiceUnavailable = errors.New("model service unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Systemic wraps err so IsSystemic reports true for it.
func Systemic(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, ErrSystemic, err)
}

// IsSystemic reports whether err carries the systemic marker.
func IsSystemic(err error) bool {
	return errors.Is(err, ErrSystemic)
}
