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
	ErrDatabase     = errors.New("database error")

	// ErrMissingFamilyID means an AnalysisRequest arrived without a family id.
	// Fatal for the run; surfaced before any fetch is attempted.
	ErrMissingFamilyID = errors.New("analysis request missing family id")

	// ErrExtractionEmpty means the model response decoded to zero stores.
	// Fatal for the run so the trigger can retry or alert.
	ErrExtractionEmpty = errors.New("extraction produced no stores")

	// ErrVersionConflict means a shopping list write lost an optimistic
	// concurrency race with another run for the same family.
	ErrVersionConflict = errors.New("shopping list version conflict")
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
