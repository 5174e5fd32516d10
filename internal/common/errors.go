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

// Common application errors. These map the ingestion failure taxonomy:
// validation and duplicate outcomes are terminal for the caller, storage and
// extraction failures are safe to retry because no partial invoice exists.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("duplicate document")
	ErrStorage          = errors.New("storage error")
	ErrExtraction       = errors.New("extraction failed")
	ErrAllKeysExhausted = errors.New("all api keys exhausted")
	ErrExtractionParse  = errors.New("extraction response not parseable")
	ErrRateLimited      = errors.New("rate limited")
	ErrStageTransition  = errors.New("illegal approval stage transition")
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// NewAppError builds an AppError wrapping cause.
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
