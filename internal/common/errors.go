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
	ErrValidation   = errors.New("validation failed")

	// ErrUnsupportedFile is returned for uploads whose type we cannot read.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrInsufficientText means OCR produced too little text to extract from.
	ErrInsufficientText = errors.New("insufficient text extracted from document")
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

// InvalidInputf builds an INVALID_INPUT AppError wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return NewAppError("INVALID_INPUT", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// NotFoundf builds a NOT_FOUND AppError wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}
