package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeTransientIO  ErrorType = "TRANSIENT_IO"
	ErrTypeInvariant    ErrorType = "INVARIANT"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeConfig       ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// NewNotFoundError creates an error for an expected-but-absent structure
func NewNotFoundError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, message, cause)
}

// NewInvalidInputError creates an error for a file that cannot be processed as given
func NewInvalidInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidInput, message, cause)
}

// NewTransientIOError creates an error for a failure that may succeed on retry
func NewTransientIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTransientIO, message, cause)
}

// NewInvariantError creates an error for a broken internal guarantee
func NewInvariantError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvariant, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
