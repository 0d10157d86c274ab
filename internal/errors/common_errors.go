package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeMalformedRecord   ErrorType = "MALFORMED_RECORD"
	ErrTypeTimestampParse    ErrorType = "TIMESTAMP_PARSE"
	ErrTypeTypeCoercion      ErrorType = "TYPE_COERCION"
	ErrTypeValidation        ErrorType = "VALIDATION"
	ErrTypeStorage           ErrorType = "STORAGE"
	ErrTypeNetwork           ErrorType = "NETWORK"
	ErrTypeConfig            ErrorType = "CONFIG"
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

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain contains an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}

// NewSourceUnavailableError reports a declared input that is missing or unreadable
func NewSourceUnavailableError(path string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnavailable, fmt.Sprintf("source %s is unavailable", path), cause).
		WithContext("path", path)
}

// NewMalformedRecordError reports a record that cannot be parsed. line is 1-based.
func NewMalformedRecordError(path string, line int, cause error) *AppError {
	return NewAppError(ErrTypeMalformedRecord, fmt.Sprintf("malformed record at %s:%d", path, line), cause).
		WithContext("path", path).
		WithContext("line", line)
}

// NewTimestampParseError reports a created_at value that is not a timestamp
func NewTimestampParseError(postID int64, value string, cause error) *AppError {
	return NewAppError(ErrTypeTimestampParse, fmt.Sprintf("post %d: cannot parse timestamp %q", postID, value), cause).
		WithContext("post_id", postID).
		WithContext("value", value)
}

// NewTypeCoercionError reports a column value that cannot be converted to its target type
func NewTypeCoercionError(postID int64, column, value string, cause error) *AppError {
	return NewAppError(ErrTypeTypeCoercion, fmt.Sprintf("post %d: cannot convert %s value %q", postID, column, value), cause).
		WithContext("post_id", postID).
		WithContext("column", column).
		WithContext("value", value)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
