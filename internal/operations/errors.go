package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// OperationError represents a step-level failure. The cause keeps the
// underlying error, so errors.As still finds an *errors.AppError below it.
type OperationError struct {
	Type    ErrorType              `json:"type"`
	Step    string                 `json:"step,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError reports a step whose inputs are not in place
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// GetErrorType returns the type of the first OperationError in err's chain
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// FailedStep returns the step named by the first OperationError in err's chain
func FailedStep(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Step
	}
	return ""
}

// WrapError attaches step context to err. An existing OperationError is
// reused and only gains the step name if it had none.
func WrapError(err error, step string) *OperationError {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return opErr
	}

	return NewExecutionError(step, err)
}

// validationFailure turns a Validate error into a validation OperationError
func validationFailure(step string, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return WrapError(err, step)
	}
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: "step inputs not ready",
		Cause:   err,
	}
}
