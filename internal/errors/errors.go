package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeReadError     = "READ_ERROR"
	CodeCleaningError = "CLEANING_ERROR"
	CodeExportError   = "EXPORT_ERROR"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternalError = "INTERNAL_ERROR"
)

// ReadError reports an unsupported or corrupt input format
func ReadError(message string) *AppError {
	return New(CodeReadError, message)
}

// ReadErrorf reports an unsupported or corrupt input format with a cause
func ReadErrorf(cause error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeReadError,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// CleaningError reports a transformation step defeated by unexpected data
func CleaningError(message string) *AppError {
	return New(CodeCleaningError, message)
}

// ExportError reports a cloud upload failure
func ExportError(cause error, message string) *AppError {
	return &AppError{
		Code:    CodeExportError,
		Message: message,
		Cause:   cause,
	}
}

// ConfigInvalid reports an invalid configuration value
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// InvalidInput reports a malformed user request
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InternalError reports an unexpected internal failure
func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
