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

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid        = "CONFIG_INVALID"
	CodeInvalidDataset       = "INVALID_DATASET"
	CodeDuplicateObservation = "DUPLICATE_OBSERVATION"
	CodeBadDate              = "BAD_DATE"
	CodeMissingColumn        = "MISSING_COLUMN"
	CodeStorageError         = "STORAGE_ERROR"
	CodeModelNotFitted       = "MODEL_NOT_FITTED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidDataset(message string) *AppError {
	return New(CodeInvalidDataset, message)
}

func DuplicateObservation(store, date string) *AppError {
	return New(CodeDuplicateObservation,
		fmt.Sprintf("duplicate observation for store %q on %s", store, date))
}

func BadDate(raw string, cause error) *AppError {
	return &AppError{
		Code:    CodeBadDate,
		Message: fmt.Sprintf("unparseable observation date %q", raw),
		Cause:   cause,
	}
}

func MissingColumn(column string) *AppError {
	return New(CodeMissingColumn, fmt.Sprintf("required column %q not present", column))
}

func StorageError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: message,
		Cause:   cause,
	}
}

func ModelNotFitted(model string) *AppError {
	return New(CodeModelNotFitted, fmt.Sprintf("%s queried before Fit", model))
}
