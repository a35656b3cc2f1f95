package errors

import (
	"errors"
	"fmt"
)

// ViewerError is the structured error type for MKViewer.
// It carries enough context for logging and user presentation without
// exposing transport-level detail to the caller.
type ViewerError struct {
	// Code is the unique error code (e.g., "ERR_201_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Store, Index, Render, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Key is the document key the error relates to, if any.
	Key string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *ViewerError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("[%s] %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ViewerError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ViewerError.
func (e *ViewerError) Is(target error) bool {
	if t, ok := target.(*ViewerError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithKey records the document key the error relates to.
// Returns the error for method chaining.
func (e *ViewerError) WithKey(key string) *ViewerError {
	e.Key = key
	return e
}

// New creates a new ViewerError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ViewerError {
	return &ViewerError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ViewerError from an existing error.
// The error's message becomes the ViewerError message.
func Wrap(code string, err error) *ViewerError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// StoreUnavailable creates an object-store transport error.
func StoreUnavailable(message string, cause error) *ViewerError {
	return New(ErrCodeStoreUnavailable, message, cause)
}

// CatalogUnavailable creates a catalog scan error.
func CatalogUnavailable(message string, cause error) *ViewerError {
	return New(ErrCodeCatalogUnavailable, message, cause)
}

// IndexUnavailable creates a search-index transport error.
func IndexUnavailable(message string, cause error) *ViewerError {
	return New(ErrCodeIndexUnavailable, message, cause)
}

// SearchUnavailable creates a query-time error.
func SearchUnavailable(message string, cause error) *ViewerError {
	return New(ErrCodeSearchUnavailable, message, cause)
}

// RenderFailure creates a rendering error for the given document key.
func RenderFailure(key string, cause error) *ViewerError {
	return New(ErrCodeRenderFailure, "failed to render document", cause).WithKey(key)
}

// SyncInProgress reports that a synchronization pass is already applying.
func SyncInProgress() *ViewerError {
	return New(ErrCodeSyncInProgress, "index synchronization already in progress", nil)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a ViewerError with Retryable flag set.
func IsRetryable(err error) bool {
	var ve *ViewerError
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}

// CodeOf returns the error code of err, or empty string if err is not
// a ViewerError.
func CodeOf(err error) string {
	var ve *ViewerError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// As is a convenience re-export so callers need only one errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
