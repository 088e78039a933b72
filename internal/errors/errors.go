package errors

import (
	"errors"
	"fmt"
)

// BookError is the structured error type for addressbook.
// It carries enough context for logging, CLI presentation, and mapping onto
// transport error codes.
type BookError struct {
	// Code is the unique error code (e.g., "ERR_402_MISSING_ID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is derived from the code.
	Category Category

	// Severity is derived from the code.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BookError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BookError) Unwrap() error {
	return e.Cause
}

// Is matches another BookError by code, so errors.Is works against the
// sentinel-style values built with New.
func (e *BookError) Is(target error) bool {
	if t, ok := target.(*BookError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail and returns the error for chaining.
func (e *BookError) WithDetail(key, value string) *BookError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *BookError) WithSuggestion(suggestion string) *BookError {
	e.Suggestion = suggestion
	return e
}

// New creates a BookError; category, severity, and retryability come from the code.
func New(code string, message string, cause error) *BookError {
	return &BookError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a BookError from an existing error, reusing its message.
func Wrap(code string, err error) *BookError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BookError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ConfigNotFoundError reports an explicitly named config file that does not exist.
func ConfigNotFoundError(path string, cause error) *BookError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s", path), cause).
		WithDetail("path", path).
		WithSuggestion("create one with 'addressbook config init' or drop --config")
}

// IndexInconsistentError reports name index entries that disagree with the stored contacts.
func IndexInconsistentError(issues int) *BookError {
	return New(ErrCodeIndexInconsistent, fmt.Sprintf("name index has %d unrepaired issue(s)", issues), nil).
		WithDetail("issues", fmt.Sprintf("%d", issues)).
		WithSuggestion("run 'addressbook check --repair'")
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *BookError {
	return New(ErrCodeInvalidInput, message, cause)
}

// MissingIDError reports an update addressed to no contact.
func MissingIDError(position int) *BookError {
	return New(ErrCodeMissingID, fmt.Sprintf("contact at position %d has no id", position), nil).
		WithDetail("position", fmt.Sprintf("%d", position)).
		WithSuggestion("every update must carry the id returned by create or list")
}

// DaemonUnavailableError reports that the daemon socket did not accept a connection.
func DaemonUnavailableError(socketPath string, cause error) *BookError {
	return New(ErrCodeDaemonUnavailable, "daemon is not running", cause).
		WithDetail("socket", socketPath).
		WithSuggestion("start it with 'addressbook serve'")
}

// IsRetryable checks if an error (or anything it wraps) is retryable.
func IsRetryable(err error) bool {
	var be *BookError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var be *BookError
	if errors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" if err is not a BookError.
func GetCode(err error) string {
	var be *BookError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
