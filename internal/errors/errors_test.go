package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with BookError
	be := New(ErrCodeFileNotFound, "contacts.json not found", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, be)
	assert.Equal(t, originalErr, errors.Unwrap(be))
	assert.True(t, errors.Is(be, originalErr))
}

func TestBookError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "bad transport",
			expected: "[ERR_102_CONFIG_INVALID] bad transport",
		},
		{
			name:     "validation error",
			code:     ErrCodeMissingID,
			message:  "contact at position 0 has no id",
			expected: "[ERR_402_MISSING_ID] contact at position 0 has no id",
		},
		{
			name:     "network error",
			code:     ErrCodeDaemonUnavailable,
			message:  "daemon is not running",
			expected: "[ERR_301_DAEMON_UNAVAILABLE] daemon is not running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestBookError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeMissingID, "position 0", nil)
	err2 := New(ErrCodeMissingID, "position 3", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeInvalidInput, "x", nil)))
}

func TestBookError_Is_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", MissingIDError(2))

	assert.True(t, errors.Is(wrapped, New(ErrCodeMissingID, "", nil)))
	assert.Equal(t, ErrCodeMissingID, GetCode(wrapped))
}

func TestBookError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeAlreadyRunning, CategoryIO},
		{ErrCodeDaemonUnavailable, CategoryNetwork},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeMissingID, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, "msg", nil).Category)
		})
	}
}

func TestBookError_SeverityAndRetryable(t *testing.T) {
	assert.Equal(t, SeverityFatal, New(ErrCodeAlreadyRunning, "", nil).Severity)
	assert.Equal(t, SeverityWarning, New(ErrCodeDaemonUnavailable, "", nil).Severity)
	assert.Equal(t, SeverityError, New(ErrCodeMissingID, "", nil).Severity)

	assert.True(t, IsRetryable(New(ErrCodeDaemonTimeout, "", nil)))
	assert.False(t, IsRetryable(New(ErrCodeInvalidInput, "", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeIndexInconsistent, "", nil)))
	assert.False(t, IsFatal(New(ErrCodeInternal, "", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestMissingIDError_HasDetailsAndSuggestion(t *testing.T) {
	err := MissingIDError(4)

	assert.Equal(t, ErrCodeMissingID, err.Code)
	assert.Equal(t, "4", err.Details["position"])
	assert.NotEmpty(t, err.Suggestion)
}

func TestConfigNotFoundError(t *testing.T) {
	cause := errors.New("no such file")
	err := ConfigNotFoundError("/etc/ab.yaml", cause)

	assert.Equal(t, ErrCodeConfigNotFound, err.Code)
	assert.Equal(t, CategoryConfig, err.Category)
	assert.Equal(t, "/etc/ab.yaml", err.Details["path"])
	assert.Contains(t, err.Error(), "/etc/ab.yaml")
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.Suggestion)
}

func TestIndexInconsistentError(t *testing.T) {
	err := IndexInconsistentError(3)

	assert.Equal(t, ErrCodeIndexInconsistent, GetCode(err))
	assert.Equal(t, "3", err.Details["issues"])
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Suggestion, "--repair")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
