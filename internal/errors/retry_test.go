package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterTransientError(t *testing.T) {
	// Given: a function that fails twice with a retryable error
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return New(ErrCodeDaemonUnavailable, "not yet", nil)
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: it succeeds on the third attempt
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	permanent := New(ErrCodeInvalidInput, "bad", nil)

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return permanent
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, permanent, err)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return New(ErrCodeDaemonTimeout, "slow", nil)
	})

	assert.Equal(t, 4, attempts, "initial attempt plus three retries")
	assert.Error(t, err)
	assert.Equal(t, ErrCodeDaemonTimeout, GetCode(err))
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		t.Fatal("fn must not run with a cancelled context")
		return nil
	})

	assert.True(t, errors.Is(err, context.Canceled))
}
