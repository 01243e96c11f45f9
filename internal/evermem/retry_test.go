package evermem

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	attempts := 0
	err := fastRetryPolicy().Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: connection refused", ErrTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonTransient(t *testing.T) {
	attempts := 0
	err := fastRetryPolicy().Do(context.Background(), func() error {
		attempts++
		return fmt.Errorf("%w (HTTP 401): bad key", ErrAuthentication)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustionSurfacesTransient(t *testing.T) {
	attempts := 0
	err := fastRetryPolicy().Do(context.Background(), func() error {
		attempts++
		return fmt.Errorf("%w: HTTP 503", ErrTransient)
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestRetryCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Hour,
		Multiplier:     2.0,
	}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func() error {
			attempts++
			return fmt.Errorf("%w: down", ErrTransient)
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, attempts)
	case <-time.After(time.Second):
		t.Fatal("retry did not abort on cancellation")
	}
}

func TestRetryZeroAttemptsStillRunsOnce(t *testing.T) {
	attempts := 0
	err := RetryPolicy{}.Do(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
