package common

import (
	"context"
	"testing"
	"time"

	apperrors "media-digest/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_SucceedsAfterRetry(t *testing.T) {
	var attempts int
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 2 {
			return apperrors.New(apperrors.CodeRateLimited, "429")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_AbortsOnNonRetryable(t *testing.T) {
	var attempts int
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return apperrors.New(apperrors.CodeInvalidResponse, "empty output")
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidResponse))
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	var attempts int
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return apperrors.New(apperrors.CodeExternal, "still down")
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeExternal))
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_DeadlineDuringBackoffIsRetryableTimeout(t *testing.T) {
	// A deadline that expires while waiting out a backoff must surface as
	// a TIMEOUT so the job can be retried on a fresh claim, not as a bare
	// context error that would fail the job permanently.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var attempts int
	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		attempts++
		return apperrors.New(apperrors.CodeRateLimited, "429")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimeout))
	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
