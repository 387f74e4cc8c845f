package common

import (
	"context"
	"time"

	apperrors "media-digest/internal/errors"
)

// RetryWithBackoff runs op up to maxAttempts times, doubling the wait
// between attempts starting from baseDelay. Non-retryable errors abort
// immediately. A ctx that ends while waiting surfaces as a TIMEOUT
// AppError, so callers classify it as retryable on a fresh deadline.
func RetryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	var err error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !apperrors.IsRetryable(err) || attempt == maxAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Wrap(ctx.Err(), apperrors.CodeTimeout, "gave up waiting to retry")
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}
