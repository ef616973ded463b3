package util

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryWithBackoff calls fn up to maxRetries+1 times. The wait before a
// retry doubles from baseDelay on every failed attempt, with up to 25%
// random jitter so callers hitting the same host do not retry in lockstep.
// fn receives the current attempt number (0-indexed) and should return nil
// on success. A cancelled context aborts the wait and returns the context
// error.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := baseDelay << attempt
		backoff += time.Duration(rand.Int63n(int64(backoff)/4 + 1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
