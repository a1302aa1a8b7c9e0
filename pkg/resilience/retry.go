package resilience

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig controls Retry
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// RetryableErrors decides whether err is worth another attempt. Nil
	// retries everything.
	RetryableErrors func(error) bool
	// OnRetry is called before each new attempt with the error that caused it
	OnRetry func(attempt int, err error)
}

func (c *RetryConfig) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

func (c *RetryConfig) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * c.BackoffFactor)
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// Retry runs fn until it succeeds, fails with a non-retryable error or runs
// out of attempts. A non-retryable error is returned as is; running out wraps
// the last error.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	attempts := config.attempts()
	delay := config.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if config.RetryableErrors != nil && !config.RetryableErrors(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = config.next(delay)
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", attempts, lastErr)
}
