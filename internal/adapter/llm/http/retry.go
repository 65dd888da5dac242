package http

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds per-provider retry tuning.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Multiplier is the exponential growth factor per attempt.
	// RateLimitMultiplier replaces it when the failure was a rate limit,
	// since quota windows recover slower than transient server errors.
	Multiplier          float64
	RateLimitMultiplier float64
}

// DefaultRetryConfig returns retry settings suitable for most providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          3,
		BaseDelay:           2 * time.Second,
		MaxDelay:            60 * time.Second,
		Multiplier:          2.0,
		RateLimitMultiplier: 3.0,
	}
}

// Backoff returns the pre-jitter delay before retry number attempt (0-based)
// for a failure of the given class. The sequence is non-decreasing in
// attempt; callers add Jitter separately so tests can assert on the
// deterministic part.
func Backoff(attempt int, class ErrorClass, config RetryConfig) time.Duration {
	multiplier := config.Multiplier
	if class == ClassRateLimit {
		multiplier = config.RateLimitMultiplier
	}

	delay := float64(config.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

// Jitter returns a random addition of at most 10% of delay, spreading
// simultaneous retries so they do not land on the provider in lockstep.
func Jitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)/10 + 1))
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Operation is a function that can be retried.
type Operation func(ctx context.Context) error

// RetryWithBackoff executes operation, retrying retryable-class failures with
// exponential backoff plus jitter. Non-retryable failures return immediately.
func RetryWithBackoff(ctx context.Context, operation Operation, config RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		classified := ClassifyError("", err)
		if !classified.IsRetryable() || attempt >= config.MaxRetries {
			return err
		}

		base := Backoff(attempt, classified.Class, config)
		if err := Sleep(ctx, base+Jitter(base)); err != nil {
			return err
		}
	}

	return lastErr
}
