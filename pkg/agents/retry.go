package agents

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// RetryPolicy defines exponential backoff behavior for the narrative runner.
type RetryPolicy struct {
	MaxAttempts   int           // Total attempts including the first
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Cap on any single delay
	BackoffFactor float64       // Multiplier between attempts
	Jitter        bool          // Randomize delays to avoid thundering herd
}

// DefaultRetryPolicy matches the standard narrative policy.
var DefaultRetryPolicy = RetryPolicy{ //nolint:gochecknoglobals
	MaxAttempts:   3,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// Delay computes the backoff before the given attempt (attempt 2 gets the
// initial delay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := time.Duration(float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt-2)))
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter {
		// +/- 10% of the computed delay
		jitter := time.Duration((rand.Float64()*0.2 - 0.1) * float64(delay)) //nolint:gosec // Jitter does not need crypto randomness
		delay += jitter
		if delay < 0 {
			delay = p.InitialDelay
		}
	}

	return delay
}

// Retry runs fn up to MaxAttempts times, backing off between attempts and
// stopping early on non-retryable errors or context expiry. attempt is
// 1-based. onRetry, if set, is called before each re-attempt.
func Retry[T any](ctx context.Context, policy RetryPolicy, onRetry func(attempt int, err error), fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(policy.Delay(attempt)):
			}
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !generr.IsRetryable(err) {
			break
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", policy.MaxAttempts, lastErr)
}
