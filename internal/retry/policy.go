// Package retry provides an explicit, injectable retry policy: how many
// attempts, how long to wait between them, and which errors are worth
// retrying at all. Components that need retries take a Policy instead of
// looping ad hoc.
package retry

import (
	"context"
	"time"
)

// Policy controls a bounded retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff returns the delay before attempt n+1, given that attempt n
	// (zero-based) just failed. Delays should increase with n.
	Backoff func(attempt int) time.Duration
	// Retryable reports whether an error is transient. A nil predicate
	// retries everything.
	Retryable func(err error) bool
	// Sleep overrides the wait between attempts; tests inject a recorder
	// here. Nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ExponentialBackoff returns a backoff function that doubles base on every
// failed attempt: base, 2*base, 4*base, ...
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is exhausted. The last error is returned verbatim so the
// caller can classify it.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.Backoff(attempt-1)); err != nil {
				return lastErr
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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
