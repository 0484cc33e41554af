// Package retry implements exponential backoff for transient HTTP/DB
// failures, grounded on the same backoff shape as internal/application/executor/retry.go
// RetryPolicy/RetryExecutor shape. It is deliberately NOT used for AI
// provider calls (spec §4.2, §7) — those are reported as-is so a truncated
// or safety-filtered completion is never silently retried into a different
// outcome.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy configures exponential backoff with jitter.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultPolicy mirrors the common DefaultRetryPolicy shape: three retries,
// starting at one second, doubling up to thirty.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs fn, retrying on error up to p.MaxAttempts additional times with
// exponential backoff and jitter. It stops early if ctx is cancelled while
// waiting between attempts, and it never inspects the error to decide
// retriability — callers pass a fn that only returns errors worth retrying
// (spec §7's transient-vs-fatal split happens before Do is invoked).
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(p, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func backoffDelay(p Policy, attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	jitter := delay * 0.1 * (2*rand.Float64() - 1)
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
