package rollup

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// RetryPolicy governs how the gateway's RPC calls, Invoke's submission
// included, absorb transient upstream failures before surfacing
// TransientUpstream.
type RetryPolicy struct {
	Attempts  int
	BackoffMS int
}

// DefaultRetryPolicy matches spec.md §4.2's defaults: up to 5 attempts,
// linear 1000ms backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, BackoffMS: 1000}
}

// do runs fn up to p.Attempts times, sleeping p.BackoffMS * attempt
// (linear backoff) between attempts, stopping early on a non-transient
// error or on ctx cancellation. The last error is returned if every
// attempt is exhausted.
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(p.BackoffMS*attempt) * time.Millisecond):
		}
	}
	return lastErr
}

// isTransient classifies a network/decode/429-shaped error as retryable.
// Anything else (a decoded RPC error reporting a definite rollup-side
// rejection) is not retried here; the caller's own error kind decides.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "timed out", "429", "too many requests", "eof", "connection reset", "connection refused"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
