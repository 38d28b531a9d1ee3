package rollup

import (
	"context"
	"errors"
	"testing"
)

func TestRetryPolicyRetriesTransientThenSucceeds(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BackoffMS: 1}
	calls := 0
	err := policy.do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("read: connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyStopsOnNonTransientError(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, BackoffMS: 1}
	calls := 0
	wantErr := errors.New("invalid contract address")
	err := policy.do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected immediate non-transient error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-transient error, got %d", calls)
	}
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BackoffMS: 1}
	calls := 0
	err := policy.do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("request timeout")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retry budget")
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, BackoffMS: 50}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.do(ctx, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			cancel()
		}
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
