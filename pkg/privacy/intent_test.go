package privacy

import (
	"testing"
	"time"

	"github.com/zkcarel/core/pkg/felt"
)

func newTestIntent(deadline time.Time) *Intent {
	return NewIntent("swap", felt.FromUint64(1), felt.FromUint64(2), "0xabc", nil,
		VerifierGaraga, felt.FromUint64(3), felt.FromUint64(4), deadline)
}

func TestIntentHappyPathTransitions(t *testing.T) {
	intent := newTestIntent(time.Now().Add(time.Hour))
	steps := []IntentState{StateBound, StateSubmitted, StateVerifiedOnChain, StateAccounted}
	for _, next := range steps {
		if err := intent.Advance(next); err != nil {
			t.Fatalf("unexpected error advancing to %s: %v", next, err)
		}
	}
	if intent.State != StateAccounted {
		t.Fatalf("expected final state Accounted, got %s", intent.State)
	}
}

func TestIntentRejectsSkippedState(t *testing.T) {
	intent := newTestIntent(time.Now().Add(time.Hour))
	if err := intent.Advance(StateSubmitted); err == nil {
		t.Fatal("expected error skipping Bound on the way to Submitted")
	}
}

func TestIntentRejectsAdvanceAfterTerminal(t *testing.T) {
	intent := newTestIntent(time.Now().Add(time.Hour))
	if err := intent.Fail(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := intent.Advance(StateBound); err == nil {
		t.Fatal("expected error advancing a terminal intent")
	}
}

func TestIntentExpireIfPastDeadline(t *testing.T) {
	intent := newTestIntent(time.Now().Add(-time.Minute))
	if !intent.ExpireIfPastDeadline(time.Now()) {
		t.Fatal("expected expiry for a past-deadline, non-terminal intent")
	}
	if intent.State != StateExpired {
		t.Fatalf("expected Expired, got %s", intent.State)
	}
}

func TestIntentExpireIfPastDeadlineIgnoresVerifiedOnChain(t *testing.T) {
	intent := newTestIntent(time.Now().Add(-time.Minute))
	if err := intent.Advance(StateBound); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := intent.Advance(StateSubmitted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := intent.Advance(StateVerifiedOnChain); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ExpireIfPastDeadline(time.Now()) {
		t.Fatal("expected VerifiedOnChain intents to never expire")
	}
}

func TestIntentExpireNotYetDue(t *testing.T) {
	intent := newTestIntent(time.Now().Add(time.Hour))
	if intent.ExpireIfPastDeadline(time.Now()) {
		t.Fatal("did not expect expiry before the deadline")
	}
}
