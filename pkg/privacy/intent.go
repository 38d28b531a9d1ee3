package privacy

import (
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// IntentState is a node in the Intent lifecycle:
//
//	Proposed -> Bound -> Submitted -> VerifiedOnChain -> Accounted | Reverted | Expired
type IntentState string

const (
	StateProposed        IntentState = "proposed"
	StateBound           IntentState = "bound"
	StateSubmitted       IntentState = "submitted"
	StateVerifiedOnChain IntentState = "verified_on_chain"
	StateAccounted       IntentState = "accounted"
	StateReverted        IntentState = "reverted"
	StateExpired         IntentState = "expired"
)

// terminal reports whether a state has no further transitions.
func (s IntentState) terminal() bool {
	switch s {
	case StateAccounted, StateReverted, StateExpired:
		return true
	default:
		return false
	}
}

// validTransitions enumerates the single legal successor for each
// non-terminal state reached by the happy path. The exceptional exits are
// Reverted, reachable from any non-terminal state via Fail, and Expired,
// reachable via ExpireIfPastDeadline from any non-terminal state except
// VerifiedOnChain.
var validTransitions = map[IntentState]IntentState{
	StateProposed:        StateBound,
	StateBound:           StateSubmitted,
	StateSubmitted:       StateVerifiedOnChain,
	StateVerifiedOnChain: StateAccounted,
}

// Intent is an immutable-once-created record of a proposed action,
// identified by its Nullifier, carrying its current lifecycle State.
type Intent struct {
	Flow             string
	ActorAddress     felt.Felt
	TargetContract   felt.Felt
	Entrypoint       string
	ActionCalldata   []felt.Felt
	BoundTokenPair   *[2]felt.Felt
	BoundAmount      *felt.U256
	VerifierKind     VerifierKind
	Commitment       felt.Felt
	Nullifier        felt.Felt
	IntentHash       felt.Felt
	State            IntentState
	Deadline         time.Time
	CreatedAt        time.Time
}

// NewIntent builds an Intent in the initial Proposed state, identified
// by nullifier. Its State then changes only through Advance, Fail and
// ExpireIfPastDeadline.
func NewIntent(flow string, actor, target felt.Felt, entrypoint string, calldata []felt.Felt, verifierKind VerifierKind, commitment, nullifier felt.Felt, deadline time.Time) *Intent {
	return &Intent{
		Flow:           flow,
		ActorAddress:   actor,
		TargetContract: target,
		Entrypoint:     entrypoint,
		ActionCalldata: calldata,
		VerifierKind:   verifierKind,
		Commitment:     commitment,
		Nullifier:      nullifier,
		State:          StateProposed,
		Deadline:       deadline,
		CreatedAt:      time.Now(),
	}
}

// Advance transitions the intent to next, failing with InternalInvariant
// if that transition is not the legal successor of the current state.
func (i *Intent) Advance(next IntentState) error {
	if i.State.terminal() {
		return cerr.New(cerr.KindInternalInvariant, "cannot advance a terminal intent")
	}
	want, ok := validTransitions[i.State]
	if !ok || want != next {
		return cerr.New(cerr.KindInternalInvariant, "illegal intent transition from "+string(i.State)+" to "+string(next))
	}
	i.State = next
	return nil
}

// Fail transitions any non-terminal intent directly to Reverted, the
// exceptional exit taken once C4 observes a reverted receipt.
func (i *Intent) Fail() error {
	if i.State.terminal() {
		return cerr.New(cerr.KindInternalInvariant, "cannot fail a terminal intent")
	}
	i.State = StateReverted
	return nil
}

// ExpireIfPastDeadline transitions a non-terminal intent to Expired when
// asOf is past Deadline and the nullifier was never observed on-chain.
func (i *Intent) ExpireIfPastDeadline(asOf time.Time) bool {
	if i.State.terminal() {
		return false
	}
	if i.State == StateVerifiedOnChain {
		return false
	}
	if asOf.Before(i.Deadline) {
		return false
	}
	i.State = StateExpired
	return true
}
