package privacy

import (
	"testing"

	"github.com/zkcarel/core/pkg/felt"
)

func samplePayload() *ProofPayload {
	return &ProofPayload{
		Nullifier:    felt.FromUint64(1),
		Commitment:   felt.FromUint64(2),
		Proof:        []felt.Felt{felt.FromUint64(10), felt.FromUint64(11)},
		PublicInputs: []felt.Felt{felt.FromUint64(1), felt.FromUint64(2)},
	}
}

func TestBuildSubmitCallV1Layout(t *testing.T) {
	router := felt.FromUint64(100)
	selector := felt.FromUint64(200)
	payload := samplePayload()

	call := BuildSubmitCallV1(router, selector, payload)

	if !call.To.Equal(router) || !call.Selector.Equal(selector) {
		t.Fatal("expected call to target the configured router/selector")
	}
	want := []felt.Felt{
		payload.Nullifier, payload.Commitment,
		felt.FromUint64(2), payload.Proof[0], payload.Proof[1],
		felt.FromUint64(2), payload.PublicInputs[0], payload.PublicInputs[1],
	}
	assertFeltsEqual(t, call.Data, want)
}

func TestBuildSubmitCallV2Layout(t *testing.T) {
	router := felt.FromUint64(100)
	selector := felt.FromUint64(201)
	payload := samplePayload()
	v2 := &V2Request{
		ActionType:  felt.FromUint64(1),
		OldRoot:     felt.FromUint64(5),
		NewRoot:     felt.FromUint64(6),
		Nullifiers:  []felt.Felt{felt.FromUint64(7)},
		Commitments: []felt.Felt{felt.FromUint64(8), felt.FromUint64(9)},
	}

	call, err := BuildSubmitCallV2(router, selector, v2, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []felt.Felt{
		v2.ActionType, v2.OldRoot, v2.NewRoot,
		felt.FromUint64(1), v2.Nullifiers[0],
		felt.FromUint64(2), v2.Commitments[0], v2.Commitments[1],
		felt.FromUint64(2), payload.PublicInputs[0], payload.PublicInputs[1],
		felt.FromUint64(2), payload.Proof[0], payload.Proof[1],
	}
	assertFeltsEqual(t, call.Data, want)
}

func TestBuildSubmitCallV2RejectsNilRequest(t *testing.T) {
	if _, err := BuildSubmitCallV2(felt.FromUint64(1), felt.FromUint64(2), nil, samplePayload()); err == nil {
		t.Fatal("expected error for nil V2Request")
	}
}

func TestHasAnyFieldFalseOnZeroValue(t *testing.T) {
	var v2 *V2Request
	if v2.HasAnyField() {
		t.Fatal("expected nil V2Request to report no fields")
	}
	v2 = &V2Request{}
	if v2.HasAnyField() {
		t.Fatal("expected zero-value V2Request to report no fields")
	}
	v2.OldRoot = felt.FromUint64(1)
	if !v2.HasAnyField() {
		t.Fatal("expected non-zero OldRoot to report a field set")
	}
}

func TestBuildWalletBatchOrdering(t *testing.T) {
	executor := felt.FromUint64(300)
	submitSelector := felt.FromUint64(301)
	executeSelector := felt.FromUint64(302)
	actionSelector := felt.FromUint64(9)
	payload := samplePayload()
	actionCalldata := []felt.Felt{felt.FromUint64(42)}

	calls := BuildWalletBatch(executor, submitSelector, executeSelector, payload, actionSelector, actionCalldata)
	if len(calls) != 2 {
		t.Fatalf("expected a two-call batch, got %d", len(calls))
	}
	if !calls[0].Selector.Equal(submitSelector) {
		t.Fatal("expected first call to be submit_private_intent")
	}
	if !calls[1].Selector.Equal(executeSelector) {
		t.Fatal("expected second call to be execute_private_{flow}")
	}
	if !calls[0].To.Equal(executor) || !calls[1].To.Equal(executor) {
		t.Fatal("expected both calls to target the executor")
	}
}

func TestMessageHashOrderSensitive(t *testing.T) {
	payload := samplePayload()
	base := MessageHash(
		felt.FromUint64(1), felt.FromUint64(2), felt.FromUint64(3), felt.FromUint64(4),
		felt.FromUint64(5), felt.FromUint64(6), felt.FromUint64(7),
		payload, felt.FromUint64(8), felt.FromUint64(9), felt.FromUint64(10),
		[]felt.Felt{felt.FromUint64(11)},
	)
	swappedNonce := MessageHash(
		felt.FromUint64(1), felt.FromUint64(2), felt.FromUint64(3), felt.FromUint64(4),
		felt.FromUint64(5), felt.FromUint64(6), felt.FromUint64(7),
		payload, felt.FromUint64(8), felt.FromUint64(99), felt.FromUint64(10),
		[]felt.Felt{felt.FromUint64(11)},
	)
	if base.Equal(swappedNonce) {
		t.Fatal("expected changing nonce to change message_hash")
	}
}

func assertFeltsEqual(t *testing.T, got, want []felt.Felt) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("element %d mismatch: got %s want %s", i, got[i].Hex(), want[i].Hex())
		}
	}
}
