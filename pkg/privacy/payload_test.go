package privacy

import (
	"testing"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

func TestIsDummyPayloadDetectsPlaceholder(t *testing.T) {
	payload := &ProofPayload{
		Proof:        []felt.Felt{felt.One},
		PublicInputs: []felt.Felt{felt.One},
	}
	if !IsDummyPayload(payload) {
		t.Fatal("expected dummy payload to be detected")
	}
}

func TestIsDummyPayloadRejectsRealPayload(t *testing.T) {
	payload := &ProofPayload{
		Proof:        []felt.Felt{felt.One, felt.FromUint64(2)},
		PublicInputs: []felt.Felt{felt.One},
	}
	if IsDummyPayload(payload) {
		t.Fatal("did not expect multi-element proof to be treated as dummy")
	}
}

func TestCheckNullifierCommitmentBindingAccepts(t *testing.T) {
	nullifier := felt.FromUint64(11)
	commitment := felt.FromUint64(22)
	payload := &ProofPayload{
		Nullifier:    nullifier,
		Commitment:   commitment,
		PublicInputs: []felt.Felt{nullifier, commitment, felt.Zero},
	}
	if err := CheckNullifierCommitmentBinding(payload, DefaultBindingIndices()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckNullifierCommitmentBindingRejectsMismatch(t *testing.T) {
	payload := &ProofPayload{
		Nullifier:    felt.FromUint64(11),
		Commitment:   felt.FromUint64(22),
		PublicInputs: []felt.Felt{felt.FromUint64(99), felt.FromUint64(22)},
	}
	err := CheckNullifierCommitmentBinding(payload, DefaultBindingIndices())
	if !cerr.HasKind(err, cerr.KindBindingMismatch) {
		t.Fatalf("expected binding mismatch, got %v", err)
	}
}

func TestCheckNullifierCommitmentBindingRejectsShortPublicInputs(t *testing.T) {
	payload := &ProofPayload{
		Nullifier:    felt.FromUint64(11),
		Commitment:   felt.FromUint64(22),
		PublicInputs: []felt.Felt{felt.FromUint64(11)},
	}
	err := CheckNullifierCommitmentBinding(payload, DefaultBindingIndices())
	if !cerr.HasKind(err, cerr.KindBindingMismatch) {
		t.Fatalf("expected binding mismatch for short public_inputs, got %v", err)
	}
}

func TestBindIntentHashPadsOnlyIntentHashSlot(t *testing.T) {
	nullifier := felt.FromUint64(11)
	commitment := felt.FromUint64(22)
	payload := &ProofPayload{
		Nullifier:    nullifier,
		Commitment:   commitment,
		PublicInputs: []felt.Felt{nullifier, commitment},
	}
	idx := DefaultBindingIndices()
	intentHash := felt.FromUint64(33)

	if err := BindIntentHash(payload, idx, intentHash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.PublicInputs) != 3 {
		t.Fatalf("expected padding to exactly reach intent_hash_index, got len %d", len(payload.PublicInputs))
	}
	if !payload.PublicInputs[idx.NullifierIndex].Equal(nullifier) {
		t.Fatal("padding must not disturb the nullifier slot")
	}
	if !payload.PublicInputs[idx.CommitmentIndex].Equal(commitment) {
		t.Fatal("padding must not disturb the commitment slot")
	}
	if !payload.PublicInputs[idx.IntentHashIndex].Equal(intentHash) {
		t.Fatal("expected intent_hash slot to be set")
	}
}
