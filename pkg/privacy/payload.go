package privacy

import (
	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// ProofPayload is the proof evidence bound to one intent, regardless of
// which verifier family produced it.
type ProofPayload struct {
	VerifierKind VerifierKind
	Proof        []felt.Felt
	PublicInputs []felt.Felt
	Commitment   felt.Felt
	Nullifier    felt.Felt
}

// BindingIndices names the configured public_inputs slots a ProofPayload
// must satisfy. Defaults are 0 (nullifier), 1 (commitment), 2 (intent_hash).
type BindingIndices struct {
	NullifierIndex  int
	CommitmentIndex int
	IntentHashIndex int
}

// DefaultBindingIndices matches the configured defaults spec.md §6 names.
func DefaultBindingIndices() BindingIndices {
	return BindingIndices{NullifierIndex: 0, CommitmentIndex: 1, IntentHashIndex: 2}
}

// IsDummyPayload reports whether payload is the reserved dummy placeholder:
// exactly one proof element and one public_inputs element, both equal to 1.
func IsDummyPayload(payload *ProofPayload) bool {
	if len(payload.Proof) != 1 || len(payload.PublicInputs) != 1 {
		return false
	}
	return payload.Proof[0].Equal(felt.One) && payload.PublicInputs[0].Equal(felt.One)
}

// CheckNullifierCommitmentBinding asserts
// public_inputs[idx.NullifierIndex] == payload.Nullifier and
// public_inputs[idx.CommitmentIndex] == payload.Commitment, failing with
// BindingMismatch otherwise. This check is mandatory before any on-chain
// submission.
func CheckNullifierCommitmentBinding(payload *ProofPayload, idx BindingIndices) error {
	required := idx.NullifierIndex
	if idx.CommitmentIndex > required {
		required = idx.CommitmentIndex
	}
	required++

	if len(payload.PublicInputs) < required {
		return cerr.New(cerr.KindBindingMismatch,
			"public_inputs too short to expose nullifier/commitment binding slots")
	}

	if !payload.PublicInputs[idx.NullifierIndex].Equal(payload.Nullifier) {
		return cerr.New(cerr.KindBindingMismatch, "public_inputs[nullifier_index] != nullifier")
	}
	if !payload.PublicInputs[idx.CommitmentIndex].Equal(payload.Commitment) {
		return cerr.New(cerr.KindBindingMismatch, "public_inputs[commitment_index] != commitment")
	}
	return nil
}

// BindIntentHash pads payload.PublicInputs with zero felts until
// idx.IntentHashIndex is in range, then writes intentHash into that slot,
// overwriting any value already there; it never returns an error.
// Padding only appends slots past the current end, so existing slots,
// including the nullifier/commitment positions checked by
// CheckNullifierCommitmentBinding, keep their values.
func BindIntentHash(payload *ProofPayload, idx BindingIndices, intentHash felt.Felt) error {
	for len(payload.PublicInputs) <= idx.IntentHashIndex {
		payload.PublicInputs = append(payload.PublicInputs, felt.Zero)
	}
	payload.PublicInputs[idx.IntentHashIndex] = intentHash
	return nil
}
