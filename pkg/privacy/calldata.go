package privacy

import (
	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// V2Request carries the router-transition metadata only the V2
// submit_action shape needs; its presence (any of these fields set) is
// what selects V2 over V1.
type V2Request struct {
	ActionType  felt.Felt
	OldRoot     felt.Felt
	NewRoot     felt.Felt
	Nullifiers  []felt.Felt
	Commitments []felt.Felt
}

// HasAnyField reports whether r carries any of the fields that commit
// the pipeline to the V2 submit_action layout instead of V1.
func (r *V2Request) HasAnyField() bool {
	if r == nil {
		return false
	}
	return !r.ActionType.IsZero() || !r.OldRoot.IsZero() || !r.NewRoot.IsZero() ||
		len(r.Nullifiers) > 0 || len(r.Commitments) > 0
}

// BuildSubmitCallV1 encodes ZkPrivacyRouter.submit_private_action's
// calldata: [nullifier, commitment, |proof|, proof…, |public_inputs|, public_inputs…].
func BuildSubmitCallV1(router felt.Felt, selector felt.Felt, payload *ProofPayload) felt.Call {
	calldata := make([]felt.Felt, 0, 2+1+len(payload.Proof)+1+len(payload.PublicInputs))
	calldata = append(calldata, payload.Nullifier, payload.Commitment)
	calldata = append(calldata, felt.FromUint64(uint64(len(payload.Proof))))
	calldata = append(calldata, payload.Proof...)
	calldata = append(calldata, felt.FromUint64(uint64(len(payload.PublicInputs))))
	calldata = append(calldata, payload.PublicInputs...)

	return felt.Call{To: router, Selector: selector, Data: calldata}
}

// BuildSubmitCallV2 encodes PrivacyRouter.submit_action's calldata:
// [action_type, old_root, new_root, |nullifiers|, nullifiers…,
// |commitments|, commitments…, |public_inputs|, public_inputs…, |proof|, proof…].
func BuildSubmitCallV2(router felt.Felt, selector felt.Felt, v2 *V2Request, payload *ProofPayload) (felt.Call, error) {
	if v2 == nil {
		return felt.Call{}, cerr.New(cerr.KindInvalidRequest, "V2 submit requires action_type/old_root/new_root")
	}

	calldata := make([]felt.Felt, 0, 3+1+len(v2.Nullifiers)+1+len(v2.Commitments)+1+len(payload.PublicInputs)+1+len(payload.Proof))
	calldata = append(calldata, v2.ActionType, v2.OldRoot, v2.NewRoot)

	calldata = append(calldata, felt.FromUint64(uint64(len(v2.Nullifiers))))
	calldata = append(calldata, v2.Nullifiers...)

	calldata = append(calldata, felt.FromUint64(uint64(len(v2.Commitments))))
	calldata = append(calldata, v2.Commitments...)

	calldata = append(calldata, felt.FromUint64(uint64(len(payload.PublicInputs))))
	calldata = append(calldata, payload.PublicInputs...)

	calldata = append(calldata, felt.FromUint64(uint64(len(payload.Proof))))
	calldata = append(calldata, payload.Proof...)

	return felt.Call{To: router, Selector: selector, Data: calldata}, nil
}

// BuildWalletBatch produces the ordered two-call batch a private-executor
// flow hands the wallet to sign: submit_private_intent then
// execute_private_{flow}.
func BuildWalletBatch(executor felt.Felt, submitSelector, executeSelector felt.Felt, payload *ProofPayload, actionSelector felt.Felt, actionCalldata []felt.Felt) []felt.Call {
	submit := felt.Call{
		To:       executor,
		Selector: submitSelector,
		Data:     append([]felt.Felt{payload.Nullifier, payload.Commitment}, appendLengthPrefixed(payload.Proof, payload.PublicInputs)...),
	}
	execute := felt.Call{
		To:       executor,
		Selector: executeSelector,
		Data:     append([]felt.Felt{payload.Commitment, actionSelector}, appendLengthPrefixed(actionCalldata)...),
	}
	return []felt.Call{submit, execute}
}

// appendLengthPrefixed flattens one or more felt slices, each preceded
// by its own length felt, in call order.
func appendLengthPrefixed(slices ...[]felt.Felt) []felt.Felt {
	var out []felt.Felt
	for _, s := range slices {
		out = append(out, felt.FromUint64(uint64(len(s))))
		out = append(out, s...)
	}
	return out
}

// MessageHash computes the sponge hash over the fields a relayer
// delegation signature must cover:
// (user, token, amount_low, amount_high, executor, submit_selector,
// execute_selector, nullifier, commitment, action_selector, nonce,
// deadline, H(proof), H(public_inputs), H(action_calldata)).
func MessageHash(
	user, token, amountLow, amountHigh, executor, submitSelector, executeSelector felt.Felt,
	payload *ProofPayload,
	actionSelector, nonce, deadline felt.Felt,
	actionCalldata []felt.Felt,
) felt.Felt {
	proofHash := felt.HashMany(payload.Proof)
	publicInputsHash := felt.HashMany(payload.PublicInputs)
	actionCalldataHash := felt.HashMany(actionCalldata)

	return felt.HashMany([]felt.Felt{
		user, token, amountLow, amountHigh, executor,
		submitSelector, executeSelector,
		payload.Nullifier, payload.Commitment, actionSelector,
		nonce, deadline,
		proofHash, publicInputsHash, actionCalldataHash,
	})
}
