package privacy

import (
	"context"
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

// FlowSelectors carries one flow's executor selectors for
// preview_{flow}_intent_hash and execute_private_{flow}. The caller
// supplies them; the pipeline does not derive them from the flow name.
type FlowSelectors struct {
	PreviewIntentHash felt.Felt
	ExecuteEntrypoint felt.Felt
}

// ContractCaller is the narrow slice of *rollup.Gateway the pipeline
// needs for previewing intent_hash; declared here so tests can fake it
// without dialing a rollup node.
type ContractCaller interface {
	Call(ctx context.Context, call rollup.Call) ([]felt.Felt, error)
}

// Pipeline orchestrates proof acquisition, binding checks, and
// calldata/wallet-batch construction for one privacy action.
type Pipeline struct {
	gateway  ContractCaller
	prover   Prover
	routers  *RouterResolver
	indices  BindingIndices
	executor felt.Felt
}

// NewPipeline wires the Rollup Gateway (for intent_hash preview calls),
// the configured Prover, and the per-verifier router table.
func NewPipeline(gateway ContractCaller, prover Prover, routers *RouterResolver, indices BindingIndices, executor felt.Felt) *Pipeline {
	return &Pipeline{gateway: gateway, prover: prover, routers: routers, indices: indices, executor: executor}
}

// AcquireProof runs the configured Prover for one pending intent. The
// returned payload still needs CheckNullifierCommitmentBinding (done by
// PrepareRouterSubmit/PreparePrivateExecution) before it is usable.
func (p *Pipeline) AcquireProof(ctx context.Context, req ProverRequest) (*ProofPayload, error) {
	return p.prover.Acquire(ctx, req)
}

// SubmitRequest is the HTTP boundary's intent description, already
// parsed into felts by the out-of-scope request layer.
type SubmitRequest struct {
	Verifier       VerifierKind
	Flow           string
	ActorAddress   felt.Felt
	ActionSelector felt.Felt
	ActionCalldata []felt.Felt
	V2             *V2Request
	Payload        *ProofPayload
	Deadline       time.Duration
}

// RouterSubmitResult is a single-call router submission (V1 or V2), for
// flows that submit directly to the PrivacyRouter/ZkPrivacyRouter
// instead of through the private-action executor.
type RouterSubmitResult struct {
	Intent *Intent
	Call   felt.Call
}

// PrepareRouterSubmit binds and builds the router submit_action
// (V2, when req.V2 carries any field) or submit_private_action (V1,
// otherwise) call. It never contacts the rollup; this is the "Bound"
// step of the intent state machine, performed before the wallet signs.
func (p *Pipeline) PrepareRouterSubmit(req *SubmitRequest) (*RouterSubmitResult, error) {
	if IsDummyPayload(req.Payload) {
		return nil, cerr.New(cerr.KindDummyPayloadRejected, "submitted payload is the dummy [0x1] placeholder")
	}
	if err := CheckNullifierCommitmentBinding(req.Payload, p.indices); err != nil {
		return nil, err
	}

	routerAddr, err := p.routers.Resolve(req.Verifier)
	if err != nil {
		return nil, err
	}
	router, err := felt.Parse(routerAddr)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternalInvariant, "configured router address", err)
	}

	var call felt.Call
	if req.V2.HasAnyField() {
		selector, err := felt.Parse(submitActionSelector)
		if err != nil {
			return nil, cerr.Wrap(cerr.KindInternalInvariant, "submit_action selector", err)
		}
		call, err = BuildSubmitCallV2(router, selector, req.V2, req.Payload)
		if err != nil {
			return nil, err
		}
	} else {
		selector, err := felt.Parse(submitPrivateActionSelector)
		if err != nil {
			return nil, cerr.Wrap(cerr.KindInternalInvariant, "submit_private_action selector", err)
		}
		call = BuildSubmitCallV1(router, selector, req.Payload)
	}

	intent := NewIntent(req.Flow, req.ActorAddress, router, call.Selector.Hex(), req.ActionCalldata,
		req.Verifier, req.Payload.Commitment, req.Payload.Nullifier, time.Now().Add(req.Deadline))
	if err := intent.Advance(StateBound); err != nil {
		return nil, err
	}

	return &RouterSubmitResult{Intent: intent, Call: call}, nil
}

// PrivateExecutionResult is the private-executor flow's two-call wallet
// batch plus the intent it corresponds to.
type PrivateExecutionResult struct {
	Intent     *Intent
	IntentHash felt.Felt
	Calls      []felt.Call
}

// PreparePrivateExecution previews intent_hash via the executor's
// preview_{flow}_intent_hash entrypoint, binds it into the payload's
// configured public_inputs slot, and builds the ordered
// [submit_private_intent, execute_private_{flow}] wallet batch.
func (p *Pipeline) PreparePrivateExecution(ctx context.Context, req *SubmitRequest, selectors FlowSelectors, submitSelector felt.Felt) (*PrivateExecutionResult, error) {
	if IsDummyPayload(req.Payload) {
		return nil, cerr.New(cerr.KindDummyPayloadRejected, "submitted payload is the dummy [0x1] placeholder")
	}
	if err := CheckNullifierCommitmentBinding(req.Payload, p.indices); err != nil {
		return nil, err
	}

	previewCalldata := append([]felt.Felt{req.ActionSelector}, req.ActionCalldata...)
	result, err := p.gateway.Call(ctx, rollup.Call{
		ContractAddress: p.executor,
		Selector:        selectors.PreviewIntentHash,
		Calldata:        previewCalldata,
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, cerr.New(cerr.KindInternalInvariant, "preview_intent_hash returned no result")
	}
	intentHash := result[0]

	if err := BindIntentHash(req.Payload, p.indices, intentHash); err != nil {
		return nil, err
	}

	batch := BuildWalletBatch(p.executor, submitSelector, selectors.ExecuteEntrypoint, req.Payload, req.ActionSelector, req.ActionCalldata)

	intent := NewIntent(req.Flow, req.ActorAddress, p.executor, "", req.ActionCalldata,
		req.Verifier, req.Payload.Commitment, req.Payload.Nullifier, time.Now().Add(req.Deadline))
	intent.IntentHash = intentHash
	if err := intent.Advance(StateBound); err != nil {
		return nil, err
	}

	return &PrivateExecutionResult{Intent: intent, IntentHash: intentHash, Calls: batch}, nil
}

// These selectors are the account-abstraction entrypoint selectors for
// the router's two submit shapes; computed offline from the entrypoint
// name via the rollup's selector hash and pinned here as constants
// rather than re-hashed on every call.
const (
	submitActionSelector        = "0x0123fff5f1e2ba29b93a3ecb9fa9d70f6ecde9ba4f878669d5d4824d0764e8e5"
	submitPrivateActionSelector = "0x00ec70f073ef2ca08e52e4fa899aaf4a883d89d39a8c7847e08f87414f3af151"
)
