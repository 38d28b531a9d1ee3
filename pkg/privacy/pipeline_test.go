package privacy

import (
	"context"
	"testing"
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

type fakeCaller struct {
	result []felt.Felt
	err    error
	calls  []rollup.Call
}

func (f *fakeCaller) Call(ctx context.Context, call rollup.Call) ([]felt.Felt, error) {
	f.calls = append(f.calls, call)
	return f.result, f.err
}

func testPayload(nullifier, commitment felt.Felt) *ProofPayload {
	return &ProofPayload{
		VerifierKind: VerifierGaraga,
		Nullifier:    nullifier,
		Commitment:   commitment,
		Proof:        []felt.Felt{felt.FromUint64(10), felt.FromUint64(11)},
		PublicInputs: []felt.Felt{nullifier, commitment},
	}
}

func TestPrepareRouterSubmitV1(t *testing.T) {
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	pipeline := NewPipeline(&fakeCaller{}, nil, routers, DefaultBindingIndices(), felt.FromUint64(900))

	req := &SubmitRequest{
		Verifier:     VerifierGaraga,
		Flow:         "swap",
		ActorAddress: felt.FromUint64(1),
		Payload:      testPayload(felt.FromUint64(1), felt.FromUint64(2)),
		Deadline:     time.Hour,
	}

	result, err := pipeline.PrepareRouterSubmit(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent.State != StateBound {
		t.Fatalf("expected intent to be Bound, got %s", result.Intent.State)
	}
	if len(result.Call.Data) == 0 {
		t.Fatal("expected non-empty V1 calldata")
	}
}

func TestPrepareRouterSubmitV2WhenRequestPresent(t *testing.T) {
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	pipeline := NewPipeline(&fakeCaller{}, nil, routers, DefaultBindingIndices(), felt.FromUint64(900))

	req := &SubmitRequest{
		Verifier:     VerifierGaraga,
		Flow:         "swap",
		ActorAddress: felt.FromUint64(1),
		Payload:      testPayload(felt.FromUint64(1), felt.FromUint64(2)),
		V2:           &V2Request{OldRoot: felt.FromUint64(5), NewRoot: felt.FromUint64(6)},
		Deadline:     time.Hour,
	}

	result, err := pipeline.PrepareRouterSubmit(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Call.Data) < 3 || !result.Call.Data[1].Equal(req.V2.OldRoot) {
		t.Fatal("expected V2 calldata layout with old_root in position 1")
	}
}

func TestPrepareRouterSubmitRejectsDummyPayload(t *testing.T) {
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	pipeline := NewPipeline(&fakeCaller{}, nil, routers, DefaultBindingIndices(), felt.FromUint64(900))

	req := &SubmitRequest{
		Verifier: VerifierGaraga,
		Flow:     "swap",
		Payload: &ProofPayload{
			Proof:        []felt.Felt{felt.One},
			PublicInputs: []felt.Felt{felt.One},
		},
		Deadline: time.Hour,
	}

	_, err := pipeline.PrepareRouterSubmit(req)
	if !cerr.HasKind(err, cerr.KindDummyPayloadRejected) {
		t.Fatalf("expected dummy payload rejection, got %v", err)
	}
}

func TestPrepareRouterSubmitRejectsBindingMismatch(t *testing.T) {
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	pipeline := NewPipeline(&fakeCaller{}, nil, routers, DefaultBindingIndices(), felt.FromUint64(900))

	req := &SubmitRequest{
		Verifier: VerifierGaraga,
		Flow:     "swap",
		Payload:  testPayload(felt.FromUint64(1), felt.FromUint64(2)),
		Deadline: time.Hour,
	}
	req.Payload.PublicInputs = []felt.Felt{felt.FromUint64(999), felt.FromUint64(2)}

	_, err := pipeline.PrepareRouterSubmit(req)
	if !cerr.HasKind(err, cerr.KindBindingMismatch) {
		t.Fatalf("expected binding mismatch, got %v", err)
	}
}

func TestPreparePrivateExecutionBindsPreviewedIntentHash(t *testing.T) {
	intentHash := felt.FromUint64(555)
	caller := &fakeCaller{result: []felt.Felt{intentHash}}
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	executor := felt.FromUint64(900)
	pipeline := NewPipeline(caller, nil, routers, DefaultBindingIndices(), executor)

	req := &SubmitRequest{
		Verifier:       VerifierGaraga,
		Flow:           "swap",
		ActorAddress:   felt.FromUint64(1),
		ActionSelector: felt.FromUint64(42),
		ActionCalldata: []felt.Felt{felt.FromUint64(7)},
		Payload:        testPayload(felt.FromUint64(1), felt.FromUint64(2)),
		Deadline:       time.Hour,
	}
	selectors := FlowSelectors{
		PreviewIntentHash: felt.FromUint64(100),
		ExecuteEntrypoint: felt.FromUint64(101),
	}

	result, err := pipeline.PreparePrivateExecution(context.Background(), req, selectors, felt.FromUint64(102))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IntentHash.Equal(intentHash) {
		t.Fatal("expected previewed intent_hash to be returned")
	}
	if len(result.Calls) != 2 {
		t.Fatalf("expected a two-call wallet batch, got %d", len(result.Calls))
	}
	if len(caller.calls) != 1 || !caller.calls[0].Selector.Equal(selectors.PreviewIntentHash) {
		t.Fatal("expected exactly one preview call against the configured selector")
	}
	if !req.Payload.PublicInputs[DefaultBindingIndices().IntentHashIndex].Equal(intentHash) {
		t.Fatal("expected payload public_inputs to be bound to the previewed intent_hash")
	}
}

func TestPreparePrivateExecutionPropagatesGatewayError(t *testing.T) {
	caller := &fakeCaller{err: cerr.New(cerr.KindTransientUpstream, "rpc down")}
	routers := NewRouterResolver(nil, "0x0123456789abcdef")
	pipeline := NewPipeline(caller, nil, routers, DefaultBindingIndices(), felt.FromUint64(900))

	req := &SubmitRequest{
		Verifier: VerifierGaraga,
		Flow:     "swap",
		Payload:  testPayload(felt.FromUint64(1), felt.FromUint64(2)),
		Deadline: time.Hour,
	}
	selectors := FlowSelectors{PreviewIntentHash: felt.FromUint64(100), ExecuteEntrypoint: felt.FromUint64(101)}

	_, err := pipeline.PreparePrivateExecution(context.Background(), req, selectors, felt.FromUint64(102))
	if !cerr.HasKind(err, cerr.KindTransientUpstream) {
		t.Fatalf("expected gateway error to propagate, got %v", err)
	}
}

func TestAcquireProofDelegatesToProver(t *testing.T) {
	payload := testPayload(felt.FromUint64(1), felt.FromUint64(2))
	mock := &MockProver{Payload: payload}
	pipeline := NewPipeline(&fakeCaller{}, mock, nil, DefaultBindingIndices(), felt.FromUint64(900))

	got, err := pipeline.AcquireProof(context.Background(), ProverRequest{UserAddress: "0x1", Verifier: "garaga"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != payload {
		t.Fatal("expected the mock prover's payload to be returned unchanged")
	}
}
