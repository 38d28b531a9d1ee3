// Package verifier implements the On-chain Transaction Verifier (C4):
// post-hoc inspection of a user-signed rollup transaction against the
// backend's expectation of what was supposed to be signed.
package verifier

import (
	"context"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

// PayloadPredicate inspects the matched inner call (and, where a
// predicate needs to look at sibling calls such as an approve, the full
// decoded batch) and returns a BindingMismatch-kind error on mismatch.
type PayloadPredicate func(matched felt.Call, batch []felt.Call) error

// Expectation is the per-flow tuple C4 checks a transaction against.
type Expectation struct {
	AllowedSenders    []felt.Felt
	ExpectedContract  *felt.Felt
	ExpectedSelectors []felt.Felt
	Predicate         PayloadPredicate
	// HeuristicFallback permits the raw-scan fallback when structured
	// multicall decoding fails. Spec-restricted to the swap flow.
	HeuristicFallback bool
}

// Result is what a successful verification returns: the block the
// transaction finalized in and the specific call that matched.
type Result struct {
	BlockNumber int64
	MatchedCall felt.Call
}

// GatewayReader is the narrow slice of *rollup.Gateway C4 needs.
type GatewayReader interface {
	GetTransaction(ctx context.Context, txHash felt.Felt) (*rollup.Transaction, error)
	WaitForReceipt(ctx context.Context, txHash felt.Felt) (*rollup.Receipt, error)
}

// Verifier checks a submitted transaction against a backend-prepared
// Expectation. It never trusts the client-reported outcome.
type Verifier struct {
	gateway GatewayReader
}

// New builds a Verifier over gateway.
func New(gateway GatewayReader) *Verifier {
	return &Verifier{gateway: gateway}
}

// Verify runs the full seven-step algorithm: fetch, check sender,
// decode, match, apply predicate, confirm finality, return.
func (v *Verifier) Verify(ctx context.Context, txHash felt.Felt, exp Expectation) (*Result, error) {
	tx, err := v.gateway.GetTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if tx.Version == rollup.TxVersionV0 {
		return nil, cerr.New(cerr.KindInvalidRequest, "INVOKE v0 transactions are not accepted")
	}
	if !feltInSet(tx.SenderAddress, exp.AllowedSenders) {
		return nil, cerr.New(cerr.KindInvalidRequest, "sender_address is not among the allowed senders for this intent")
	}

	matched, batch, err := decodeAndMatch(tx.Calldata, exp)
	if err != nil {
		return nil, err
	}

	if exp.Predicate != nil {
		if err := exp.Predicate(matched, batch); err != nil {
			return nil, err
		}
	}

	receipt, err := v.gateway.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status == rollup.StatusReverted {
		return nil, cerr.Reverted(receipt.RevertError)
	}

	return &Result{BlockNumber: receipt.BlockNumber, MatchedCall: matched}, nil
}

// decodeAndMatch decodes the outer calldata via C1's multicall decoder
// and finds the call matching exp's contract/selector. On decode
// failure it falls back to a raw heuristic scan when exp permits it.
func decodeAndMatch(calldata []felt.Felt, exp Expectation) (felt.Call, []felt.Call, error) {
	calls, err := felt.DecodeMulticall(calldata)
	if err == nil {
		matched, ok := findMatch(calls, exp)
		if !ok {
			return felt.Call{}, nil, cerr.New(cerr.KindBindingMismatch,
				"no call in the decoded batch matches the expected contract/selector")
		}
		return matched, calls, nil
	}
	if !exp.HeuristicFallback {
		return felt.Call{}, nil, cerr.Wrap(cerr.KindInvalidRequest,
			"multicall decoding failed and heuristic fallback is not permitted for this flow", err)
	}
	return rawHeuristicMatch(calldata, exp)
}

func findMatch(calls []felt.Call, exp Expectation) (felt.Call, bool) {
	for _, c := range calls {
		if exp.ExpectedContract != nil && !c.To.Equal(*exp.ExpectedContract) {
			continue
		}
		if !feltInSet(c.Selector, exp.ExpectedSelectors) {
			continue
		}
		return c, true
	}
	return felt.Call{}, false
}

// rawHeuristicMatch locates the expected selector anywhere in raw
// calldata and requires the expected contract to appear either
// immediately before it or elsewhere in the payload. It is only
// sufficient for the swap flow; the resulting "matched" call carries
// the entire raw calldata as its Data since inner-call boundaries
// cannot be recovered without structured decoding.
func rawHeuristicMatch(calldata []felt.Felt, exp Expectation) (felt.Call, []felt.Call, error) {
	if exp.ExpectedContract == nil || len(exp.ExpectedSelectors) == 0 {
		return felt.Call{}, nil, cerr.New(cerr.KindInvalidRequest,
			"heuristic fallback requires a configured contract and selector")
	}

	selectorIdx := -1
	for i, f := range calldata {
		if feltInSet(f, exp.ExpectedSelectors) {
			selectorIdx = i
			break
		}
	}
	if selectorIdx == -1 {
		return felt.Call{}, nil, cerr.New(cerr.KindBindingMismatch,
			"expected selector not found anywhere in raw calldata")
	}

	contractFound := selectorIdx > 0 && calldata[selectorIdx-1].Equal(*exp.ExpectedContract)
	if !contractFound {
		for _, f := range calldata {
			if f.Equal(*exp.ExpectedContract) {
				contractFound = true
				break
			}
		}
	}
	if !contractFound {
		return felt.Call{}, nil, cerr.New(cerr.KindBindingMismatch,
			"expected contract not found anywhere in raw calldata")
	}

	matched := felt.Call{To: *exp.ExpectedContract, Selector: calldata[selectorIdx], Data: calldata}
	return matched, nil, nil
}

func feltInSet(f felt.Felt, set []felt.Felt) bool {
	for _, s := range set {
		if f.Equal(s) {
			return true
		}
	}
	return false
}
