package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// Gateway is the uniform read/write façade over the rollup's
// Starknet-shaped JSON-RPC surface. It holds a single transport
// connection and a RetryPolicy applied to every RPC it issues (reads,
// event scans, transaction/receipt fetches and Invoke's submission) to
// absorb transient upstream failures.
type Gateway struct {
	rpc   *rpc.Client
	retry RetryPolicy

	relayerAccount felt.Felt
	relayerSigner  Signer
}

// Signer abstracts relayer-key signing so the gateway never needs to
// hold key material directly; cmd/server wires a concrete signer built
// from Config.RelayerSigningKey.
type Signer interface {
	SignInvoke(ctx context.Context, account felt.Felt, calls []Call) (signature []felt.Felt, err error)
}

// Dial opens a JSON-RPC connection to the rollup endpoint. retry governs
// every RPC the gateway issues; pass DefaultRetryPolicy() for spec.md's
// defaults.
func Dial(ctx context.Context, url string, retry RetryPolicy) (*Gateway, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "dial rollup rpc", err)
	}
	return &Gateway{rpc: client, retry: retry}, nil
}

// WithRelayer attaches the relayer account/signer used by Invoke. A
// Gateway without a relayer configured rejects Invoke calls with
// UnsupportedFlow, matching spec.md's "relayer signing key enables the
// invoke path" configuration gate.
func (g *Gateway) WithRelayer(account felt.Felt, signer Signer) *Gateway {
	g.relayerAccount = account
	g.relayerSigner = signer
	return g
}

// Close releases the underlying transport.
func (g *Gateway) Close() {
	g.rpc.Close()
}

// ReadStorage fetches a single storage slot of contract.
func (g *Gateway) ReadStorage(ctx context.Context, contract, slot felt.Felt) (felt.Felt, error) {
	var result felt.Felt
	err := g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &result, "starknet_getStorageAt", contract, slot, Latest().marshalParam())
	})
	if err != nil {
		return felt.Zero, cerr.Wrap(cerr.KindTransientUpstream, "read_storage", err)
	}
	return result, nil
}

// Call invokes a read-only entrypoint and returns its result array.
// This is the path C3 uses for intent_hash preview calls, C5 for NFT
// state reads, and price/liquidity oracle probes.
func (g *Gateway) Call(ctx context.Context, call Call) ([]felt.Felt, error) {
	var result []felt.Felt
	params := map[string]any{
		"contract_address":     call.ContractAddress,
		"entry_point_selector": call.Selector,
		"calldata":             call.Calldata,
	}
	err := g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &result, "starknet_call", params, Latest().marshalParam())
	})
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "call", err)
	}
	return result, nil
}

// BlockNumber returns the current chain head, the input to the
// indexer's per-tick block range.
func (g *Gateway) BlockNumber(ctx context.Context) (int64, error) {
	var result int64
	err := g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &result, "starknet_blockNumber")
	})
	if err != nil {
		return 0, cerr.Wrap(cerr.KindTransientUpstream, "block_number", err)
	}
	return result, nil
}

type rawEventPage struct {
	Events            []rawEvent `json:"events"`
	ContinuationToken string     `json:"continuation_token"`
}

// GetEvents lists events emitted by contract between fromBlock and
// toBlock (inclusive) whose first key is in keys, the indexer's
// per-tick block-range scan. keys may be nil to match any first key.
// Starknet paginates via a continuation_token; this call follows every
// page before returning so the indexer always advances its cursor past
// a fully-scanned range.
func (g *Gateway) GetEvents(ctx context.Context, contract felt.Felt, keys []felt.Felt, fromBlock, toBlock int64) ([]Event, error) {
	var keyFilter [][]felt.Felt
	if len(keys) > 0 {
		keyFilter = [][]felt.Felt{keys}
	}

	var out []Event
	continuationToken := ""
	for {
		params := map[string]any{
			"from_block":     AtBlock(fromBlock).marshalParam(),
			"to_block":       AtBlock(toBlock).marshalParam(),
			"address":        contract,
			"keys":           keyFilter,
			"chunk_size":     1000,
		}
		if continuationToken != "" {
			params["continuation_token"] = continuationToken
		}

		var page rawEventPage
		err := g.retry.do(ctx, func(ctx context.Context) error {
			return g.rpc.CallContext(ctx, &page, "starknet_getEvents", params)
		})
		if err != nil {
			return nil, cerr.Wrap(cerr.KindTransientUpstream, "get_events", err)
		}

		for _, e := range page.Events {
			out = append(out, Event{
				FromAddress: e.FromAddress,
				Keys:        e.Keys,
				Data:        e.Data,
				BlockNumber: e.BlockNumber,
				TxHash:      e.TxHash,
			})
		}

		if page.ContinuationToken == "" {
			break
		}
		continuationToken = page.ContinuationToken
	}
	return out, nil
}

type rawTransaction struct {
	TransactionHash felt.Felt   `json:"transaction_hash"`
	Version         string      `json:"version"`
	SenderAddress   felt.Felt   `json:"sender_address"`
	Calldata        []felt.Felt `json:"calldata"`
}

// GetTransaction fetches a transaction by hash, retrying transient
// failures per the configured RetryPolicy.
func (g *Gateway) GetTransaction(ctx context.Context, txHash felt.Felt) (*Transaction, error) {
	var raw rawTransaction
	err := g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &raw, "starknet_getTransactionByHash", txHash)
	})
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "get_transaction", err)
	}

	version, err := parseTxVersion(raw.Version)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInvalidRequest, "get_transaction version", err)
	}

	return &Transaction{
		Hash:          raw.TransactionHash,
		Version:       version,
		SenderAddress: raw.SenderAddress,
		Calldata:      raw.Calldata,
	}, nil
}

func parseTxVersion(s string) (TxVersion, error) {
	switch s {
	case "0x0", "0":
		return TxVersionV0, nil
	case "0x1", "1":
		return TxVersionV1, nil
	case "0x3", "3":
		return TxVersionV3, nil
	default:
		return 0, fmt.Errorf("unrecognized tx version %q", s)
	}
}

type rawEvent struct {
	FromAddress felt.Felt   `json:"from_address"`
	Keys        []felt.Felt `json:"keys"`
	Data        []felt.Felt `json:"data"`
	BlockNumber int64       `json:"block_number"`
	TxHash      felt.Felt   `json:"transaction_hash"`
}

type rawReceipt struct {
	TransactionHash felt.Felt  `json:"transaction_hash"`
	ExecutionStatus string     `json:"execution_status"`
	FinalityStatus  string     `json:"finality_status"`
	RevertReason    string     `json:"revert_reason"`
	BlockNumber     int64      `json:"block_number"`
	Events          []rawEvent `json:"events"`
}

// GetReceipt fetches a transaction receipt by hash, retrying transient
// failures per the configured RetryPolicy. It does not itself poll for
// finality; callers that need that use WaitForReceipt.
func (g *Gateway) GetReceipt(ctx context.Context, txHash felt.Felt) (*Receipt, error) {
	var raw rawReceipt
	err := g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &raw, "starknet_getTransactionReceipt", txHash)
	})
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "get_receipt", err)
	}

	status := normalizeStatus(raw.ExecutionStatus, raw.FinalityStatus)
	events := make([]Event, 0, len(raw.Events))
	for _, e := range raw.Events {
		events = append(events, Event{
			FromAddress: e.FromAddress,
			Keys:        e.Keys,
			Data:        e.Data,
			BlockNumber: raw.BlockNumber,
			TxHash:      raw.TransactionHash,
		})
	}

	return &Receipt{
		TxHash:      raw.TransactionHash,
		Status:      status,
		RevertError: raw.RevertReason,
		BlockNumber: raw.BlockNumber,
		Events:      events,
	}, nil
}

func normalizeStatus(execution, finality string) FinalityStatus {
	if execution == "REVERTED" {
		return StatusReverted
	}
	switch finality {
	case "ACCEPTED_ON_L1":
		return StatusAcceptedL1
	case "ACCEPTED_ON_L2":
		return StatusAcceptedL2
	default:
		return StatusPreConfirmed
	}
}

// WaitForReceipt polls GetReceipt until the finality status is stronger
// than PreConfirmed, failing immediately with Reverted if the receipt
// ever reports a revert. ctx cancellation (deadline/timeout) ends the
// poll with TxNotFinalizedYet, distinguishing "still pending" from a
// hard upstream failure.
func (g *Gateway) WaitForReceipt(ctx context.Context, txHash felt.Felt) (*Receipt, error) {
	for {
		receipt, err := g.GetReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt.Status == StatusReverted {
			return receipt, cerr.Reverted(receipt.RevertError)
		}
		if receipt.Status.Finalized() {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return receipt, cerr.New(cerr.KindTxNotFinalizedYet, "receipt still pre-confirmed")
		case <-time.After(pollInterval):
		}
	}
}

// Invoke signs and submits calls with the relayer key. Never used for
// user-initiated swaps: the wallet must sign those. Fails with
// UnsupportedFlow if no relayer is configured.
func (g *Gateway) Invoke(ctx context.Context, calls []Call) (felt.Felt, error) {
	if g.relayerSigner == nil {
		return felt.Zero, cerr.New(cerr.KindUnsupportedFlow, "relayer signing key not configured")
	}

	signature, err := g.relayerSigner.SignInvoke(ctx, g.relayerAccount, calls)
	if err != nil {
		return felt.Zero, cerr.Wrap(cerr.KindInternalInvariant, "sign relayer invoke", err)
	}

	feltCalls := make([]felt.Call, len(calls))
	for i, c := range calls {
		feltCalls[i] = c.toFeltCall()
	}

	params := map[string]any{
		"type":           "INVOKE",
		"sender_address": g.relayerAccount,
		"calldata":       felt.EncodeMulticall(feltCalls),
		"signature":      signature,
		"version":        "0x1",
	}

	var result struct {
		TransactionHash felt.Felt `json:"transaction_hash"`
	}
	err = g.retry.do(ctx, func(ctx context.Context) error {
		return g.rpc.CallContext(ctx, &result, "starknet_addInvokeTransaction", params)
	})
	if err != nil {
		return felt.Zero, cerr.Wrap(cerr.KindTransientUpstream, "invoke", err)
	}
	return result.TransactionHash, nil
}
