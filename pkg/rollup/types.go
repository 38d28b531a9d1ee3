// Package rollup implements the Rollup Gateway (C2): a uniform façade
// over the rollup's Starknet-shaped JSON-RPC surface for reads, writes,
// and finality polling.
package rollup

import (
	"time"

	"github.com/zkcarel/core/pkg/felt"
)

// FinalityStatus mirrors the rollup's receipt execution/finality status.
type FinalityStatus string

const (
	StatusPreConfirmed FinalityStatus = "PRE_CONFIRMED"
	StatusAcceptedL2   FinalityStatus = "ACCEPTED_ON_L2"
	StatusAcceptedL1   FinalityStatus = "ACCEPTED_ON_L1"
	StatusReverted     FinalityStatus = "REVERTED"
)

// Finalized reports whether the status is strictly stronger than
// PreConfirmed, the threshold C4/C5 require before crediting anything.
func (s FinalityStatus) Finalized() bool {
	switch s {
	case StatusAcceptedL2, StatusAcceptedL1, StatusReverted:
		return true
	default:
		return false
	}
}

// TxVersion is the account-abstraction invoke version. v0 is rejected by C4.
type TxVersion int

const (
	TxVersionV0 TxVersion = 0
	TxVersionV1 TxVersion = 1
	TxVersionV3 TxVersion = 3
)

// Transaction is the gateway's normalized view of an INVOKE transaction.
type Transaction struct {
	Hash          felt.Felt
	Version       TxVersion
	SenderAddress felt.Felt
	Calldata      []felt.Felt
	BlockNumber   int64
}

// Event is a single emitted event, keyed by its first key felt for
// watcher filtering.
type Event struct {
	FromAddress felt.Felt
	Keys        []felt.Felt
	Data        []felt.Felt
	BlockNumber int64
	TxHash      felt.Felt
}

// Receipt is the gateway's normalized view of a transaction receipt.
type Receipt struct {
	TxHash      felt.Felt
	Status      FinalityStatus
	RevertError string
	BlockNumber int64
	Events      []Event
}

// Call describes a single entrypoint invocation, read-only or as one
// leg of a relayer-signed multicall. Selector is the pre-hashed entry
// point selector felt, matching pkg/felt.Call's shape so the gateway can
// hand calls directly to the C1 multicall encoder.
type Call struct {
	ContractAddress felt.Felt
	Selector        felt.Felt
	Calldata        []felt.Felt
}

func (c Call) toFeltCall() felt.Call {
	return felt.Call{To: c.ContractAddress, Selector: c.Selector, Data: c.Calldata}
}

// BlockID selects a block for reads that accept one.
type BlockID struct {
	Latest bool
	Number int64
}

// Latest is the sentinel BlockID meaning "most recent accepted block".
func Latest() BlockID { return BlockID{Latest: true} }

// AtBlock selects an explicit block number.
func AtBlock(number int64) BlockID { return BlockID{Number: number} }

func (b BlockID) marshalParam() any {
	if b.Latest {
		return "latest"
	}
	return map[string]int64{"block_number": b.Number}
}

// pollInterval is how often wait_for_receipt re-polls while a tx remains
// PreConfirmed, distinct from the RetryPolicy governing transient errors.
const pollInterval = 500 * time.Millisecond
