package accounting

import (
	"fmt"
	"math/big"
	"time"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

// swapEventDataLen is the fixed field count a watched swap-contract
// event's data array is assumed to carry, since no contract ABI is in
// scope for this core:
//
//	[user, token_in, token_out, amount_in, amount_out, usd_value_e6, fee_paid_e6]
//
// Operators targeting a different ABI supply their own EventMapper; this
// layout only backs the SWAP_CONTRACT_EVENT_ONLY default.
const swapEventDataLen = 7

// NewSwapEventMapper builds the default EventMapper for
// SWAP_CONTRACT_EVENT_ONLY mode: every event on the watched contract is
// assumed to be a swap in swapEventDataLen order, with usd_value and
// fee_paid fixed-point at 1e6, converted to float only here at the
// ledger boundary (raw units are never lost before this point).
func NewSwapEventMapper() EventMapper {
	return func(event rollup.Event) (*database.Transaction, error) {
		if len(event.Data) < swapEventDataLen {
			return nil, fmt.Errorf("swap event data has %d fields, want >= %d", len(event.Data), swapEventDataLen)
		}

		user := event.Data[0].Hex()
		tokenIn := event.Data[1].Hex()
		tokenOut := event.Data[2].Hex()
		amountIn := event.Data[3].BigInt().String()
		amountOut := event.Data[4].BigInt().String()
		usdValue := fixedE6ToFloat(event.Data[5])
		feePaid := fixedE6ToFloat(event.Data[6])

		return &database.Transaction{
			TxHash:      event.TxHash.Hex(),
			BlockNumber: event.BlockNumber,
			UserAddress: user,
			ActionKind:  constants.ActionKindSwap,
			TokenIn:     &tokenIn,
			TokenOut:    &tokenOut,
			AmountIn:    &amountIn,
			AmountOut:   &amountOut,
			USDValue:    &usdValue,
			FeePaid:     &feePaid,
			OccurredAt:  time.Now().UTC(),
			Processed:   false,
			IsPrivate:   false,
		}, nil
	}
}

func fixedE6ToFloat(f felt.Felt) float64 {
	v := new(big.Float).SetInt(f.BigInt())
	v.Quo(v, big.NewFloat(1_000_000))
	out, _ := v.Float64()
	return out
}
