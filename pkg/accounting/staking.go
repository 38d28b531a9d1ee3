package accounting

import (
	"context"
	"math/big"
	"time"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

// stakeReadTimeout bounds the on-chain read GatewayStakeReader makes,
// the same 2.5s budget as the NFT discount read since both are
// single-call view reads on the hot swap/stake credit path.
const stakeReadTimeout = 2500 * time.Millisecond

// StakeReader fetches a user's current active stake, the input to
// spec.md's staking-multiplier step function.
type StakeReader interface {
	GetActiveStake(ctx context.Context, userAddress felt.Felt) (float64, error)
}

// StakeCaller is the narrow C2 read surface GatewayStakeReader needs to
// view-call the staking contract.
type StakeCaller interface {
	Call(ctx context.Context, call rollup.Call) ([]felt.Felt, error)
}

// getActiveStakeSelector is the staking contract's read-only
// get_active_stake(user) entrypoint. As with the discount contract's
// selector, no staking-contract ABI is in scope, so this is a named,
// flagged assumption rather than a verified one.
var getActiveStakeSelector = felt.MustFromUint64(0x1c7a5e9b3f084d26)

// GatewayStakeReader is the production StakeReader: a view call
// against the configured staking contract, decoding its single
// [active_stake] return value as a u256-scaled float (divided by 1e18,
// matching the teacher's wei-to-float convention for on-chain balances).
type GatewayStakeReader struct {
	gateway  StakeCaller
	contract felt.Felt
}

// NewGatewayStakeReader builds a reader against contract.
func NewGatewayStakeReader(gateway StakeCaller, contract felt.Felt) *GatewayStakeReader {
	return &GatewayStakeReader{gateway: gateway, contract: contract}
}

// GetActiveStake view-calls get_active_stake(user) under a 2.5s timeout.
func (r *GatewayStakeReader) GetActiveStake(ctx context.Context, userAddress felt.Felt) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, stakeReadTimeout)
	defer cancel()

	result, err := r.gateway.Call(callCtx, rollup.Call{
		ContractAddress: r.contract,
		Selector:        getActiveStakeSelector,
		Calldata:        []felt.Felt{userAddress},
	})
	if err != nil {
		return 0, cerr.Wrap(cerr.KindTransientUpstream, "get_active_stake", err)
	}
	if len(result) < 1 {
		return 0, cerr.New(cerr.KindInternalInvariant, "get_active_stake returned no fields")
	}

	wei := result[0].BigInt()
	stake, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetInt64(1e18),
	).Float64()
	return stake, nil
}

// StakingWriter is the narrow write surface UpdateStakingMultiplier
// needs from database.PointsRepository.
type StakingWriter interface {
	SetStakingMultiplier(ctx context.Context, userAddress string, epoch int64, multiplier float64) error
}

// UpdateStakingMultiplier reads userAddress's current active stake and
// writes the corresponding tier multiplier onto its epoch row, per
// spec.md's "staking_multiplier is a step function of the user's active
// stake". Called by the point calculator whenever it credits a stake
// action, since that is when active stake is known to have changed.
func UpdateStakingMultiplier(ctx context.Context, reader StakeReader, writer StakingWriter, userAddress felt.Felt, userAddressHex string, epoch int64) error {
	stake, err := reader.GetActiveStake(ctx, userAddress)
	if err != nil {
		return err
	}
	multiplier := constants.StakingMultiplierFor(stake)
	return writer.SetStakingMultiplier(ctx, userAddressHex, epoch, multiplier)
}
