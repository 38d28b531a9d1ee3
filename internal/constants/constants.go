// Package constants holds the protocol-wide numeric constants that drive
// point accrual, staking multipliers, and epoch bookkeeping. Keeping these
// named instead of inlined keeps the point calculator and epoch lifecycle
// auditable against the whitepaper numbers they implement.
package constants

import "time"

// Action kinds recognized by the point calculator's per-kind formula
// dispatch. Stored verbatim in transactions.action_kind.
const (
	ActionKindSwap   = "swap"
	ActionKindBridge = "bridge"
	ActionKindStake  = "stake"
)

const (
	// PointsPerUSDSwap is the swap point rate: usd_value * rate.
	PointsPerUSDSwap = 10.0
	// PointsPerUSDBridge is the bridge point rate.
	PointsPerUSDBridge = 15.0
	// PointsPerUSDStakeDaily amortizes a 5% APY across 365 days.
	PointsPerUSDStakeDaily = 0.05 / 365.0

	// EpochDurationSeconds is the default epoch window (30 days).
	EpochDurationSeconds int64 = 2592000

	// PointsToCarelRatio converts accrued points into distributable CAREL.
	PointsToCarelRatio = 0.1

	// BPSDenominator is the basis-point denominator used for claim fees.
	BPSDenominator = 10_000

	// WashTradingWindow is the lookback window for the wash-trading guard.
	WashTradingWindow = 5 * time.Minute
	// WashTradingThreshold is the count of swaps in the window that trips the flag.
	WashTradingThreshold = 5

	// IndexerIntervalDefault is the default indexer ticker period.
	IndexerIntervalDefault = 5 * time.Second
	// PointCalcIntervalDefault is the default point-calculator ticker period.
	PointCalcIntervalDefault = 60 * time.Second
)

// StakingTier is a step in the staking-multiplier schedule.
type StakingTier struct {
	MinStaked  float64
	Multiplier float64
}

// StakingTiers is evaluated top-down; the first tier whose MinStaked the
// user's active stake meets or exceeds applies.
var StakingTiers = []StakingTier{
	{MinStaked: 100_000, Multiplier: 2.0},
	{MinStaked: 50_000, Multiplier: 1.5},
	{MinStaked: 10_000, Multiplier: 1.25},
	{MinStaked: 0, Multiplier: 1.0},
}

// StakingMultiplierFor returns the multiplier for a given active-stake amount.
func StakingMultiplierFor(activeStake float64) float64 {
	for _, tier := range StakingTiers {
		if activeStake >= tier.MinStaked {
			return tier.Multiplier
		}
	}
	return 1.0
}
