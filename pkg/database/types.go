package database

import "time"

// Transaction is the canonical ledger row created by C4 on successful
// verification or by C5 on event ingestion.
type Transaction struct {
	TxHash       string
	BlockNumber  int64
	UserAddress  string
	ActionKind   string
	TokenIn      *string
	TokenOut     *string
	AmountIn     *string
	AmountOut    *string
	USDValue     *float64
	FeePaid      *float64
	PointsEarned *float64
	OccurredAt   time.Time
	Processed    bool
	IsPrivate    bool
}

// EpochPoints is the per-(user, epoch) accrual cell.
type EpochPoints struct {
	UserAddress         string
	Epoch               int64
	SwapPoints          float64
	BridgePoints        float64
	StakePoints         float64
	ReferralPoints      float64
	SocialPoints        float64
	TotalPoints         float64
	StakingMultiplier   float64
	NftBoost            float64
	WashTradingFlagged  bool
	Finalized           bool
}

// LinkedWallet binds a user_key to one address per chain.
type LinkedWallet struct {
	UserAddress string
	Chain       string
	Address     string
}

// MerkleRootRecord is the persisted per-epoch distribution root.
type MerkleRootRecord struct {
	Epoch             int64
	Root              string
	DistributionPool  float64
	ClaimFeeBPS       int
	CreatedAt         time.Time
}
