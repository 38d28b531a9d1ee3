package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PointsRepository provides additive-delta upserts over the points table.
// Deltas are never overwritten: the upsert always adds onto the existing
// row, so a replayed delta is only safe to apply if the caller already
// guarded against double-application (see the transactions table's
// tx_hash uniqueness).
type PointsRepository struct {
	client *Client
}

// NewPointsRepository builds a repository bound to client.
func NewPointsRepository(client *Client) *PointsRepository {
	return &PointsRepository{client: client}
}

// PointsDelta is an additive contribution to one user's epoch row.
type PointsDelta struct {
	UserAddress    string
	Epoch          int64
	SwapPoints     float64
	BridgePoints   float64
	StakePoints    float64
	ReferralPoints float64
	SocialPoints   float64
}

// ApplyDelta adds delta's sub-point fields onto the (user, epoch) row,
// creating it if absent. total_points is recomputed in the same statement
// from the additive sub-point columns times the row's current
// staking_multiplier, never written through from multiple code paths.
func (r *PointsRepository) ApplyDelta(ctx context.Context, delta PointsDelta) error {
	_, err := r.client.ExecContext(ctx, `
		INSERT INTO points (user_address, epoch, swap_points, bridge_points, stake_points,
		                     referral_points, social_points, total_points, staking_multiplier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,($3+$4+$5+$6+$7),1.0)
		ON CONFLICT (user_address, epoch) DO UPDATE SET
			swap_points = points.swap_points + EXCLUDED.swap_points,
			bridge_points = points.bridge_points + EXCLUDED.bridge_points,
			stake_points = points.stake_points + EXCLUDED.stake_points,
			referral_points = points.referral_points + EXCLUDED.referral_points,
			social_points = points.social_points + EXCLUDED.social_points,
			total_points = (points.swap_points + EXCLUDED.swap_points
				+ points.bridge_points + EXCLUDED.bridge_points
				+ points.stake_points + EXCLUDED.stake_points
				+ points.referral_points + EXCLUDED.referral_points
				+ points.social_points + EXCLUDED.social_points) * points.staking_multiplier
		WHERE points.finalized = false`,
		delta.UserAddress, delta.Epoch, delta.SwapPoints, delta.BridgePoints,
		delta.StakePoints, delta.ReferralPoints, delta.SocialPoints,
	)
	if err != nil {
		return fmt.Errorf("apply points delta for %s epoch %d: %w", delta.UserAddress, delta.Epoch, err)
	}
	return nil
}

// SetStakingMultiplier updates the multiplier and recomputes total_points.
func (r *PointsRepository) SetStakingMultiplier(ctx context.Context, userAddress string, epoch int64, multiplier float64) error {
	_, err := r.client.ExecContext(ctx, `
		UPDATE points SET
			staking_multiplier = $3,
			total_points = (swap_points + bridge_points + stake_points + referral_points + social_points) * $3
		WHERE user_address = $1 AND epoch = $2 AND finalized = false`,
		userAddress, epoch, multiplier,
	)
	if err != nil {
		return fmt.Errorf("set staking multiplier for %s epoch %d: %w", userAddress, epoch, err)
	}
	return nil
}

// FlagWashTrading sets wash_trading_flagged=true for the (user, epoch) row,
// creating it if absent. The flag is sticky for the rest of the epoch.
func (r *PointsRepository) FlagWashTrading(ctx context.Context, userAddress string, epoch int64) error {
	_, err := r.client.ExecContext(ctx, `
		INSERT INTO points (user_address, epoch, wash_trading_flagged)
		VALUES ($1, $2, true)
		ON CONFLICT (user_address, epoch) DO UPDATE SET wash_trading_flagged = true`,
		userAddress, epoch,
	)
	if err != nil {
		return fmt.Errorf("flag wash trading for %s epoch %d: %w", userAddress, epoch, err)
	}
	return nil
}

// Get fetches the (user, epoch) row.
func (r *PointsRepository) Get(ctx context.Context, userAddress string, epoch int64) (*EpochPoints, error) {
	row := r.client.QueryRowContext(ctx, `
		SELECT user_address, epoch, swap_points, bridge_points, stake_points,
		       referral_points, social_points, total_points, staking_multiplier,
		       nft_boost, wash_trading_flagged, finalized
		FROM points WHERE user_address = $1 AND epoch = $2`, userAddress, epoch)

	var p EpochPoints
	err := row.Scan(&p.UserAddress, &p.Epoch, &p.SwapPoints, &p.BridgePoints, &p.StakePoints,
		&p.ReferralPoints, &p.SocialPoints, &p.TotalPoints, &p.StakingMultiplier,
		&p.NftBoost, &p.WashTradingFlagged, &p.Finalized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEpochPointsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get points for %s epoch %d: %w", userAddress, epoch, err)
	}
	return &p, nil
}

// ListForEpoch returns every non-flagged row for an epoch, the input set
// for Merkle tree construction.
func (r *PointsRepository) ListForEpoch(ctx context.Context, epoch int64) ([]EpochPoints, error) {
	rows, err := r.client.QueryContext(ctx, `
		SELECT user_address, epoch, swap_points, bridge_points, stake_points,
		       referral_points, social_points, total_points, staking_multiplier,
		       nft_boost, wash_trading_flagged, finalized
		FROM points WHERE epoch = $1 AND wash_trading_flagged = false`, epoch)
	if err != nil {
		return nil, fmt.Errorf("list points for epoch %d: %w", epoch, err)
	}
	defer rows.Close()

	var out []EpochPoints
	for rows.Next() {
		var p EpochPoints
		if err := rows.Scan(&p.UserAddress, &p.Epoch, &p.SwapPoints, &p.BridgePoints, &p.StakePoints,
			&p.ReferralPoints, &p.SocialPoints, &p.TotalPoints, &p.StakingMultiplier,
			&p.NftBoost, &p.WashTradingFlagged, &p.Finalized); err != nil {
			return nil, fmt.Errorf("scan epoch points: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Finalize freezes every row of the given epoch.
func (r *PointsRepository) Finalize(ctx context.Context, epoch int64) error {
	_, err := r.client.ExecContext(ctx, `UPDATE points SET finalized = true WHERE epoch = $1`, epoch)
	if err != nil {
		return fmt.Errorf("finalize epoch %d: %w", epoch, err)
	}
	return nil
}
