package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MerkleRepository persists the per-epoch distribution root.
type MerkleRepository struct {
	client *Client
}

// NewMerkleRepository builds a repository bound to client.
func NewMerkleRepository(client *Client) *MerkleRepository {
	return &MerkleRepository{client: client}
}

// Put persists the root for an epoch. A root, once written, is never
// overwritten: if the epoch already has one, the insert does nothing and
// Put returns nil.
func (r *MerkleRepository) Put(ctx context.Context, rec MerkleRootRecord) error {
	_, err := r.client.ExecContext(ctx, `
		INSERT INTO merkle_roots (epoch, root, distribution_pool, claim_fee_bps)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (epoch) DO NOTHING`,
		rec.Epoch, rec.Root, rec.DistributionPool, rec.ClaimFeeBPS,
	)
	if err != nil {
		return fmt.Errorf("put merkle root for epoch %d: %w", rec.Epoch, err)
	}
	return nil
}

// Get fetches the persisted root for an epoch.
func (r *MerkleRepository) Get(ctx context.Context, epoch int64) (*MerkleRootRecord, error) {
	row := r.client.QueryRowContext(ctx,
		`SELECT epoch, root, distribution_pool, claim_fee_bps, created_at FROM merkle_roots WHERE epoch = $1`,
		epoch)

	var rec MerkleRootRecord
	err := row.Scan(&rec.Epoch, &rec.Root, &rec.DistributionPool, &rec.ClaimFeeBPS, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMerkleRootNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get merkle root for epoch %d: %w", epoch, err)
	}
	return &rec, nil
}
