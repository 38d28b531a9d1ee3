package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/database"
)

// EpochFor returns floor(timestamp / duration), spec.md §3's EpochPoints
// invariant `epoch = floor(timestamp / EPOCH_DURATION)`.
func EpochFor(t time.Time, duration int64) int64 {
	if duration <= 0 {
		duration = constants.EpochDurationSeconds
	}
	return t.Unix() / duration
}

// PointsLister is the narrow read surface the epoch finalizer needs from
// database.PointsRepository.
type PointsLister interface {
	ListForEpoch(ctx context.Context, epoch int64) ([]database.EpochPoints, error)
	Finalize(ctx context.Context, epoch int64) error
}

// MerkleWriter is the narrow write surface the epoch finalizer needs
// from database.MerkleRepository.
type MerkleWriter interface {
	Put(ctx context.Context, rec database.MerkleRootRecord) error
}

// FinalizeEpoch freezes epoch (no new writes, stake multipliers frozen,
// wash-flagged rows excluded), builds the Merkle distribution over the
// epoch's non-flagged EpochPoints rows, and persists the root. It
// returns the built tree and leaves so callers (e.g. an HTTP proof
// endpoint) can serve inclusion proofs without rebuilding the tree.
func FinalizeEpoch(ctx context.Context, points PointsLister, roots MerkleWriter, epoch int64, distributionPool float64, claimFeeBPS int) (*Tree, []Leaf, error) {
	rows, err := points.ListForEpoch(ctx, epoch)
	if err != nil {
		return nil, nil, fmt.Errorf("list epoch %d points: %w", epoch, err)
	}

	if err := points.Finalize(ctx, epoch); err != nil {
		return nil, nil, fmt.Errorf("finalize epoch %d: %w", epoch, err)
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	leaves, err := BuildDistribution(rows, distributionPool, claimFeeBPS)
	if err != nil {
		return nil, nil, fmt.Errorf("build epoch %d distribution: %w", epoch, err)
	}

	tree, err := BuildTree(leaves)
	if err != nil {
		return nil, nil, fmt.Errorf("build epoch %d merkle tree: %w", epoch, err)
	}

	rec := database.MerkleRootRecord{
		Epoch:            epoch,
		Root:             tree.RootHex(),
		DistributionPool: distributionPool,
		ClaimFeeBPS:      claimFeeBPS,
	}
	if err := roots.Put(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("put epoch %d merkle root: %w", epoch, err)
	}

	return tree, leaves, nil
}
