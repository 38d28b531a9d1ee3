package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/database"
)

func TestEpochForFloorsByDuration(t *testing.T) {
	d := constants.EpochDurationSeconds
	epoch0 := time.Unix(0, 0)
	epochBoundary := time.Unix(d, 0)
	epochMid := time.Unix(d+100, 0)

	require.Equal(t, int64(0), EpochFor(epoch0, d))
	require.Equal(t, int64(1), EpochFor(epochBoundary, d))
	require.Equal(t, int64(1), EpochFor(epochMid, d))
}

type fakePointsLister struct {
	rows      []database.EpochPoints
	finalized []int64
}

func (f *fakePointsLister) ListForEpoch(ctx context.Context, epoch int64) ([]database.EpochPoints, error) {
	return f.rows, nil
}

func (f *fakePointsLister) Finalize(ctx context.Context, epoch int64) error {
	f.finalized = append(f.finalized, epoch)
	return nil
}

type fakeMerkleWriter struct {
	put []database.MerkleRootRecord
}

func (f *fakeMerkleWriter) Put(ctx context.Context, rec database.MerkleRootRecord) error {
	f.put = append(f.put, rec)
	return nil
}

func TestFinalizeEpochBuildsAndPersistsRoot(t *testing.T) {
	points := &fakePointsLister{rows: []database.EpochPoints{
		{UserAddress: "0xA", TotalPoints: 100},
		{UserAddress: "0xB", TotalPoints: 300},
	}}
	roots := &fakeMerkleWriter{}

	tree, leaves, err := FinalizeEpoch(context.Background(), points, roots, 5, 1_000, 500)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	require.Equal(t, []int64{5}, points.finalized)
	require.Len(t, roots.put, 1)
	require.Equal(t, tree.RootHex(), roots.put[0].Root)
	require.Equal(t, int64(5), roots.put[0].Epoch)
}

func TestFinalizeEpochHandlesEmptyEpoch(t *testing.T) {
	points := &fakePointsLister{}
	roots := &fakeMerkleWriter{}

	tree, leaves, err := FinalizeEpoch(context.Background(), points, roots, 5, 1_000, 500)
	require.NoError(t, err)
	require.Nil(t, tree)
	require.Nil(t, leaves)
	require.Empty(t, roots.put)
}
