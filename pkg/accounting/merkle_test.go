package accounting

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkcarel/core/pkg/database"
)

func TestBuildDistributionMatchesWorkedExample(t *testing.T) {
	rows := []database.EpochPoints{
		{UserAddress: "0xA", TotalPoints: 100},
		{UserAddress: "0xB", TotalPoints: 300},
	}
	leaves, err := BuildDistribution(rows, 1_000, 500)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	require.Equal(t, Leaf{Address: "0xA", CarelAmount: "237.5"}, leaves[0])
	require.Equal(t, Leaf{Address: "0xB", CarelAmount: "712.5"}, leaves[1])
}

func TestBuildDistributionExcludesWashFlaggedRows(t *testing.T) {
	rows := []database.EpochPoints{
		{UserAddress: "0xA", TotalPoints: 100},
		{UserAddress: "0xB", TotalPoints: 300, WashTradingFlagged: true},
	}
	leaves, err := BuildDistribution(rows, 1_000, 0)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.Equal(t, "0xA", leaves[0].Address)
	require.Equal(t, "1000", leaves[0].CarelAmount)
}

func TestMerkleTreeDeterministicRegardlessOfInsertionOrder(t *testing.T) {
	leaves := []Leaf{
		{Address: "0xA", CarelAmount: "237.5"},
		{Address: "0xB", CarelAmount: "712.5"},
		{Address: "0xC", CarelAmount: "50"},
	}
	shuffled := append([]Leaf{}, leaves...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	t1, err := BuildTree(leaves)
	require.NoError(t, err)
	t2, err := BuildTree(shuffled)
	require.NoError(t, err)
	require.Equal(t, t1.RootHex(), t2.RootHex())
}

func TestMerkleProofVerifiesForEveryLeaf(t *testing.T) {
	leaves := []Leaf{
		{Address: "0xA", CarelAmount: "237.5"},
		{Address: "0xB", CarelAmount: "712.5"},
		{Address: "0xC", CarelAmount: "50"},
	}
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	for i, leaf := range leaves {
		proof, err := tree.GenerateProof(i)
		require.NoError(t, err)
		ok, err := VerifyProof(leaf, proof, tree.RootHex())
		require.NoError(t, err)
		require.True(t, ok, "leaf %d should verify", i)
	}
}

func TestMerkleProofRejectsTamperedLeaf(t *testing.T) {
	leaves := []Leaf{
		{Address: "0xA", CarelAmount: "237.5"},
		{Address: "0xB", CarelAmount: "712.5"},
	}
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)

	tampered := Leaf{Address: "0xA", CarelAmount: "9999"}
	ok, err := VerifyProof(tampered, proof, tree.RootHex())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMerkleTwoLeafProofMatchesWorkedExample(t *testing.T) {
	leaves := []Leaf{
		{Address: "0xA", CarelAmount: "237.5"},
		{Address: "0xB", CarelAmount: "712.5"},
	}
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.Len(t, proof.Path, 1)
	require.Equal(t, "0x"+hex.EncodeToString(hashLeaf(leaves[1])), proof.Path[0].Hash)
}

func TestBuildDistributionRejectsEmptyEligibleSet(t *testing.T) {
	rows := []database.EpochPoints{{UserAddress: "0xA", TotalPoints: 50, WashTradingFlagged: true}}
	_, err := BuildDistribution(rows, 1_000, 0)
	require.Error(t, err)
}

func TestBuildTreeRejectsEmptyLeaves(t *testing.T) {
	_, err := BuildTree(nil)
	require.Error(t, err)
}
