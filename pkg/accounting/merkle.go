package accounting

import (
	"bytes"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/database"
)

// Leaf is one (address, carel_amount) pair entering the epoch's
// distribution tree.
type Leaf struct {
	Address     string
	CarelAmount string // decimal string, spec.md §9's "amount_as_string" behavior preserved verbatim
}

// BuildDistribution converts a finalized epoch's EpochPoints rows into
// Merkle leaves: carel_amount = (user_points / epoch_points) *
// distribution_pool * (1 - claim_fee_bps/BPS_DENOM), formatted as a
// decimal string with no fixed precision (strconv.FormatFloat(..., 'f',
// -1, 64)), matching the spec's flagged-but-preserved open question
// about amount_as_string formatting.
func BuildDistribution(rows []database.EpochPoints, distributionPool float64, claimFeeBPS int) ([]Leaf, error) {
	var total float64
	for _, r := range rows {
		if r.WashTradingFlagged {
			continue
		}
		total += r.TotalPoints
	}
	if total <= 0 {
		return nil, errors.New("epoch has no eligible points to distribute")
	}

	feeMultiplier := 1 - float64(claimFeeBPS)/float64(constants.BPSDenominator)

	leaves := make([]Leaf, 0, len(rows))
	for _, r := range rows {
		if r.WashTradingFlagged {
			continue
		}
		amount := (r.TotalPoints / total) * distributionPool * feeMultiplier
		leaves = append(leaves, Leaf{
			Address:     r.UserAddress,
			CarelAmount: strconv.FormatFloat(amount, 'f', -1, 64),
		})
	}
	return leaves, nil
}

// hashLeaf computes H(address || amount_as_string).
func hashLeaf(l Leaf) []byte {
	return crypto.Keccak256([]byte(l.Address + l.CarelAmount))
}

// hashPair computes the spec's sorted-pair internal-node hash
// H(min(L,R) || max(L,R)): the result does not depend on which of the
// two nodes is passed first.
func hashPair(a, b []byte) []byte {
	if bytes.Compare(a, b) <= 0 {
		return crypto.Keccak256(a, b)
	}
	return crypto.Keccak256(b, a)
}

// Position indicates which side of a hashPair a sibling occupies; since
// hashPair is order-independent by value (not by tree position), Position
// is retained only for proof serialization symmetry with the source
// convention, not used to determine hash order during verification.
type Position string

const (
	Left  Position = "left"
	Right Position = "right"
)

// ProofNode is one sibling hash on the path from a leaf to the root.
type ProofNode struct {
	Hash     string
	Position Position
}

// InclusionProof lets a claimant demonstrate that (Address, CarelAmount)
// is a leaf of the tree that produced Root.
type InclusionProof struct {
	Leaf      Leaf
	LeafIndex int
	Root      string
	Path      []ProofNode
	TreeSize  int
}

// Tree is an epoch's Merkle distribution tree, built once and queried
// for proofs. Safe for concurrent proof generation.
type Tree struct {
	mu     sync.RWMutex
	leaves []Leaf
	levels [][][]byte
	root   []byte
}

// BuildTree builds a sorted-pair Merkle tree whose bottom level is the
// leaf digests sorted in byte order, so the same leaf set yields a
// byte-identical root whatever order the leaves are given in. The
// leaves themselves are kept in the given order for GenerateProof.
func BuildTree(leaves []Leaf) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("cannot build tree from empty leaves")
	}

	t := &Tree{leaves: append([]Leaf{}, leaves...)}

	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		level[i] = hashLeaf(l)
	}
	sort.Slice(level, func(i, j int) bool { return bytes.Compare(level[i], level[j]) < 0 })
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		t.levels = append(t.levels, next)
		level = next
	}

	t.root = level[0]
	return t, nil
}

// Root returns the tree's root hash.
func (t *Tree) Root() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	root := make([]byte, len(t.root))
	copy(root, t.root)
	return root
}

// RootHex returns the tree's root as a 0x-prefixed hex string.
func (t *Tree) RootHex() string {
	return "0x" + hex.EncodeToString(t.Root())
}

// GenerateProof builds the inclusion proof for the leaf at leafIndex.
func (t *Tree) GenerateProof(leafIndex int) (*InclusionProof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if leafIndex < 0 || leafIndex >= len(t.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", leafIndex, len(t.leaves))
	}

	proof := &InclusionProof{
		Leaf:      t.leaves[leafIndex],
		LeafIndex: leafIndex,
		Root:      "0x" + hex.EncodeToString(t.root),
		TreeSize:  len(t.leaves),
	}

	target := hashLeaf(t.leaves[leafIndex])
	idx := 0
	for i, h := range t.levels[0] {
		if bytes.Equal(h, target) {
			idx = i
			break
		}
	}
	for level := 0; level < len(t.levels)-1; level++ {
		nodes := t.levels[level]
		var siblingIdx int
		var pos Position
		if idx%2 == 0 {
			siblingIdx, pos = idx+1, Right
		} else {
			siblingIdx, pos = idx-1, Left
		}

		var sibling []byte
		if siblingIdx < len(nodes) {
			sibling = nodes[siblingIdx]
		} else {
			sibling = nodes[idx]
			pos = Right
		}

		proof.Path = append(proof.Path, ProofNode{Hash: "0x" + hex.EncodeToString(sibling), Position: pos})
		idx /= 2
	}
	return proof, nil
}

// VerifyProof replays proof's path against leaf using the sorted-pair
// hash, reporting whether the recomputed root matches expectedRootHex.
func VerifyProof(leaf Leaf, proof *InclusionProof, expectedRootHex string) (bool, error) {
	expectedRoot, err := decodeHexRoot(expectedRootHex)
	if err != nil {
		return false, err
	}

	current := hashLeaf(leaf)
	if proof == nil || len(proof.Path) == 0 {
		return subtle.ConstantTimeCompare(current, expectedRoot) == 1, nil
	}

	for _, node := range proof.Path {
		sibling, err := decodeHexRoot(node.Hash)
		if err != nil {
			return false, err
		}
		current = hashPair(current, sibling)
	}
	return subtle.ConstantTimeCompare(current, expectedRoot) == 1, nil
}

func decodeHexRoot(h string) ([]byte, error) {
	if len(h) >= 2 && h[0:2] == "0x" {
		h = h[2:]
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid hex hash %q: %w", h, err)
	}
	return b, nil
}
