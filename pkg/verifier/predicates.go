package verifier

import (
	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// BattleshipEntrypoints enumerates the seven selectors the battleship
// flow's Expectation.ExpectedSelectors may target. Callers resolve each
// name to its deployment-specific selector felt; this list exists so
// the set size stays visibly tied to the spec's "seven enumerated
// entrypoints" rather than to a magic number at call sites.
var BattleshipEntrypoints = []string{
	"create_game", "join_game", "submit_move", "reveal_board",
	"claim_victory", "forfeit_game", "withdraw_stake",
}

// SwapPredicate asserts fromToken's occurrence in the matched inner
// calldata precedes toToken's, and that any approve call elsewhere in
// the batch targeting fromToken names swapContract as its spender.
func SwapPredicate(fromToken, toToken, swapContract, approveSelector felt.Felt) PayloadPredicate {
	return func(matched felt.Call, batch []felt.Call) error {
		fromIdx := indexOfFelt(matched.Data, fromToken)
		toIdx := indexOfFelt(matched.Data, toToken)
		if fromIdx < 0 || toIdx < 0 {
			return cerr.New(cerr.KindBindingMismatch, "swap calldata does not reference both from_token and to_token")
		}
		if fromIdx >= toIdx {
			return cerr.New(cerr.KindBindingMismatch, "swap calldata orders to_token before from_token")
		}

		for _, c := range batch {
			if !c.Selector.Equal(approveSelector) || !c.To.Equal(fromToken) {
				continue
			}
			if len(c.Data) == 0 || !c.Data[0].Equal(swapContract) {
				return cerr.New(cerr.KindBindingMismatch, "approve spender does not match the swap contract")
			}
		}
		return nil
	}
}

// PrivacySubmitPredicate asserts the matched inner calldata is
// byte-for-byte equal to the expected submit layout (V1's
// [nullifier, commitment, |proof|, proof…, |public_inputs|, public_inputs…],
// or whatever layout the caller bound the intent to).
func PrivacySubmitPredicate(expected []felt.Felt) PayloadPredicate {
	return func(matched felt.Call, batch []felt.Call) error {
		if len(matched.Data) != len(expected) {
			return cerr.New(cerr.KindBindingMismatch, "privacy submit calldata length mismatch")
		}
		for i := range expected {
			if !matched.Data[i].Equal(expected[i]) {
				return cerr.New(cerr.KindBindingMismatch, "privacy submit calldata diverges from the bound payload")
			}
		}
		return nil
	}
}

// BattleshipCreateGamePredicate asserts calldata[0] == opponent,
// calldata[1] == boardCommitment, and the proof's public_inputs at
// commitmentIndex also equals boardCommitment.
func BattleshipCreateGamePredicate(opponent, boardCommitment felt.Felt, publicInputs []felt.Felt, commitmentIndex int) PayloadPredicate {
	return func(matched felt.Call, batch []felt.Call) error {
		if len(matched.Data) < 2 {
			return cerr.New(cerr.KindBindingMismatch, "create_game calldata too short")
		}
		if !matched.Data[0].Equal(opponent) {
			return cerr.New(cerr.KindBindingMismatch, "create_game opponent mismatch")
		}
		if !matched.Data[1].Equal(boardCommitment) {
			return cerr.New(cerr.KindBindingMismatch, "create_game board_commitment mismatch")
		}
		if commitmentIndex >= len(publicInputs) {
			return cerr.New(cerr.KindBindingMismatch, "proof public_inputs too short to expose board_commitment")
		}
		if !publicInputs[commitmentIndex].Equal(boardCommitment) {
			return cerr.New(cerr.KindBindingMismatch, "proof public_inputs does not bind board_commitment")
		}
		return nil
	}
}

func indexOfFelt(data []felt.Felt, target felt.Felt) int {
	for i, f := range data {
		if f.Equal(target) {
			return i
		}
	}
	return -1
}
