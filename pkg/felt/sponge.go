package felt

import (
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/poseidon"
)

// HashMany computes the rollup's variable-arity sponge hash over an
// ordered list of field elements, the same primitive Starknet's
// poseidon_hash_many exposes (message_hash construction in C3's relayer
// delegation flow, and proof/public_inputs/action_calldata sub-hashes
// folded into it).
func HashMany(elements []Felt) Felt {
	inputs := make([]fr.Element, len(elements))
	for i, e := range elements {
		inputs[i] = e.val
	}
	digest := poseidon.Hash(inputs)
	return Felt{val: digest}
}
