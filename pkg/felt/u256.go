package felt

import (
	"fmt"
	"math/big"
)

// two128 is 2**128, the split point between the low and high limbs of a U256.
var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// maxU256 is 2**256 - 1, the largest representable unsigned 256-bit value.
var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// U256 is a 256-bit unsigned integer represented as two field elements in
// (low, high) order, matching the calldata layout the rollup expects.
type U256 struct {
	Low  Felt
	High Felt
}

// U256FromFelts packs a (low, high) pair into a U256, checking that each
// limb fits in 128 bits.
func U256FromFelts(low, high Felt) (U256, error) {
	if low.BigInt().BitLen() > 128 {
		return U256{}, fmt.Errorf("u256: low limb overflows 128 bits")
	}
	if high.BigInt().BitLen() > 128 {
		return U256{}, fmt.Errorf("u256: high limb overflows 128 bits")
	}
	return U256{Low: low, High: high}, nil
}

// U256FromBigInt splits an arbitrary non-negative integer into (low, high)
// limbs, rejecting values outside [0, 2**256).
func U256FromBigInt(v *big.Int) (U256, error) {
	if v.Sign() < 0 {
		return U256{}, fmt.Errorf("u256: negative value %s", v.String())
	}
	if v.Cmp(maxU256) > 0 {
		return U256{}, fmt.Errorf("u256: value %s exceeds 2**256-1", v.String())
	}
	low := new(big.Int).Mod(v, two128)
	high := new(big.Int).Rsh(v, 128)
	return U256{Low: FromBigInt(low), High: FromBigInt(high)}, nil
}

// BigInt reassembles the U256 into value = high*2**128 + low.
func (u U256) BigInt() *big.Int {
	out := new(big.Int).Mul(u.High.BigInt(), two128)
	out.Add(out, u.Low.BigInt())
	return out
}

// Felts returns the two-element (low, high) calldata representation.
func (u U256) Felts() [2]Felt {
	return [2]Felt{u.Low, u.High}
}

// EncodeDecimalAmount parses a decimal (non-negative, no fractional part)
// raw-units string into a U256, rejecting negative, non-numeric, or
// out-of-range values. decimals is accepted for signature symmetry with the
// amount semantics described for this codec but does not alter raw_units,
// which is always the integer count in the token's smallest unit.
func EncodeDecimalAmount(rawDecimalString string, decimals int) (U256, error) {
	if rawDecimalString == "" {
		return U256{}, fmt.Errorf("u256: empty amount string")
	}
	n, ok := new(big.Int).SetString(rawDecimalString, 10)
	if !ok {
		return U256{}, fmt.Errorf("u256: non-numeric amount %q", rawDecimalString)
	}
	if n.Sign() < 0 {
		return U256{}, fmt.Errorf("u256: negative amount %q", rawDecimalString)
	}
	return U256FromBigInt(n)
}

// FeltToU128 projects a Felt down to a 128-bit value, failing if it does not fit.
func FeltToU128(f Felt) (*big.Int, error) {
	v := f.BigInt()
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("u256: felt %s overflows u128", f.Hex())
	}
	return v, nil
}
