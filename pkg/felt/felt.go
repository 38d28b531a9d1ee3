// Package felt implements the canonical field-element type and the pure
// codecs built on top of it: U256 packing, byte-array calldata, and the two
// multicall layouts used by the rollup's account-abstraction "execute"
// entrypoint. The package does no I/O and never panics on malformed input.
package felt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// Felt is a field element in the rollup's native scalar field. Equality and
// ordering are always numeric; Felt holds only the numeric value, and its
// textual form (Hex) is rendered on demand.
type Felt struct {
	val fr.Element
}

// Zero is the additive identity.
var Zero = Felt{}

// One is the multiplicative identity, also the dummy-payload placeholder value.
var One = MustFromUint64(1)

// FromUint64 builds a Felt from a small unsigned integer.
func FromUint64(v uint64) Felt {
	var f fr.Element
	f.SetUint64(v)
	return Felt{val: f}
}

// MustFromUint64 is FromUint64 for constant construction; never fails.
func MustFromUint64(v uint64) Felt {
	return FromUint64(v)
}

// FromBigInt builds a Felt from a big.Int, reducing modulo the field order.
func FromBigInt(v *big.Int) Felt {
	var f fr.Element
	f.SetBigInt(v)
	return Felt{val: f}
}

// Parse accepts decimal or 0x-prefixed hex text, trims surrounding
// whitespace, and rejects empty input. Leading zeros are irrelevant to the
// resulting value.
func Parse(text string) (Felt, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Felt{}, fmt.Errorf("%w: empty felt literal", ErrInvalidFelt)
	}

	base := 10
	digits := trimmed
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		base = 16
		digits = trimmed[2:]
	}
	if digits == "" {
		return Felt{}, fmt.Errorf("%w: no digits in %q", ErrInvalidFelt, text)
	}

	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return Felt{}, fmt.Errorf("%w: malformed literal %q", ErrInvalidFelt, text)
	}
	if n.Sign() < 0 {
		return Felt{}, fmt.Errorf("%w: negative literal %q", ErrInvalidFelt, text)
	}

	return FromBigInt(n), nil
}

// ErrInvalidFelt is returned by Parse on malformed or empty input.
var ErrInvalidFelt = fmt.Errorf("invalid felt")

// BigInt returns the canonical big.Int value of f.
func (f Felt) BigInt() *big.Int {
	var out big.Int
	f.val.BigInt(&out)
	return &out
}

// Hex renders f as lowercase hex with a 0x prefix, no leading zeros beyond a
// single digit for zero itself.
func (f Felt) Hex() string {
	return "0x" + f.BigInt().Text(16)
}

// String implements fmt.Stringer via the canonical hex form.
func (f Felt) String() string {
	return f.Hex()
}

// Equal compares two Felts by numeric value.
func (f Felt) Equal(other Felt) bool {
	return f.val.Equal(&other.val)
}

// Cmp returns -1, 0, or 1 comparing f and other by numeric value.
func (f Felt) Cmp(other Felt) int {
	return f.val.Cmp(&other.val)
}

// IsZero reports whether f is the additive identity.
func (f Felt) IsZero() bool {
	return f.val.IsZero()
}

// Bytes returns the big-endian fixed-width byte encoding of f.
func (f Felt) Bytes() []byte {
	b := f.val.Bytes()
	return b[:]
}

// Less is a sort.Interface-friendly comparator.
func Less(a, b Felt) bool {
	return a.Cmp(b) < 0
}

// MarshalJSON renders f as its canonical hex string, the wire shape the
// rollup's JSON-RPC surface expects for field-element parameters.
func (f Felt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.Hex() + `"`), nil
}

// UnmarshalJSON accepts a quoted hex or decimal string, the shape the
// rollup's JSON-RPC responses use for field-element results.
func (f *Felt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
