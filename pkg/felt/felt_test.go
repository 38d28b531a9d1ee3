package felt

import (
	"math/big"
	"testing"
)

func TestParseDecimalAndHexAgree(t *testing.T) {
	cases := []uint64{0, 1, 41, 4096, 1 << 40}
	for _, n := range cases {
		dec, err := Parse(new(big.Int).SetUint64(n).String())
		if err != nil {
			t.Fatalf("parse decimal %d: %v", n, err)
		}
		hex, err := Parse(FromUint64(n).Hex())
		if err != nil {
			t.Fatalf("parse hex %d: %v", n, err)
		}
		if !dec.Equal(hex) {
			t.Errorf("decimal/hex mismatch for %d: %s != %s", n, dec.Hex(), hex.Hex())
		}
	}
}

func TestParseCanonicalHexIdempotent(t *testing.T) {
	f, err := Parse("0x002A")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	first := f.Hex()
	reparsed, err := Parse(first)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.Hex() != first {
		t.Errorf("canonical hex not idempotent: %s != %s", reparsed.Hex(), first)
	}
	if first != "0x2a" {
		t.Errorf("expected leading zeros stripped, got %s", first)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Parse("   "); err == nil {
		t.Error("expected error for whitespace-only input")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{"0xzz", "12a4", "-5", "0x"}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	f, err := Parse("  42  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !f.Equal(FromUint64(42)) {
		t.Errorf("expected 42, got %s", f.Hex())
	}
}

func TestEqualityIgnoresTextualForm(t *testing.T) {
	a, _ := Parse("0x10")
	b, _ := Parse("16")
	if !a.Equal(b) {
		t.Error("0x10 and 16 should be value-equal")
	}
}

func TestZeroIsDistinctFromMissing(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("Zero should report IsZero")
	}
	one := FromUint64(1)
	if one.IsZero() {
		t.Error("1 should not report IsZero")
	}
}
