package felt

import "testing"

func sampleCalls() []Call {
	return []Call{
		{
			To:       FromUint64(0xA),
			Selector: FromUint64(0x111),
			Data:     []Felt{FromUint64(1), FromUint64(2)},
		},
		{
			To:       FromUint64(0xB),
			Selector: FromUint64(0x222),
			Data:     []Felt{FromUint64(3)},
		},
	}
}

func callsEqual(a, b []Call) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].To.Equal(b[i].To) || !a[i].Selector.Equal(b[i].Selector) {
			return false
		}
		if len(a[i].Data) != len(b[i].Data) {
			return false
		}
		for j := range a[i].Data {
			if !a[i].Data[j].Equal(b[i].Data[j]) {
				return false
			}
		}
	}
	return true
}

func TestMulticallOffsetRoundtrip(t *testing.T) {
	calls := sampleCalls()
	encoded := EncodeMulticallOffset(calls)
	decoded, err := DecodeMulticall(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !callsEqual(calls, decoded) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, calls)
	}
}

func TestMulticallInlineRoundtrip(t *testing.T) {
	calls := sampleCalls()
	encoded := EncodeMulticallInline(calls)
	decoded, err := DecodeMulticall(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !callsEqual(calls, decoded) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, calls)
	}
}

func TestMulticallEmptyRoundtrip(t *testing.T) {
	var calls []Call
	for _, encoded := range [][]Felt{EncodeMulticallOffset(calls), EncodeMulticallInline(calls)} {
		decoded, err := DecodeMulticall(encoded)
		if err != nil {
			t.Fatalf("decode empty: %v", err)
		}
		if len(decoded) != 0 {
			t.Errorf("expected no calls, got %d", len(decoded))
		}
	}
}

func TestDecodeMulticallRejectsGarbage(t *testing.T) {
	garbage := []Felt{FromUint64(99), FromUint64(1), FromUint64(2)}
	if _, err := DecodeMulticall(garbage); err == nil {
		t.Error("expected ErrMulticallShape for malformed calldata")
	}
}

func TestByteArrayRoundtrip(t *testing.T) {
	cases := []string{
		"",
		"short",
		"exactly-31-bytes-long-string!!!",
		"this string is longer than thirty one bytes and spans multiple words",
	}
	for _, s := range cases {
		encoded := EncodeByteArray(s)
		decoded, err := DecodeByteArray(encoded)
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		if decoded != s {
			t.Errorf("roundtrip mismatch: got %q, want %q", decoded, s)
		}
	}
}
