package rollup

import "testing"

func TestFinalityStatusFinalized(t *testing.T) {
	cases := []struct {
		status FinalityStatus
		want   bool
	}{
		{StatusPreConfirmed, false},
		{StatusAcceptedL2, true},
		{StatusAcceptedL1, true},
		{StatusReverted, true},
	}
	for _, c := range cases {
		if got := c.status.Finalized(); got != c.want {
			t.Errorf("%s.Finalized() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestNormalizeStatusRevertedOverridesFinality(t *testing.T) {
	got := normalizeStatus("REVERTED", "ACCEPTED_ON_L2")
	if got != StatusReverted {
		t.Fatalf("expected REVERTED to win regardless of finality_status, got %s", got)
	}
}

func TestNormalizeStatusPreConfirmedDefault(t *testing.T) {
	got := normalizeStatus("SUCCEEDED", "")
	if got != StatusPreConfirmed {
		t.Fatalf("expected unrecognized finality_status to default to PreConfirmed, got %s", got)
	}
}

func TestParseTxVersionAcceptsV0RejectsUnknown(t *testing.T) {
	if _, err := parseTxVersion("0x2"); err == nil {
		t.Fatal("expected error for unrecognized version")
	}
	v, err := parseTxVersion("0x0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != TxVersionV0 {
		t.Fatalf("expected TxVersionV0, got %v", v)
	}
}
