package rollup

import (
	"context"
	"testing"

	"github.com/zkcarel/core/pkg/felt"
)

func TestNewLocalSignerRejectsMalformedKey(t *testing.T) {
	if _, err := NewLocalSigner("not-hex"); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestLocalSignerSignInvokeReturnsTwoFeltsDeterministically(t *testing.T) {
	signer, err := NewLocalSigner("0x1111111111111111111111111111111111111111111111111111111111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := []Call{{ContractAddress: felt.FromUint64(1), Selector: felt.FromUint64(2), Calldata: []felt.Felt{felt.FromUint64(3)}}}

	sig1, err := signer.SignInvoke(context.Background(), felt.FromUint64(9), calls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig1) != 2 {
		t.Fatalf("expected 2 signature felts, got %d", len(sig1))
	}

	sig2, err := signer.SignInvoke(context.Background(), felt.FromUint64(9), calls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sig1[0].Equal(sig2[0]) || !sig1[1].Equal(sig2[1]) {
		t.Fatal("signature over identical input should be deterministic")
	}
}
