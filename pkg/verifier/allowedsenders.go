package verifier

import (
	"context"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
)

// rollupChain is the LinkedWallet.Chain value for a user's own rollup
// addresses, as opposed to linked addresses on other chains the intent
// system also tracks.
const rollupChain = "rollup"

// WalletLister is the narrow read surface BuildAllowedSenders needs
// from *database.WalletRepository.
type WalletLister interface {
	ListForUser(ctx context.Context, userAddress string) ([]database.LinkedWallet, error)
}

// BuildAllowedSenders assembles an Expectation.AllowedSenders set: the
// authenticated user's own address plus every address that user has
// linked on the rollup chain, per spec's "allowed_senders includes the
// authenticated user's address and all linked rollup addresses for
// that user" rule. userAddress is included unconditionally even if the
// wallet store has no rows for it yet.
func BuildAllowedSenders(ctx context.Context, wallets WalletLister, userAddress felt.Felt) ([]felt.Felt, error) {
	linked, err := wallets.ListForUser(ctx, userAddress.Hex())
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "list linked wallets", err)
	}

	senders := []felt.Felt{userAddress}
	for _, w := range linked {
		if w.Chain != rollupChain {
			continue
		}
		addr, err := felt.Parse(w.Address)
		if err != nil {
			return nil, cerr.Wrap(cerr.KindInternalInvariant, "parse linked rollup address", err)
		}
		if !addr.Equal(userAddress) {
			senders = append(senders, addr)
		}
	}
	return senders, nil
}
