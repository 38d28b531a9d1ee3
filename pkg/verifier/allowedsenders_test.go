package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
)

type fakeWalletLister struct {
	wallets []database.LinkedWallet
	err     error
}

func (f *fakeWalletLister) ListForUser(ctx context.Context, userAddress string) ([]database.LinkedWallet, error) {
	return f.wallets, f.err
}

func TestBuildAllowedSendersIncludesUserEvenWithNoLinkedWallets(t *testing.T) {
	user := felt.FromUint64(1)
	senders, err := BuildAllowedSenders(context.Background(), &fakeWalletLister{}, user)
	require.NoError(t, err)
	require.Equal(t, []felt.Felt{user}, senders)
}

func TestBuildAllowedSendersAddsLinkedRollupAddressesOnly(t *testing.T) {
	user := felt.FromUint64(1)
	linkedRollup := felt.FromUint64(2)
	lister := &fakeWalletLister{wallets: []database.LinkedWallet{
		{UserAddress: user.Hex(), Chain: "rollup", Address: linkedRollup.Hex()},
		{UserAddress: user.Hex(), Chain: "ethereum", Address: felt.FromUint64(3).Hex()},
	}}

	senders, err := BuildAllowedSenders(context.Background(), lister, user)
	require.NoError(t, err)
	require.Equal(t, []felt.Felt{user, linkedRollup}, senders)
}

func TestBuildAllowedSendersDedupesUsersOwnRollupAddress(t *testing.T) {
	user := felt.FromUint64(1)
	lister := &fakeWalletLister{wallets: []database.LinkedWallet{
		{UserAddress: user.Hex(), Chain: "rollup", Address: user.Hex()},
	}}

	senders, err := BuildAllowedSenders(context.Background(), lister, user)
	require.NoError(t, err)
	require.Equal(t, []felt.Felt{user}, senders)
}

func TestBuildAllowedSendersPropagatesListError(t *testing.T) {
	user := felt.FromUint64(1)
	lister := &fakeWalletLister{err: errors.New("db down")}

	_, err := BuildAllowedSenders(context.Background(), lister, user)
	require.Error(t, err)
}

func TestBuildAllowedSendersRejectsUnparsableLinkedAddress(t *testing.T) {
	user := felt.FromUint64(1)
	lister := &fakeWalletLister{wallets: []database.LinkedWallet{
		{UserAddress: user.Hex(), Chain: "rollup", Address: "not-a-felt"},
	}}

	_, err := BuildAllowedSenders(context.Background(), lister, user)
	require.Error(t, err)
}
