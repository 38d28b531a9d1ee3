package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

type fakeDiscountReader struct {
	discount *NftDiscount
	err      error
	calls    int
}

func (f *fakeDiscountReader) GetDiscount(ctx context.Context, userAddress felt.Felt) (*NftDiscount, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.discount, nil
}

func TestDiscountCacheServesFreshEntryWithoutRefetch(t *testing.T) {
	reader := &fakeDiscountReader{discount: &NftDiscount{Active: true, DiscountBPS: 500}}
	cache := NewDiscountCache(reader)
	user := felt.FromUint64(1)

	_, err := cache.Get(context.Background(), user)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, 1, reader.calls)
}

func TestDiscountCacheRefetchesAfterFreshTTLExpires(t *testing.T) {
	reader := &fakeDiscountReader{discount: &NftDiscount{Active: true}}
	cache := NewDiscountCache(reader)
	user := felt.FromUint64(1)

	_, err := cache.Get(context.Background(), user)
	require.NoError(t, err)

	cache.mu.Lock()
	entry := cache.entries[user.Hex()]
	entry.fetchedAt = time.Now().Add(-nftDiscountFreshTTL - time.Second)
	cache.entries[user.Hex()] = entry
	cache.mu.Unlock()

	_, err = cache.Get(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, 2, reader.calls)
}

func TestDiscountCacheFallsBackToStaleOnFetchError(t *testing.T) {
	reader := &fakeDiscountReader{discount: &NftDiscount{Active: true, DiscountBPS: 250}}
	cache := NewDiscountCache(reader)
	user := felt.FromUint64(1)

	_, err := cache.Get(context.Background(), user)
	require.NoError(t, err)

	cache.mu.Lock()
	entry := cache.entries[user.Hex()]
	entry.fetchedAt = time.Now().Add(-nftDiscountFreshTTL - time.Second)
	cache.entries[user.Hex()] = entry
	cache.mu.Unlock()

	reader.err = errors.New("rpc timeout")
	d, err := cache.Get(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, 250, d.DiscountBPS)
}

func TestDiscountCacheErrorsWhenStaleWindowAlsoExpired(t *testing.T) {
	reader := &fakeDiscountReader{discount: &NftDiscount{Active: true}}
	cache := NewDiscountCache(reader)
	user := felt.FromUint64(1)

	_, err := cache.Get(context.Background(), user)
	require.NoError(t, err)

	cache.mu.Lock()
	entry := cache.entries[user.Hex()]
	entry.fetchedAt = time.Now().Add(-nftDiscountStaleTTL - time.Second)
	cache.entries[user.Hex()] = entry
	cache.mu.Unlock()

	reader.err = errors.New("rpc timeout")
	_, err = cache.Get(context.Background(), user)
	require.Error(t, err)
}

type fakeRelayer struct {
	calls []rollup.Call
}

func (f *fakeRelayer) Invoke(ctx context.Context, calls []rollup.Call) (felt.Felt, error) {
	f.calls = append(f.calls, calls...)
	return felt.FromUint64(999), nil
}

type fakeDiscountCaller struct {
	result []felt.Felt
	err    error
}

func (f *fakeDiscountCaller) Call(ctx context.Context, call rollup.Call) ([]felt.Felt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestGatewayDiscountReaderDecodesFields(t *testing.T) {
	caller := &fakeDiscountCaller{result: []felt.Felt{
		felt.FromUint64(1), felt.FromUint64(500), felt.FromUint64(10), felt.FromUint64(3),
	}}
	reader := NewGatewayDiscountReader(caller, felt.FromUint64(42))

	d, err := reader.GetDiscount(context.Background(), felt.FromUint64(7))
	require.NoError(t, err)
	require.True(t, d.Active)
	require.Equal(t, 500, d.DiscountBPS)
	require.Equal(t, 10, d.MaxUsage)
	require.Equal(t, 3, d.UsedInPeriod)
}

func TestGatewayDiscountReaderRejectsShortResponse(t *testing.T) {
	caller := &fakeDiscountCaller{result: []felt.Felt{felt.FromUint64(1)}}
	reader := NewGatewayDiscountReader(caller, felt.FromUint64(42))

	_, err := reader.GetDiscount(context.Background(), felt.FromUint64(7))
	require.Error(t, err)
}

func TestConsumeDiscountInvokesUseDiscount(t *testing.T) {
	relayer := &fakeRelayer{}
	discountContract := felt.FromUint64(42)
	user := felt.FromUint64(7)

	txHash, err := ConsumeDiscount(context.Background(), relayer, discountContract, user)
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(999), txHash)
	require.Len(t, relayer.calls, 1)
	require.Equal(t, discountContract, relayer.calls[0].ContractAddress)
	require.Equal(t, []felt.Felt{user}, relayer.calls[0].Calldata)
}
