package accounting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

type fakeEventGateway struct {
	head   int64
	events map[string][]rollup.Event // keyed by contract hex
	err    error
}

func (f *fakeEventGateway) BlockNumber(ctx context.Context) (int64, error) {
	return f.head, f.err
}

func (f *fakeEventGateway) GetEvents(ctx context.Context, contract felt.Felt, keys []felt.Felt, fromBlock, toBlock int64) ([]rollup.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[contract.Hex()], nil
}

type fakeCursorStore struct {
	values map[string]int64
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{values: make(map[string]int64)}
}

func (f *fakeCursorStore) Get(ctx context.Context, watcherName string) (int64, error) {
	v, ok := f.values[watcherName]
	if !ok {
		return 0, database.ErrCursorNotFound
	}
	return v, nil
}

func (f *fakeCursorStore) Advance(ctx context.Context, watcherName string, block int64) error {
	f.values[watcherName] = block
	return nil
}

type fakeTransactionStore struct {
	inserted []database.Transaction
	err      error
}

func (f *fakeTransactionStore) Insert(ctx context.Context, tx database.Transaction) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.inserted = append(f.inserted, tx)
	return true, nil
}

func swapEvent(contract felt.Felt, txHash felt.Felt, block int64) rollup.Event {
	return rollup.Event{
		FromAddress: contract,
		Data: []felt.Felt{
			felt.FromUint64(0xA), felt.FromUint64(1), felt.FromUint64(2),
			felt.FromUint64(100), felt.FromUint64(200),
			felt.FromUint64(50_000_000), felt.FromUint64(100_000),
		},
		BlockNumber: block,
		TxHash:      txHash,
	}
}

func TestIndexerTickIngestsAndAdvancesCursor(t *testing.T) {
	contract := felt.FromUint64(7)
	gw := &fakeEventGateway{
		head: 10,
		events: map[string][]rollup.Event{
			contract.Hex(): {swapEvent(contract, felt.FromUint64(1), 5), swapEvent(contract, felt.FromUint64(2), 6)},
		},
	}
	cursor := newFakeCursorStore()
	store := &fakeTransactionStore{}
	ix := NewIndexer(gw, cursor, store, NewSwapEventMapper(), IndexerConfig{Contracts: []felt.Felt{contract}})

	require.NoError(t, ix.Tick(context.Background()))
	require.Len(t, store.inserted, 2)
	require.Equal(t, constants.ActionKindSwap, store.inserted[0].ActionKind)

	last, err := cursor.Get(context.Background(), ix.cfg.WatcherName)
	require.NoError(t, err)
	require.Equal(t, int64(10), last)
}

func TestIndexerTickDoesNotAdvanceCursorOnEventsError(t *testing.T) {
	contract := felt.FromUint64(7)
	gw := &fakeEventGateway{head: 10, err: errors.New("rpc down")}
	cursor := newFakeCursorStore()
	store := &fakeTransactionStore{}
	ix := NewIndexer(gw, cursor, store, NewSwapEventMapper(), IndexerConfig{Contracts: []felt.Felt{contract}})

	err := ix.Tick(context.Background())
	require.Error(t, err)

	_, getErr := cursor.Get(context.Background(), ix.cfg.WatcherName)
	require.ErrorIs(t, getErr, database.ErrCursorNotFound)
}

func TestIndexerTickSkipsAlreadyCaughtUpRange(t *testing.T) {
	contract := felt.FromUint64(7)
	gw := &fakeEventGateway{head: 5, events: map[string][]rollup.Event{}}
	cursor := newFakeCursorStore()
	store := &fakeTransactionStore{}
	ix := NewIndexer(gw, cursor, store, NewSwapEventMapper(), IndexerConfig{Contracts: []felt.Felt{contract}})
	require.NoError(t, cursor.Advance(context.Background(), ix.cfg.WatcherName, 5))

	require.NoError(t, ix.Tick(context.Background()))
	require.Empty(t, store.inserted)
}

func TestIndexerStartStopIsClean(t *testing.T) {
	contract := felt.FromUint64(7)
	gw := &fakeEventGateway{head: 1}
	cursor := newFakeCursorStore()
	store := &fakeTransactionStore{}
	ix := NewIndexer(gw, cursor, store, NewSwapEventMapper(), IndexerConfig{
		Contracts:    []felt.Felt{contract},
		PollInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ix.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	ix.Stop()
}
