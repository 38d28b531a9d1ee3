// Package accounting implements the Event-Driven Accounting Engine (C5):
// the block indexer, point calculator, wash-trading guard, staking
// multiplier and NFT discount boost, and the per-epoch Merkle distribution
// builder.
package accounting

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/metrics"
	"github.com/zkcarel/core/pkg/rollup"
)

// EventGateway is the narrow slice of *rollup.Gateway the indexer needs,
// declared here so tests can fake it without dialing a live transport
// (the same narrow-interface idiom pkg/rollup's Signer and pkg/verifier's
// GatewayReader already use).
type EventGateway interface {
	BlockNumber(ctx context.Context) (int64, error)
	GetEvents(ctx context.Context, contract felt.Felt, keys []felt.Felt, fromBlock, toBlock int64) ([]rollup.Event, error)
}

// CursorStore persists the indexer's last_indexed_block.
type CursorStore interface {
	Get(ctx context.Context, watcherName string) (int64, error)
	Advance(ctx context.Context, watcherName string, block int64) error
}

// TransactionStore is the narrow write surface the indexer needs from
// database.TransactionRepository.
type TransactionStore interface {
	Insert(ctx context.Context, tx database.Transaction) (inserted bool, err error)
}

// EventMapper turns one watched-contract event into a ledger row. No
// contract ABI is in scope for this core, so the concrete layout of
// event.Data is an operator-supplied concern; a mapper returning
// (nil, nil) means the event is recognized but intentionally not
// ledger-worthy (e.g. an approval event on a watched token).
type EventMapper func(event rollup.Event) (*database.Transaction, error)

// IndexerConfig carries the watched-contract set and timing the spec's
// indexer loop is parameterized by.
type IndexerConfig struct {
	WatcherName  string
	Contracts    []felt.Felt
	EventKeys    []felt.Felt // nil matches any first key
	PollInterval time.Duration
}

// Indexer drives spec.md's indexer loop: advance last_indexed_block,
// ingest events from the watched contract set, insert idempotently by
// tx_hash.
type Indexer struct {
	gateway EventGateway
	cursor  CursorStore
	store   TransactionStore
	mapper  EventMapper
	cfg     IndexerConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewIndexer builds an unstarted Indexer.
func NewIndexer(gateway EventGateway, cursor CursorStore, store TransactionStore, mapper EventMapper, cfg IndexerConfig) *Indexer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.WatcherName == "" {
		cfg.WatcherName = "accounting_indexer"
	}
	return &Indexer{gateway: gateway, cursor: cursor, store: store, mapper: mapper, cfg: cfg}
}

// Start launches the ticker loop in a background goroutine. Calling Start
// twice without an intervening Stop is a no-op.
func (ix *Indexer) Start(ctx context.Context) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	ix.cancel = cancel
	ix.running = true

	ix.wg.Add(1)
	go ix.loop(runCtx)
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	if !ix.running {
		ix.mu.Unlock()
		return
	}
	cancel := ix.cancel
	ix.running = false
	ix.mu.Unlock()

	cancel()
	ix.wg.Wait()
}

func (ix *Indexer) loop(ctx context.Context) {
	defer ix.wg.Done()
	ticker := time.NewTicker(ix.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ix.Tick(ctx); err != nil {
				log.Printf("accounting: indexer tick failed, cursor not advanced: %v", err)
				metrics.IndexerTickErrorsTotal.Inc()
			}
		}
	}
}

// Tick runs one indexing pass: fetch the current head, scan every
// watched contract over (last_indexed_block, current_head], ingest, and
// only then advance the cursor. Any error aborts before the cursor
// advances so the same range is retried next tick.
func (ix *Indexer) Tick(ctx context.Context) error {
	current, err := ix.gateway.BlockNumber(ctx)
	if err != nil {
		return cerr.Wrap(cerr.KindTransientUpstream, "indexer block_number", err)
	}

	last, err := ix.cursor.Get(ctx, ix.cfg.WatcherName)
	if err != nil {
		if !errors.Is(err, database.ErrCursorNotFound) {
			return cerr.Wrap(cerr.KindTransientUpstream, "indexer get_cursor", err)
		}
		last = -1
	}
	fromBlock := last + 1
	if fromBlock > current {
		return nil
	}

	for _, contract := range ix.cfg.Contracts {
		events, err := ix.gateway.GetEvents(ctx, contract, ix.cfg.EventKeys, fromBlock, current)
		if err != nil {
			return cerr.Wrap(cerr.KindTransientUpstream, "indexer get_events", err)
		}
		for _, event := range events {
			tx, err := ix.mapper(event)
			if err != nil {
				return cerr.Wrap(cerr.KindInternalInvariant, "indexer event mapping", err)
			}
			if tx == nil {
				continue
			}
			if _, err := ix.store.Insert(ctx, *tx); err != nil {
				return cerr.Wrap(cerr.KindTransientUpstream, "indexer insert transaction", err)
			}
		}
	}

	metrics.IndexerLastIndexedBlock.Set(float64(current))
	return ix.cursor.Advance(ctx, ix.cfg.WatcherName, current)
}
