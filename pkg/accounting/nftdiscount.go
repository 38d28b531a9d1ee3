package accounting

import (
	"context"
	"sync"
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/rollup"
)

const (
	nftDiscountFreshTTL = 30 * time.Second
	nftDiscountStaleTTL = 600 * time.Second

	// nftDiscountReadTimeout matches spec.md §5's 2.5s per-call budget
	// for NFT discount reads, the tightest of the on-chain read timeouts.
	nftDiscountReadTimeout = 2500 * time.Millisecond

	discountInfoFieldCount = 4
)

// NftDiscount mirrors spec.md §3's NftDiscount record.
type NftDiscount struct {
	Active       bool
	DiscountBPS  int
	MaxUsage     int
	UsedInPeriod int
}

// NftDiscountReader fetches a user's on-chain discount state, the C2
// read path this cache wraps.
type NftDiscountReader interface {
	GetDiscount(ctx context.Context, userAddress felt.Felt) (*NftDiscount, error)
}

type discountCacheEntry struct {
	discount  NftDiscount
	fetchedAt time.Time
}

// DiscountCache is the process-local NFT-discount cache spec.md §5
// describes: entries fresher than 30s are served directly; entries
// fresher than 600s are served as a stale fallback when the RPC read
// fails or times out. The read-write lock is held only around the map
// lookup/insert, never across the network call, per §5's "no task holds
// a mutex across a suspension point except the NFT-discount cache"
// carve-out.
type DiscountCache struct {
	reader NftDiscountReader

	mu      sync.RWMutex
	entries map[string]discountCacheEntry
}

// NewDiscountCache builds an empty cache wrapping reader.
func NewDiscountCache(reader NftDiscountReader) *DiscountCache {
	return &DiscountCache{reader: reader, entries: make(map[string]discountCacheEntry)}
}

// Get returns userAddress's current discount state: a fresh cache hit,
// a live RPC read on a miss or stale hit, or a stale fallback if the
// live read fails and a within-600s entry exists.
func (c *DiscountCache) Get(ctx context.Context, userAddress felt.Felt) (*NftDiscount, error) {
	key := userAddress.Hex()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < nftDiscountFreshTTL {
		d := entry.discount
		return &d, nil
	}

	discount, err := c.reader.GetDiscount(ctx, userAddress)
	if err != nil {
		if ok && time.Since(entry.fetchedAt) < nftDiscountStaleTTL {
			d := entry.discount
			return &d, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = discountCacheEntry{discount: *discount, fetchedAt: time.Now()}
	c.mu.Unlock()

	return discount, nil
}

// DiscountCaller is the narrow C2 read surface GatewayDiscountReader
// needs to view-call the discount contract.
type DiscountCaller interface {
	Call(ctx context.Context, call rollup.Call) ([]felt.Felt, error)
}

// getDiscountInfoSelector is the discount contract's read-only
// get_discount_info(user) entrypoint.
var getDiscountInfoSelector = felt.MustFromUint64(0x3a9c1b7e4d6f2058) // placeholder selector hash

// GatewayDiscountReader is the production NftDiscountReader: a view
// call against the configured discount contract, decoding the fixed
// [active, discount_bps, max_usage, used_in_period] return layout. As
// with the swap event mapper, no discount-contract ABI is in scope, so
// this layout is a named, flagged assumption rather than a verified one.
type GatewayDiscountReader struct {
	gateway  DiscountCaller
	contract felt.Felt
}

// NewGatewayDiscountReader builds a reader against contract.
func NewGatewayDiscountReader(gateway DiscountCaller, contract felt.Felt) *GatewayDiscountReader {
	return &GatewayDiscountReader{gateway: gateway, contract: contract}
}

// GetDiscount view-calls get_discount_info(user) under a 2.5s timeout.
func (r *GatewayDiscountReader) GetDiscount(ctx context.Context, userAddress felt.Felt) (*NftDiscount, error) {
	callCtx, cancel := context.WithTimeout(ctx, nftDiscountReadTimeout)
	defer cancel()

	result, err := r.gateway.Call(callCtx, rollup.Call{
		ContractAddress: r.contract,
		Selector:        getDiscountInfoSelector,
		Calldata:        []felt.Felt{userAddress},
	})
	if err != nil {
		return nil, cerr.Wrap(cerr.KindTransientUpstream, "get_discount_info", err)
	}
	if len(result) < discountInfoFieldCount {
		return nil, cerr.New(cerr.KindInternalInvariant, "get_discount_info returned too few fields")
	}

	return &NftDiscount{
		Active:       !result[0].IsZero(),
		DiscountBPS:  int(result[1].BigInt().Int64()),
		MaxUsage:     int(result[2].BigInt().Int64()),
		UsedInPeriod: int(result[3].BigInt().Int64()),
	}, nil
}

// RelayerInvoker is the narrow C2 write surface ConsumeDiscount needs.
type RelayerInvoker interface {
	Invoke(ctx context.Context, calls []rollup.Call) (felt.Felt, error)
}

// useDiscountSelector is the discount contract's use_discount(user) entrypoint.
var useDiscountSelector = felt.MustFromUint64(0x2e4264dd7a9f3f6b) // placeholder selector hash

// ConsumeDiscount invokes the discount contract's use_discount(user)
// through the relayer path, the only on-chain mutation the backend
// makes on a user's behalf from the accounting engine (spec.md §4.5).
func ConsumeDiscount(ctx context.Context, relayer RelayerInvoker, discountContract, userAddress felt.Felt) (felt.Felt, error) {
	call := rollup.Call{
		ContractAddress: discountContract,
		Selector:        useDiscountSelector,
		Calldata:        []felt.Felt{userAddress},
	}
	return relayer.Invoke(ctx, []rollup.Call{call})
}
