package accounting

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zkcarel/core/internal/constants"
	"github.com/zkcarel/core/pkg/broadcast"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/metrics"
)

// TransactionReader is the narrow read surface the point calculator
// needs from database.TransactionRepository.
type TransactionReader interface {
	ListUnprocessed(ctx context.Context, limit int) ([]database.Transaction, error)
	CountRecentSwaps(ctx context.Context, userAddress string, since time.Time, excludeTxHash string) (int, error)
	MarkProcessed(ctx context.Context, txHash string, pointsEarned float64) error
}

// PointsWriter is the narrow write surface the point calculator needs
// from database.PointsRepository.
type PointsWriter interface {
	ApplyDelta(ctx context.Context, delta database.PointsDelta) error
	FlagWashTrading(ctx context.Context, userAddress string, epoch int64) error
	StakingWriter
}

// PointCalculatorConfig carries the wash-trading guard thresholds and
// batch size, defaulting to spec.md's named constants.
type PointCalculatorConfig struct {
	Interval             time.Duration
	BatchSize            int
	WashTradingWindow    time.Duration
	WashTradingThreshold int
	EpochDuration        int64
}

// PointCalculator drives spec.md's point-calculator ticker: select
// unprocessed Transactions, apply the wash-trading guard, credit the
// per-kind point formula as an additive delta, and flip processed=true.
type PointCalculator struct {
	transactions TransactionReader
	points       PointsWriter
	publisher    broadcast.Publisher
	stakes       StakeReader
	discount     *NftDiscountConsumer
	cfg          PointCalculatorConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NftDiscountConsumer bundles the read path (DiscountCache) and write
// path (a relayer invoking the discount contract's use_discount) the
// point calculator needs to apply spec.md's "on each successful swap,
// if the user holds an active NFT discount, invoke use_discount(user)"
// rule.
type NftDiscountConsumer struct {
	Cache            *DiscountCache
	Relayer          RelayerInvoker
	DiscountContract felt.Felt
}

// WithStakeReader attaches the on-chain active-stake reader the
// calculator consults after crediting a stake action, so it can
// refresh the user's staking_multiplier. Left unset, stake credits are
// still applied as additive points but the multiplier never updates
// off its default of 1.0, matching a deployment that has no staking
// contract configured.
func (pc *PointCalculator) WithStakeReader(stakes StakeReader) *PointCalculator {
	pc.stakes = stakes
	return pc
}

// WithNftDiscount attaches the NFT discount cache/relayer pair the
// calculator consults after crediting a swap. Left unset, swaps credit
// points without ever consuming a discount, matching a deployment that
// has no discount contract configured.
func (pc *PointCalculator) WithNftDiscount(discount *NftDiscountConsumer) *PointCalculator {
	pc.discount = discount
	return pc
}

// NewPointCalculator builds an unstarted PointCalculator. publisher may
// be nil; when set, each credited Transaction is announced on the
// "points" channel for websocket fan-out.
func NewPointCalculator(transactions TransactionReader, points PointsWriter, publisher broadcast.Publisher, cfg PointCalculatorConfig) *PointCalculator {
	if cfg.Interval <= 0 {
		cfg.Interval = constants.PointCalcIntervalDefault
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WashTradingWindow <= 0 {
		cfg.WashTradingWindow = constants.WashTradingWindow
	}
	if cfg.WashTradingThreshold <= 0 {
		cfg.WashTradingThreshold = constants.WashTradingThreshold
	}
	if cfg.EpochDuration <= 0 {
		cfg.EpochDuration = constants.EpochDurationSeconds
	}
	return &PointCalculator{transactions: transactions, points: points, publisher: publisher, cfg: cfg}
}

// Start launches the ticker loop in a background goroutine.
func (pc *PointCalculator) Start(ctx context.Context) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	pc.cancel = cancel
	pc.running = true

	pc.wg.Add(1)
	go pc.loop(runCtx)
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (pc *PointCalculator) Stop() {
	pc.mu.Lock()
	if !pc.running {
		pc.mu.Unlock()
		return
	}
	cancel := pc.cancel
	pc.running = false
	pc.mu.Unlock()

	cancel()
	pc.wg.Wait()
}

func (pc *PointCalculator) loop(ctx context.Context) {
	defer pc.wg.Done()
	ticker := time.NewTicker(pc.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pc.Tick(ctx); err != nil {
				log.Printf("accounting: point calculator tick failed: %v", err)
			}
		}
	}
}

// Tick processes up to BatchSize unprocessed Transactions. A failure
// crediting one Transaction is logged and does not block the others,
// per spec.md's "point-calculator errors on a single Transaction do not
// block others".
func (pc *PointCalculator) Tick(ctx context.Context) error {
	txs, err := pc.transactions.ListUnprocessed(ctx, pc.cfg.BatchSize)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if err := pc.credit(ctx, tx); err != nil {
			log.Printf("accounting: crediting %s failed: %v", tx.TxHash, err)
		}
	}
	return nil
}

func (pc *PointCalculator) credit(ctx context.Context, tx database.Transaction) error {
	epoch := EpochFor(tx.OccurredAt, pc.cfg.EpochDuration)

	if tx.ActionKind == constants.ActionKindSwap {
		since := tx.OccurredAt.Add(-pc.cfg.WashTradingWindow)
		count, err := pc.transactions.CountRecentSwaps(ctx, tx.UserAddress, since, tx.TxHash)
		if err != nil {
			return err
		}
		if count >= pc.cfg.WashTradingThreshold {
			if err := pc.points.FlagWashTrading(ctx, tx.UserAddress, epoch); err != nil {
				return err
			}
			metrics.WashTradingFlagsTotal.Inc()
			return pc.transactions.MarkProcessed(ctx, tx.TxHash, 0)
		}
	}

	points := pointsFor(tx)
	delta := database.PointsDelta{UserAddress: tx.UserAddress, Epoch: epoch}
	switch tx.ActionKind {
	case constants.ActionKindSwap:
		delta.SwapPoints = points
	case constants.ActionKindBridge:
		delta.BridgePoints = points
	case constants.ActionKindStake:
		delta.StakePoints = points
	default:
		return nil
	}

	if err := pc.points.ApplyDelta(ctx, delta); err != nil {
		return err
	}
	if err := pc.transactions.MarkProcessed(ctx, tx.TxHash, points); err != nil {
		return err
	}

	switch tx.ActionKind {
	case constants.ActionKindStake:
		if pc.stakes != nil {
			userAddress, err := felt.Parse(tx.UserAddress)
			if err != nil {
				log.Printf("accounting: staking multiplier refresh skipped, unparsable user address %s: %v", tx.UserAddress, err)
			} else if err := UpdateStakingMultiplier(ctx, pc.stakes, pc.points, userAddress, tx.UserAddress, epoch); err != nil {
				log.Printf("accounting: staking multiplier refresh failed for %s: %v", tx.UserAddress, err)
			}
		}
	case constants.ActionKindSwap:
		if pc.discount != nil {
			pc.consumeDiscountIfActive(ctx, tx.UserAddress)
		}
	}

	metrics.PointsCreditedTotal.WithLabelValues(tx.ActionKind).Inc()
	if pc.publisher != nil {
		pc.publisher.PublishToChannel("points", map[string]any{
			"user_address": tx.UserAddress,
			"epoch":        epoch,
			"action_kind":  tx.ActionKind,
			"points":       points,
		})
	}
	return nil
}

// consumeDiscountIfActive checks userAddress's cached NFT discount
// state and, if active, invokes the discount contract's use_discount
// through the relayer path. A cache or relayer error is logged, not
// returned, since the swap itself already credited successfully and
// must not be retried over a discount-consumption failure.
func (pc *PointCalculator) consumeDiscountIfActive(ctx context.Context, userAddressStr string) {
	userAddress, err := felt.Parse(userAddressStr)
	if err != nil {
		log.Printf("accounting: nft discount check skipped, unparsable user address %s: %v", userAddressStr, err)
		return
	}

	discount, err := pc.discount.Cache.Get(ctx, userAddress)
	if err != nil {
		log.Printf("accounting: nft discount lookup failed for %s: %v", userAddressStr, err)
		return
	}
	if !discount.Active {
		return
	}

	if _, err := ConsumeDiscount(ctx, pc.discount.Relayer, pc.discount.DiscountContract, userAddress); err != nil {
		log.Printf("accounting: nft discount consumption failed for %s: %v", userAddressStr, err)
	}
}

// pointsFor applies spec.md's per-kind point formula to usd_value. A
// Transaction without a usd_value (e.g. a malformed or partial ingest)
// earns zero rather than erroring, since a zero-point credit is always
// a safe, idempotent no-op.
func pointsFor(tx database.Transaction) float64 {
	if tx.USDValue == nil {
		return 0
	}
	usd := *tx.USDValue
	switch tx.ActionKind {
	case constants.ActionKindSwap:
		return usd * constants.PointsPerUSDSwap
	case constants.ActionKindBridge:
		return usd * constants.PointsPerUSDBridge
	case constants.ActionKindStake:
		return usd * constants.PointsPerUSDStakeDaily
	default:
		return 0
	}
}
