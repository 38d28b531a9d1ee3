// Command server runs the zkcarel core as one long-lived process: the
// rollup gateway, the privacy pipeline, the on-chain verifier, and the
// event-driven accounting engine's background tickers, alongside a
// minimal health/metrics HTTP surface. Business-facing HTTP routing and
// authentication are an external collaborator's concern and are not
// wired here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zkcarel/core/pkg/accounting"
	"github.com/zkcarel/core/pkg/broadcast"
	"github.com/zkcarel/core/pkg/config"
	"github.com/zkcarel/core/pkg/database"
	"github.com/zkcarel/core/pkg/felt"
	"github.com/zkcarel/core/pkg/metrics"
	"github.com/zkcarel/core/pkg/privacy"
	"github.com/zkcarel/core/pkg/ratelimit"
	"github.com/zkcarel/core/pkg/rollup"
	"github.com/zkcarel/core/pkg/verifier"
)

// HealthStatus tracks the up/down state of each long-lived dependency
// for the /health endpoint.
type HealthStatus struct {
	Status    string `json:"status"` // "ok", "degraded"
	Rollup    string `json:"rollup"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	Indexer   string `json:"indexer"`
	startTime time.Time
	mu        sync.RWMutex
}

var healthStatus = &HealthStatus{
	Status:    "starting",
	Rollup:    "unknown",
	Database:  "unknown",
	Redis:     "unknown",
	Indexer:   "unknown",
	startTime: time.Now(),
}

func (h *HealthStatus) set(field *string, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*field = value
	if h.Database == "connected" && h.Rollup == "connected" && h.Redis == "connected" && h.Indexer == "running" {
		h.Status = "ok"
	} else {
		h.Status = "degraded"
	}
}

func (h *HealthStatus) ToJSON() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, _ := json.Marshal(h)
	return data
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var showHelp = flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		flag.Usage()
		return
	}

	log.Println("starting zkcarel core...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if overlayPath := os.Getenv("CONFIG_OVERLAY_PATH"); overlayPath != "" {
		overlay, err := config.LoadOverlay(overlayPath)
		if err != nil {
			log.Fatalf("failed to load config overlay %s: %v", overlayPath, err)
		}
		overlay.Apply(cfg)
		log.Printf("applied config overlay from %s", overlayPath)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	log.Println("connecting to database...")
	dbClient, err := database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[database] ", log.LstdFlags),
	))
	if err != nil {
		log.Fatalf("database connection required but failed: %v", err)
	}
	healthStatus.set(&healthStatus.Database, "connected")
	if err := dbClient.MigrateUp(context.Background()); err != nil {
		log.Printf("database migration failed: %v", err)
	}
	defer dbClient.Close()

	log.Println("connecting to redis...")
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis connection failed, rate limiting degraded: %v", err)
		healthStatus.set(&healthStatus.Redis, "disconnected")
	} else {
		healthStatus.set(&healthStatus.Redis, "connected")
	}
	pingCancel()
	limiter := ratelimit.New(rdb, ratelimit.Config{
		WindowSeconds: cfg.RateLimitWindowSeconds,
		Level1:        cfg.RateLimitLevel1,
		Level2:        cfg.RateLimitLevel2,
		Level3:        cfg.RateLimitLevel3,
		Global:        cfg.RateLimitGlobal,
	})
	_ = limiter // wired for request handlers an external HTTP layer owns

	log.Println("dialing rollup gateway...")
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 10*time.Second)
	gateway, err := rollup.Dial(dialCtx, cfg.RollupRPCURL, rollup.DefaultRetryPolicy())
	dialCancel()
	if err != nil {
		healthStatus.set(&healthStatus.Rollup, "disconnected")
		log.Fatalf("failed to dial rollup gateway: %v", err)
	}
	healthStatus.set(&healthStatus.Rollup, "connected")
	defer gateway.Close()

	if cfg.RelayerEnabled() {
		relayerAccount, err := felt.Parse(cfg.RelayerAccount)
		if err != nil {
			log.Fatalf("invalid RELAYER_ACCOUNT: %v", err)
		}
		signer, err := rollup.NewLocalSigner(cfg.RelayerSigningKey)
		if err != nil {
			log.Fatalf("invalid RELAYER_SIGNING_KEY: %v", err)
		}
		gateway.WithRelayer(relayerAccount, signer)
		log.Println("relayer invoke path enabled")
	} else {
		log.Println("relayer invoke path disabled (no RELAYER_SIGNING_KEY/RELAYER_ACCOUNT)")
	}

	// --- C3: Privacy Action Pipeline ---
	routers := privacy.NewRouterResolver(cfg.PrivacyRouterAddresses, cfg.PrivacyRouterAddressLegacy)
	prover := privacy.NewCmdProver(cfg.ProverCmd, cfg.ProverTimeoutMS)
	indices := privacy.BindingIndices{
		NullifierIndex:  cfg.NullifierPublicInputIndex,
		CommitmentIndex: cfg.CommitmentPublicInputIndex,
		IntentHashIndex: cfg.IntentHashPublicInputIndex,
	}
	var executor felt.Felt
	if cfg.PrivateExecutorEnabled() {
		executor, err = felt.Parse(cfg.PrivateActionExecutorAddress)
		if err != nil {
			log.Fatalf("invalid PRIVATE_ACTION_EXECUTOR_ADDRESS: %v", err)
		}
	}
	pipeline := privacy.NewPipeline(gateway, prover, routers, indices, executor)
	_ = pipeline // wired for request handlers an external HTTP layer owns

	// --- C4: On-chain Transaction Verifier ---
	txVerifier := verifier.New(gateway)
	walletRepo := database.NewWalletRepository(dbClient)
	_ = txVerifier // wired for request handlers an external HTTP layer owns
	_ = walletRepo // request handlers build Expectation.AllowedSenders via verifier.BuildAllowedSenders

	// --- C5: Event-Driven Accounting Engine ---
	cursorRepo := database.NewCursorRepository(dbClient)
	txRepo := database.NewTransactionRepository(dbClient)
	pointsRepo := database.NewPointsRepository(dbClient)
	merkleRepo := database.NewMerkleRepository(dbClient)

	var watched []felt.Felt
	for _, addr := range cfg.WatchedContracts {
		f, err := felt.Parse(addr)
		if err != nil {
			log.Fatalf("invalid entry in WATCHED_CONTRACTS %q: %v", addr, err)
		}
		watched = append(watched, f)
	}

	indexer := accounting.NewIndexer(gateway, cursorRepo, txRepo, accounting.NewSwapEventMapper(), accounting.IndexerConfig{
		Contracts:    watched,
		PollInterval: time.Duration(cfg.IndexerIntervalSeconds) * time.Second,
	})

	hub := broadcast.NewHub()
	go hub.Run()

	pointCalculator := accounting.NewPointCalculator(txRepo, pointsRepo, hub, accounting.PointCalculatorConfig{
		Interval:      time.Duration(cfg.PointCalcIntervalSeconds) * time.Second,
		EpochDuration: cfg.EpochDurationSeconds,
	})
	if cfg.StakingContractAddress != "" {
		stakingContract, err := felt.Parse(cfg.StakingContractAddress)
		if err != nil {
			log.Fatalf("invalid STAKING_CONTRACT_ADDRESS: %v", err)
		}
		pointCalculator.WithStakeReader(accounting.NewGatewayStakeReader(gateway, stakingContract))
	}

	if cfg.NftDiscountContractAddress != "" {
		discountContract, err := felt.Parse(cfg.NftDiscountContractAddress)
		if err != nil {
			log.Fatalf("invalid NFT_DISCOUNT_CONTRACT_ADDRESS: %v", err)
		}
		if !cfg.RelayerEnabled() {
			log.Fatalf("NFT_DISCOUNT_CONTRACT_ADDRESS is set but the relayer invoke path is disabled; use_discount cannot be called")
		}
		discountCache := accounting.NewDiscountCache(accounting.NewGatewayDiscountReader(gateway, discountContract))
		pointCalculator.WithNftDiscount(&accounting.NftDiscountConsumer{
			Cache:            discountCache,
			Relayer:          gateway,
			DiscountContract: discountContract,
		})
	}

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	indexer.Start(ctx)
	healthStatus.set(&healthStatus.Indexer, "running")
	pointCalculator.Start(ctx)
	go runEpochCloser(ctx, cfg, pointsRepo, merkleRepo)
	go runDBHealthLoop(ctx, dbClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if healthStatus.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		w.Write(healthStatus.ToJSON())
	})
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		log.Printf("health/metrics listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	log.Println("zkcarel core ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()
	indexer.Stop()
	pointCalculator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	log.Println("zkcarel core stopped")
}

// runEpochCloser checks, once a minute, whether the epoch containing
// now differs from the one containing the last check; on a boundary
// crossing it finalizes the epoch that just ended. The reference epoch
// is the one current at startup, so only boundaries crossed while the
// process runs are finalized: an epoch that ends while the process is
// down is not finalized after a restart.
func runEpochCloser(ctx context.Context, cfg *config.Config, points *database.PointsRepository, roots *database.MerkleRepository) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	pool := cfg.DistributionPoolTestnet
	lastEpoch := accounting.EpochFor(time.Now(), cfg.EpochDurationSeconds)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			currentEpoch := accounting.EpochFor(time.Now(), cfg.EpochDurationSeconds)
			if currentEpoch == lastEpoch {
				continue
			}
			closedEpoch := currentEpoch - 1
			if _, _, err := accounting.FinalizeEpoch(ctx, points, roots, closedEpoch, pool, cfg.ClaimFeeBPS); err != nil {
				log.Printf("epoch %d finalize failed: %v", closedEpoch, err)
			} else {
				log.Printf("epoch %d finalized", closedEpoch)
			}
			lastEpoch = currentEpoch
		}
	}
}

// runDBHealthLoop samples database.Client.Health every 15s, mirroring
// its connection-pool stats onto the zkcarel_database_* gauges and the
// /health endpoint's Database field, since database/sql's pool stats
// are otherwise invisible outside the database package.
func runDBHealthLoop(ctx context.Context, db *database.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := db.Health(ctx)
			if err != nil {
				log.Printf("database health check errored: %v", err)
				continue
			}
			if status.Healthy {
				metrics.DBHealthy.Set(1)
				healthStatus.set(&healthStatus.Database, "connected")
			} else {
				metrics.DBHealthy.Set(0)
				healthStatus.set(&healthStatus.Database, "disconnected")
				log.Printf("database health check failed: %s", status.Error)
			}
			metrics.DBOpenConnections.Set(float64(status.OpenConnections))
			metrics.DBInUseConnections.Set(float64(status.InUse))
			metrics.DBWaitCount.Set(float64(status.WaitCount))
		}
	}
}
