package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the zkcarel core service, read from
// environment variables recognized per the external-interfaces contract.
type Config struct {
	// Rollup Gateway (C2)
	RollupRPCURL string
	ChainID      string

	// Relayer signing (enables the C2 invoke path)
	RelayerSigningKey string
	RelayerAccount    string

	// Privacy Action Pipeline (C3)
	PrivacyRouterAddresses       map[string]string // keyed by verifier kind
	PrivacyRouterAddressLegacy   string            // PRIVACY_ROUTER_ADDRESS, garaga-only fallback
	PrivateActionExecutorAddress string

	SwapContractAddress   string
	SwapContractEventOnly bool

	NullifierPublicInputIndex  int
	CommitmentPublicInputIndex int
	IntentHashPublicInputIndex int

	ProverCmd       string
	ProverTimeoutMS int

	// Event-Driven Accounting Engine (C5)
	WatchedContracts           []string
	EpochDurationSeconds       int64
	DistributionPoolTestnet    float64
	DistributionPoolMainnet    float64
	ClaimFeeBPS                int
	NftDiscountContractAddress string
	StakingContractAddress     string

	RateLimitWindowSeconds int
	RateLimitLevel1        int
	RateLimitLevel2        int
	RateLimitLevel3        int
	RateLimitGlobal        int

	IndexerIntervalSeconds   int
	PointCalcIntervalSeconds int

	// Database
	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
}

// Load reads configuration from environment variables, using the built-in
// default for any option that is unset or does not parse; unrecognized
// environment variables are ignored.
func Load() (*Config, error) {
	cfg := &Config{
		RollupRPCURL: getEnv("ROLLUP_RPC_URL", ""),
		ChainID:      getEnv("CHAIN_ID", ""),

		RelayerSigningKey: getEnv("RELAYER_SIGNING_KEY", ""),
		RelayerAccount:    getEnv("RELAYER_ACCOUNT", ""),

		PrivacyRouterAddresses:       parsePrivacyRouterAddresses(getEnv("PRIVACY_ROUTER_ADDRESSES", "")),
		PrivacyRouterAddressLegacy:   getEnv("PRIVACY_ROUTER_ADDRESS", ""),
		PrivateActionExecutorAddress: getEnv("PRIVATE_ACTION_EXECUTOR_ADDRESS", ""),

		SwapContractAddress:   getEnv("SWAP_CONTRACT_ADDRESS", ""),
		SwapContractEventOnly: getEnvBool("SWAP_CONTRACT_EVENT_ONLY", false),

		NullifierPublicInputIndex:  getEnvInt("NULLIFIER_PUBLIC_INPUT_INDEX", 0),
		CommitmentPublicInputIndex: getEnvInt("COMMITMENT_PUBLIC_INPUT_INDEX", 1),
		IntentHashPublicInputIndex: getEnvInt("INTENT_HASH_PUBLIC_INPUT_INDEX", 2),

		ProverCmd:       getEnv("PROVER_CMD", ""),
		ProverTimeoutMS: getEnvInt("PROVER_TIMEOUT_MS", 45_000),

		WatchedContracts:           parseCommaList(getEnv("WATCHED_CONTRACTS", "")),
		EpochDurationSeconds:       getEnvInt64("EPOCH_DURATION_SECONDS", 2_592_000),
		DistributionPoolTestnet:    getEnvFloat("DISTRIBUTION_POOL_TESTNET", 1_000),
		DistributionPoolMainnet:    getEnvFloat("DISTRIBUTION_POOL_MAINNET", 1_000_000),
		ClaimFeeBPS:                getEnvInt("CLAIM_FEE_BPS", 500),
		NftDiscountContractAddress: getEnv("NFT_DISCOUNT_CONTRACT_ADDRESS", ""),
		StakingContractAddress:     getEnv("STAKING_CONTRACT_ADDRESS", ""),

		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitLevel1:        getEnvInt("RATE_LIMIT_LEVEL1", 10),
		RateLimitLevel2:        getEnvInt("RATE_LIMIT_LEVEL2", 30),
		RateLimitLevel3:        getEnvInt("RATE_LIMIT_LEVEL3", 100),
		RateLimitGlobal:        getEnvInt("RATE_LIMIT_GLOBAL", 200),

		IndexerIntervalSeconds:   getEnvInt("INDEXER_INTERVAL_SECONDS", 5),
		PointCalcIntervalSeconds: getEnvInt("POINT_CALC_INTERVAL_SECONDS", 60),

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnvInt("DB_PORT", 5432),
		DBUser:            getEnv("DB_USER", "zkcarel"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "zkcarel_core"),
		DBSSLMode:         getEnv("DB_SSL_MODE", "require"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that the configuration needed for the core's mandatory
// paths (rollup transport, database) is present.
func (c *Config) Validate() error {
	var errs []string

	if c.RollupRPCURL == "" {
		errs = append(errs, "ROLLUP_RPC_URL is required but not set")
	}
	if c.ChainID == "" {
		errs = append(errs, "CHAIN_ID is required but not set")
	}
	if c.DBHost == "" || c.DBName == "" {
		errs = append(errs, "DB_HOST and DB_NAME are required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RelayerEnabled reports whether the invoke path (C2) is usable.
func (c *Config) RelayerEnabled() bool {
	return c.RelayerSigningKey != "" && c.RelayerAccount != ""
}

// PrivateExecutorEnabled reports whether private-executor flows are usable.
func (c *Config) PrivateExecutorEnabled() bool {
	return c.PrivateActionExecutorAddress != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseCommaList parses a comma-separated list of contract addresses,
// trimming whitespace and dropping empty entries.
func parseCommaList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// parsePrivacyRouterAddresses parses "kind=addr,kind=addr" pairs.
func parsePrivacyRouterAddresses(value string) map[string]string {
	out := make(map[string]string)
	if value == "" {
		return out
	}
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}
