// Overlay configuration loader: operators who prefer a single config file
// over an environment block can lay one of these over the env-derived
// Config. Adapted from the teacher's layered YAML-with-env-substitution
// pattern.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Overlay is the subset of Config an operator may pin in a YAML file,
// layered over the environment-variable defaults.
type Overlay struct {
	RollupRPCURL string `yaml:"rollup_rpc_url"`
	ChainID      string `yaml:"chain_id"`

	PrivacyRouterAddresses map[string]string `yaml:"privacy_router_addresses"`

	EpochDurationSeconds    int64   `yaml:"epoch_duration_seconds"`
	DistributionPoolTestnet float64 `yaml:"distribution_pool_testnet"`
	DistributionPoolMainnet float64 `yaml:"distribution_pool_mainnet"`

	IndexerInterval   Duration `yaml:"indexer_interval"`
	PointCalcInterval Duration `yaml:"point_calc_interval"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadOverlay reads a YAML overlay file, substituting ${VAR} references
// against the process environment before parsing.
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overlay file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var overlay Overlay
	if err := yaml.Unmarshal([]byte(expanded), &overlay); err != nil {
		return nil, fmt.Errorf("parse overlay file %s: %w", path, err)
	}
	return &overlay, nil
}

// Apply merges non-zero overlay fields onto cfg, overlay taking precedence.
func (o *Overlay) Apply(cfg *Config) {
	if o.RollupRPCURL != "" {
		cfg.RollupRPCURL = o.RollupRPCURL
	}
	if o.ChainID != "" {
		cfg.ChainID = o.ChainID
	}
	for kind, addr := range o.PrivacyRouterAddresses {
		if cfg.PrivacyRouterAddresses == nil {
			cfg.PrivacyRouterAddresses = make(map[string]string)
		}
		cfg.PrivacyRouterAddresses[strings.ToLower(kind)] = addr
	}
	if o.EpochDurationSeconds != 0 {
		cfg.EpochDurationSeconds = o.EpochDurationSeconds
	}
	if o.DistributionPoolTestnet != 0 {
		cfg.DistributionPoolTestnet = o.DistributionPoolTestnet
	}
	if o.DistributionPoolMainnet != 0 {
		cfg.DistributionPoolMainnet = o.DistributionPoolMainnet
	}
	if o.IndexerInterval != 0 {
		cfg.IndexerIntervalSeconds = int(o.IndexerInterval.Duration().Seconds())
	}
	if o.PointCalcInterval != 0 {
		cfg.PointCalcIntervalSeconds = int(o.PointCalcInterval.Duration().Seconds())
	}
}
