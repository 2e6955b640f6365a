package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the entire component-tuning configuration structure from
// config.yml, mirroring blackholedex's configs.Config but generalized
// from one strategy's knobs to the pipeline's per-component knobs (spec
// §6).
type Config struct {
	Chain              string   `yaml:"chain"`
	RPCURLHTTP         string   `yaml:"rpc_url_http"`
	RPCURLWS           string   `yaml:"rpc_url_ws"`
	PoolDescriptorFile string   `yaml:"pool_descriptor_file"`
	PoolIDs            []string `yaml:"pool_ids"`

	DryRun               bool `yaml:"dry_run"`
	LiveRiskAcknowledged bool `yaml:"live_risk_acknowledged"`

	MaxGasGwei         float64            `yaml:"max_gas_gwei"`
	GlobalMinProfitUSD float64            `yaml:"global_min_profit_usd"`
	PoolMinProfitUSD   map[string]float64 `yaml:"pool_min_profit_usd"`
	MinSwapETH         float64            `yaml:"min_swap_eth"`
	MinSwapUSD         float64            `yaml:"min_swap_usd"`

	AllowReconstructRawTx bool `yaml:"allow_reconstruct_raw_tx"`
	MaxInFlightDecodes    int  `yaml:"max_in_flight_decodes"`
	MaxBundlesPerBlock    int  `yaml:"max_bundles_per_block"`

	PoolMaxFailures int `yaml:"pool_max_failures"`
	PoolCooldownMS  int `yaml:"pool_cooldown_ms"`

	FlashloanProviderPriority []string `yaml:"flashloan_provider_priority"`

	RelayURL            string   `yaml:"relay_url"`
	AdditionalRelayURLs []string `yaml:"additional_relay_urls"`

	MetricsAddr string `yaml:"metrics_addr"`

	MySQLDSN string `yaml:"mysql_dsn"`

	NFPMAddress         string `yaml:"nfpm_address"`
	MintGasLimit        uint64 `yaml:"mint_gas_limit"`
	BurnCollectGasLimit uint64 `yaml:"burn_collect_gas_limit"`
	FailsafeGasLimit    uint64 `yaml:"failsafe_gas_limit"`
	MintDeadlineSeconds int64  `yaml:"mint_deadline_seconds"`
	SlippageBps         int64  `yaml:"slippage_bps"`
	DefaultRangeWidth   int    `yaml:"default_range_width"`
}

// PoolCooldown returns PoolCooldownMS as a time.Duration.
func (c *Config) PoolCooldown() time.Duration {
	return time.Duration(c.PoolCooldownMS) * time.Millisecond
}

// PoolFloor returns the per-pool profit floor override for poolID, if any
// was configured.
func (c *Config) PoolFloor(poolID string) *float64 {
	if v, ok := c.PoolMinProfitUSD[poolID]; ok {
		return &v
	}
	return nil
}

// Load reads and parses config.yml into a Config struct, applying
// defaults matching spec §6's stated defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DryRun:              true,
		MaxGasGwei:          100,
		MaxInFlightDecodes:  64,
		MaxBundlesPerBlock:  1,
		PoolMaxFailures:     3,
		PoolCooldownMS:      300_000,
		MetricsAddr:         ":9090",
		PoolMinProfitUSD:    map[string]float64{},
		MintGasLimit:        450_000,
		BurnCollectGasLimit: 350_000,
		FailsafeGasLimit:    450_000,
		MintDeadlineSeconds: 120,
		SlippageBps:         50,
		DefaultRangeWidth:   10,
	}
}

// applyEnvOverrides lets a fixed set of YAML keys be overridden by env
// vars: DRY_RUN, LIVE_RISK_ACKNOWLEDGED, RPC_URL_HTTP, RPC_URL_WS and
// ADDITIONAL_RELAY_URLS (comma-separated). No other key is read from the
// environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DRY_RUN"); v != "" {
		cfg.DryRun, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("LIVE_RISK_ACKNOWLEDGED"); v != "" {
		cfg.LiveRiskAcknowledged, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("RPC_URL_HTTP"); v != "" {
		cfg.RPCURLHTTP = v
	}
	if v := os.Getenv("RPC_URL_WS"); v != "" {
		cfg.RPCURLWS = v
	}
	if v := os.Getenv("ADDITIONAL_RELAY_URLS"); v != "" {
		cfg.AdditionalRelayURLs = strings.Split(v, ",")
	}
}

// Validate enforces the safety gating spec §6 requires: going live
// requires both an explicit acknowledgment and a non-empty signing key
// being available (checked by the caller, since the key itself is loaded
// separately via .env — see cmd/jitbot).
func (c *Config) Validate() error {
	if c.RPCURLHTTP == "" {
		return fmt.Errorf("rpc_url_http is required")
	}
	if c.RPCURLWS == "" {
		return fmt.Errorf("rpc_url_ws is required")
	}
	if !c.DryRun && !c.LiveRiskAcknowledged {
		return fmt.Errorf("live_risk_acknowledged must be true to run with dry_run=false")
	}
	if !c.DryRun && c.NFPMAddress == "" {
		return fmt.Errorf("nfpm_address is required to run with dry_run=false")
	}
	if c.PoolMaxFailures < 1 {
		return fmt.Errorf("pool_max_failures must be >= 1")
	}
	if c.MaxInFlightDecodes < 1 {
		return fmt.Errorf("max_in_flight_decodes must be >= 1")
	}
	return nil
}
