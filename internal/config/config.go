package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the trader needs at startup: where to reach the
// cluster, how to sign, and the submission and pricing knobs.
type Config struct {
	RPCURL     string `mapstructure:"rpc_url"`
	Commitment string `mapstructure:"commitment"`
	// PrivateKey is the wallet's base58-encoded 64-byte keypair. Prefer the
	// AGENTIPY_PRIVATE_KEY environment variable over the config file.
	PrivateKey string `mapstructure:"private_key"`

	ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit"`
	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`

	PollIntervalMs     int `mapstructure:"poll_interval_ms"`
	MaxPollAttempts    int `mapstructure:"max_poll_attempts"`
	BroadcastTimeoutMs int `mapstructure:"broadcast_timeout_ms"`

	DefaultSlippageBps uint64 `mapstructure:"default_slippage_bps"`
	AmmFeeBps          uint64 `mapstructure:"amm_fee_bps"`
	CurveFeeBps        uint64 `mapstructure:"curve_fee_bps"`

	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

const (
	DefaultCommitment       = "confirmed"
	DefaultComputeUnitLimit = 100_000
	DefaultComputeUnitPrice = 100_000
	DefaultPollIntervalMs   = 3000
	DefaultMaxPollAttempts  = 20
	DefaultBroadcastMs      = 15_000
	DefaultSlippageBps      = 500
	DefaultAmmFeeBps        = 25
	DefaultCurveFeeBps      = 100
)

// Load reads the config file at path, applies defaults, and overlays
// AGENTIPY_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"commitment":           DefaultCommitment,
		"compute_unit_limit":   DefaultComputeUnitLimit,
		"compute_unit_price":   DefaultComputeUnitPrice,
		"poll_interval_ms":     DefaultPollIntervalMs,
		"max_poll_attempts":    DefaultMaxPollAttempts,
		"broadcast_timeout_ms": DefaultBroadcastMs,
		"default_slippage_bps": DefaultSlippageBps,
		"amm_fee_bps":          DefaultAmmFeeBps,
		"curve_fee_bps":        DefaultCurveFeeBps,
		"log_level":            "info",
		"log_max_size_mb":      10,
		"log_max_backups":      3,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("AGENTIPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if key := v.GetString("PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = key
	}
	if rpc := v.GetString("RPC_URL"); rpc != "" {
		cfg.RPCURL = rpc
	}

	return &cfg, validate(&cfg)
}

func validate(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	parsed, err := url.Parse(cfg.RPCURL)
	if err != nil || !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("rpc_url must be an http(s) endpoint")
	}
	if cfg.PrivateKey == "" {
		return errors.New("missing private key: set AGENTIPY_PRIVATE_KEY")
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if cfg.PollIntervalMs <= 0 {
		return errors.New("invalid poll_interval_ms")
	}
	if cfg.MaxPollAttempts <= 0 {
		return errors.New("invalid max_poll_attempts")
	}
	if cfg.BroadcastTimeoutMs <= 0 {
		return errors.New("invalid broadcast_timeout_ms")
	}
	if cfg.DefaultSlippageBps >= 10_000 {
		return errors.New("default_slippage_bps must be below 10000")
	}
	return nil
}

// PollInterval returns the confirmation poll spacing as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// BroadcastTimeout returns the broadcast retry window as a duration.
func (c *Config) BroadcastTimeout() time.Duration {
	return time.Duration(c.BroadcastTimeoutMs) * time.Millisecond
}
