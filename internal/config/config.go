// Package config loads application configuration from a YAML file with
// environment-variable overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "5m" or "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
//
// The cache TTL and lookback windows are deliberately configuration, not
// constants: they are policy choices, and the defaults below are the
// original tuned values (5-minute TTL, 3-month history, 1-month
// volatility window).
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"` // massive | yahoo | synthetic
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Cache struct {
		TTL Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Fetch struct {
		Timeout       Duration `yaml:"timeout"`
		HistoryDays   int      `yaml:"history_days"`
		VolWindowDays int      `yaml:"vol_window_days"`
	} `yaml:"fetch"`
	Pricing struct {
		RiskFreeRate float64 `yaml:"risk_free_rate"`
	} `yaml:"pricing"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Zero is a legal rate, so its default is seeded before unmarshal
	// rather than patched in afterwards; an explicit 0 in the file or
	// environment survives.
	cfg.Pricing.RiskFreeRate = 0.03

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MASSIVE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("OPTIPRICE_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("OPTIPRICE_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = Duration(ttl)
		}
	}
	if v := os.Getenv("OPTIPRICE_RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pricing.RiskFreeRate = rate
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		if cfg.DataSource.APIKey != "" {
			cfg.DataSource.Provider = "massive"
		} else {
			cfg.DataSource.Provider = "yahoo"
		}
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(5 * time.Minute)
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = Duration(10 * time.Second)
	}
	if cfg.Fetch.HistoryDays == 0 {
		cfg.Fetch.HistoryDays = 63 // ~3 months of trading days
	}
	if cfg.Fetch.VolWindowDays == 0 {
		cfg.Fetch.VolWindowDays = 21 // ~1 month of trading days
	}

	return cfg, nil
}

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "massive", "yahoo", "synthetic":
	default:
		return fmt.Errorf("data_source.provider must be massive, yahoo, or synthetic, got %q", c.DataSource.Provider)
	}
	if c.DataSource.Provider == "massive" && c.DataSource.APIKey == "" {
		return fmt.Errorf("data_source.api_key is required for the massive provider")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.VolWindowDays < 2 {
		return fmt.Errorf("fetch.vol_window_days must be at least 2")
	}
	if c.Fetch.HistoryDays < c.Fetch.VolWindowDays {
		return fmt.Errorf("fetch.history_days must cover the volatility window")
	}
	return nil
}
