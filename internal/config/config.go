// Package config loads the typed configuration for an rndsurface run: which
// ChainSource variant to construct, the pipeline's filtering/smoothing
// parameters, and logging verbosity.
package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Config is the top-level configuration for an rndsurface run.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	DataSource DataSourceConfig `yaml:"data_source"`
	Log        LogConfig        `yaml:"log"`
}

// PipelineConfig mirrors pipeline.Config's tunables; ToPipelineConfig
// converts it into a pipeline.Config so the pipeline package doesn't need
// to know about YAML.
type PipelineConfig struct {
	RiskFreeRate float64 `yaml:"risk_free_rate"`

	MinDTE          int     `yaml:"min_dte"`
	MaxDTE          int     `yaml:"max_dte"`
	MinVolume       int64   `yaml:"min_volume"`
	MinOpenInterest int64   `yaml:"min_open_interest"`
	MaxSpreadPct    float64 `yaml:"max_spread_pct"`

	// SmoothingFactor, nil unless smoothing_factor is set in YAML,
	// overrides the auto-computed smoothing factor.
	SmoothingFactor *float64 `yaml:"smoothing_factor"`
	NumPoints       int      `yaml:"num_points"`

	MonotonicityTol float64 `yaml:"monotonicity_tol"`
	ConvexityTol    float64 `yaml:"convexity_tol"`

	Concurrent     bool `yaml:"concurrent"`
	MaxConcurrency int  `yaml:"max_concurrency"`
}

// DataSourceConfig selects and parameterizes one ChainSource variant.
// Provider is one of "synthetic", "replay", "http"; only the fields
// relevant to the selected provider are read.
type DataSourceConfig struct {
	Provider string `yaml:"provider"`

	// Synthetic
	Spot        float64 `yaml:"spot"`
	ATMVol      float64 `yaml:"atm_vol"`
	SkewPerUnit float64 `yaml:"skew_per_unit"`
	Expiries    []int   `yaml:"expiries"`

	// Replay
	ReplayPath string `yaml:"replay_path"`

	// HTTP. APIKey is left blank in YAML and resolved from APIKeyEnv at
	// load time so secrets never live in the config file.
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
	// MinRequestIntervalMS gates the HTTP source's request rate; 0 falls
	// back to datasource's own default.
	MinRequestIntervalMS int `yaml:"min_request_interval_ms"`
}

// LogConfig selects log verbosity.
type LogConfig struct {
	Level string `yaml:"level"` // error | info | debug | trace
}

// DefaultConfig returns the zero-config defaults: a synthetic data source
// over SPY-shaped strikes and pipeline.DefaultConfig's filter thresholds.
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			RiskFreeRate:    0.05,
			MinDTE:          30,
			MaxDTE:          180,
			MinVolume:       10,
			MinOpenInterest: 100,
			MaxSpreadPct:    0.20,
			NumPoints:       500,
			MonotonicityTol: 1e-6,
			ConvexityTol:    -1e-6,
			Concurrent:      true,
			MaxConcurrency:  4,
		},
		DataSource: DataSourceConfig{
			Provider:    "synthetic",
			Spot:        450.0,
			ATMVol:      0.18,
			SkewPerUnit: 0.10,
			Expiries:    []int{30, 60, 90},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configPath (YAML) when it is non-empty, falling back to
// DefaultConfig when configPath is empty, then overlays secrets from the
// environment and validates the result. An empty configPath is not an
// error; a non-empty path that cannot be read or parsed is.
func Load(configPath string) (Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is operator-supplied
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %q: %w", configPath, err)
		}
		expanded := os.ExpandEnv(string(data))
		dec := yaml.NewDecoder(strings.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %q: %w", configPath, err)
		}
	}

	if cfg.DataSource.Provider == "http" {
		if cfg.DataSource.APIKeyEnv == "" {
			cfg.DataSource.APIKeyEnv = "RNDSURFACE_API_KEY"
		}
		cfg.DataSource.APIKey = os.Getenv(cfg.DataSource.APIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field consistency the YAML schema alone can't
// express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "error", "info", "debug", "trace":
	default:
		return fmt.Errorf("log.level must be one of: error, info, debug, trace")
	}

	switch c.DataSource.Provider {
	case "synthetic":
		if c.DataSource.Spot <= 0 {
			return fmt.Errorf("data_source.spot must be positive for the synthetic provider")
		}
	case "replay":
		if strings.TrimSpace(c.DataSource.ReplayPath) == "" {
			return fmt.Errorf("data_source.replay_path is required for the replay provider")
		}
	case "http":
		if strings.TrimSpace(c.DataSource.BaseURL) == "" {
			return fmt.Errorf("data_source.base_url is required for the http provider")
		}
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("http provider requires %s to be set in the environment", c.DataSource.APIKeyEnv)
		}
	default:
		return fmt.Errorf("data_source.provider must be one of: synthetic, replay, http")
	}

	if c.Pipeline.MinDTE >= c.Pipeline.MaxDTE {
		return fmt.Errorf("pipeline.min_dte must be less than pipeline.max_dte")
	}
	if c.Pipeline.NumPoints <= 0 {
		return fmt.Errorf("pipeline.num_points must be positive")
	}

	return nil
}
