package config

import (
	"fmt"
	"time"

	"github.com/esrnd/rnd-surface/internal/datasource"
	"github.com/esrnd/rnd-surface/internal/pipeline"
)

// ToPipelineConfig converts the YAML-shaped PipelineConfig into the
// pipeline package's native Config.
func (c PipelineConfig) ToPipelineConfig() pipeline.Config {
	return pipeline.Config{
		RiskFreeRate:    c.RiskFreeRate,
		MinDTE:          c.MinDTE,
		MaxDTE:          c.MaxDTE,
		MinVolume:       c.MinVolume,
		MinOpenInterest: c.MinOpenInterest,
		MaxSpreadPct:    c.MaxSpreadPct,
		SmoothingFactor: c.SmoothingFactor,
		NumPoints:       c.NumPoints,
		MonotonicityTol: c.MonotonicityTol,
		ConvexityTol:    c.ConvexityTol,
		Concurrent:      c.Concurrent,
		MaxConcurrency:  c.MaxConcurrency,
	}
}

// BuildSource constructs the ChainSource variant named by Provider.
// riskFreeRate is threaded in from PipelineConfig so a synthetic chain is
// priced consistently with the rate the extractor later discounts by.
// Validate must have been called first (Load does this).
func (c DataSourceConfig) BuildSource(riskFreeRate float64) (datasource.ChainSource, error) {
	switch c.Provider {
	case "synthetic":
		return datasource.NewSynthetic(c.Spot, c.ATMVol, c.SkewPerUnit, riskFreeRate, c.Expiries), nil
	case "replay":
		return datasource.OpenReplay(c.ReplayPath)
	case "http":
		return datasource.NewHTTP(c.BaseURL, c.APIKey, nil, time.Duration(c.MinRequestIntervalMS)*time.Millisecond)
	default:
		return nil, fmt.Errorf("%w: unknown data_source.provider %q", datasource.ErrConfig, c.Provider)
	}
}
