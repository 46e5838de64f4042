// Package extractor applies the Breeden-Litzenberger identity to a fitted
// call-price curve to recover the risk-neutral density for one expiry.
//
// Ported from the reference's RNDExtractor (rnd_extractor.py): same
// time-to-expiry guard, same chain-rule conversion from log-strike
// derivatives, same finite-difference fallback, same normalize-then-attach-
// moments sequence.
package extractor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/esrnd/rnd-surface/internal/kernel"
	"github.com/esrnd/rnd-surface/internal/model"
)

// ErrExpired is returned when the requested expiry is on or before the
// trade date.
var ErrExpired = errors.New("extractor: expiry has already passed trade date")

// Config holds the extractor's tunables.
type Config struct {
	RiskFreeRate float64 // default 0.05
	GridPoints   int     // default 500
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{RiskFreeRate: 0.05, GridPoints: 500}
}

// Extractor recovers an RNDResult from a SmoothingResult under a fixed
// Config.
type Extractor struct {
	cfg Config
}

// New constructs an Extractor.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract builds the RNDResult for one expiry. quality may be nil when no
// data-quality snapshot is available for this expiry.
func (e *Extractor) Extract(fit model.SmoothingResult, expiry, tradeDate time.Time, quality *model.DataQuality) (model.RNDResult, error) {
	T := expiry.Sub(tradeDate).Hours() / 24 / 365
	if T <= 0 {
		return model.RNDResult{}, fmt.Errorf("%w: expiry %s, trade date %s", ErrExpired, expiry.Format("2006-01-02"), tradeDate.Format("2006-01-02"))
	}

	n := e.cfg.GridPoints
	if n < 3 {
		n = 3
	}
	strikes := fit.StrikeGrid(n)
	d2 := e.secondDerivative(fit, strikes)

	discount := math.Exp(e.cfg.RiskFreeRate * T)
	rawDensity := make([]float64, n)
	for i, v := range d2 {
		rawDensity[i] = discount * v
	}
	density := kernel.NormalizeDensity(rawDensity, strikes)
	moments := kernel.ComputeMoments(density, strikes)

	return model.RNDResult{
		Strikes:      strikes,
		Density:      density,
		Expiry:       expiry,
		TimeToExpiry: T,
		SpotPrice:    fit.SpotPrice,
		Mean:         moments.Mean,
		Std:          moments.Std,
		Skewness:     moments.Skewness,
		Kurtosis:     moments.Kurtosis,
		DataQuality:  quality,
	}, nil
}

// secondDerivative computes d2C/dK2 on strikes, preferring the analytic
// chain-rule conversion from the fit's log-strike spline and falling back
// to a finite-difference second difference of C directly over strikes
// when no spline handle is available.
func (e *Extractor) secondDerivative(fit model.SmoothingResult, strikes []float64) []float64 {
	if fit.Spline != nil {
		out := make([]float64, len(strikes))
		for i, k := range strikes {
			logK := math.Log(k)
			d2logK := fit.Spline.Derivative2(logK)
			d1logK := fit.Spline.Derivative1(logK)
			out[i] = (d2logK - d1logK) / (k * k)
		}
		return out
	}

	prices := make([]float64, len(strikes))
	for i, k := range strikes {
		prices[i] = fit.C(k)
	}
	h := 0.0
	if len(strikes) > 1 {
		h = strikes[1] - strikes[0]
	}
	return kernel.CentralDiff2(prices, h)
}
