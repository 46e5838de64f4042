package model

import (
	"time"

	"github.com/esrnd/rnd-surface/internal/kernel"
)

// RNDResult is the risk-neutral density extracted for a single expiry: a
// dense strike grid, the normalized density on that grid, the moments of
// that density, and (when available) the data-quality metrics that fed it.
//
// RNDResult is immutable once constructed by extractor.Extract; callers
// that want a derived view build a new value rather than mutating this one.
type RNDResult struct {
	Strikes       []float64
	Density       []float64
	Expiry        time.Time
	TimeToExpiry  float64 // years
	SpotPrice     float64
	Mean          float64
	Std           float64
	Skewness      float64
	Kurtosis      float64
	DataQuality   *DataQuality
}

// GetQuantiles returns K_q for each requested probability q, via linear
// CDF inversion on the density grid (kernel.Quantiles).
func (r RNDResult) GetQuantiles(qs []float64) map[float64]float64 {
	values := kernel.Quantiles(r.Density, r.Strikes, qs)
	out := make(map[float64]float64, len(qs))
	for i, q := range qs {
		out[q] = values[i]
	}
	return out
}

// ProbabilityBelow returns P(price <= strike) = ∫_{Kmin}^{strike} f dK,
// computed by trapezoidal integration over the portion of the strike grid
// at or below strike. Returns 0 if strike is below every grid point.
func (r RNDResult) ProbabilityBelow(strike float64) float64 {
	n := 0
	for n < len(r.Strikes) && r.Strikes[n] <= strike {
		n++
	}
	if n == 0 {
		return 0
	}
	return kernel.Trapezoid(r.Density[:n], r.Strikes[:n])
}

// ProbabilityAbove returns 1 - ProbabilityBelow(strike).
func (r RNDResult) ProbabilityAbove(strike float64) float64 {
	return 1.0 - r.ProbabilityBelow(strike)
}
