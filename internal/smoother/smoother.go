// Package smoother fits a smooth call-price curve C(K) through an expiry's
// OTM synthetic-call chain, in log-strike space, so the RND extractor can
// differentiate it twice analytically instead of against noisy raw quotes.
//
// Ported from the reference CallPriceSmoother (smoothing.py): same
// minimum-point guard, same duplicate-strike collapse, same auto-smoothing
// default. There is no spline or curve-fitting library anywhere in the
// retrieval pack (gonum included), so the fit itself — a classic Reinsch
// cubic smoothing spline — is hand-rolled against math.
package smoother

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/esrnd/rnd-surface/internal/model"
)

// ErrInsufficientData is returned when fewer than MinPoints distinct
// strikes survive preprocessing.
var ErrInsufficientData = errors.New("smoother: insufficient data points")

// MinPoints is the minimum number of distinct strikes required to attempt
// a fit.
const MinPoints = 10

// Config controls the smoothing-factor choice. SmoothingFactor, when
// non-nil, overrides the automatic default (s = s0 * N); otherwise the
// auto default (s = N * Var(prices) * 0.01) is used.
type Config struct {
	SmoothingFactor *float64
}

// Smoother fits CallPriceSmoother curves under a fixed Config.
type Smoother struct {
	cfg Config
}

// New constructs a Smoother.
func New(cfg Config) *Smoother {
	return &Smoother{cfg: cfg}
}

// Fit preprocesses (strikes, prices) — discarding non-positive entries,
// collapsing duplicate strikes by averaging their prices, and sorting
// ascending — then fits a cubic smoothing spline in log-strike space.
// Returns ErrInsufficientData if fewer than MinPoints distinct strikes
// remain after preprocessing.
func (s *Smoother) Fit(strikes, prices []float64, spot float64) (model.SmoothingResult, error) {
	if len(strikes) != len(prices) {
		return model.SmoothingResult{}, fmt.Errorf("smoother: strikes/prices length mismatch (%d vs %d)", len(strikes), len(prices))
	}

	byStrike := make(map[float64][]float64)
	for i, k := range strikes {
		if k <= 0 || prices[i] <= 0 {
			continue
		}
		byStrike[k] = append(byStrike[k], prices[i])
	}

	cleanK := make([]float64, 0, len(byStrike))
	for k := range byStrike {
		cleanK = append(cleanK, k)
	}
	sort.Float64s(cleanK)

	if len(cleanK) < MinPoints {
		return model.SmoothingResult{}, fmt.Errorf("%w: got %d distinct strikes, need %d", ErrInsufficientData, len(cleanK), MinPoints)
	}

	cleanP := make([]float64, len(cleanK))
	for i, k := range cleanK {
		cleanP[i] = mean(byStrike[k])
	}

	logK := make([]float64, len(cleanK))
	for i, k := range cleanK {
		logK[i] = math.Log(k)
	}

	lambda := s.smoothingFactor(cleanP)
	spline := Fit(logK, cleanP, lambda)

	strikeMin, strikeMax := cleanK[0], cleanK[len(cleanK)-1]
	c := func(k float64) float64 {
		clipped := k
		if clipped < strikeMin {
			clipped = strikeMin
		}
		if clipped > strikeMax {
			clipped = strikeMax
		}
		v := spline.Eval(math.Log(clipped))
		if v < 0 {
			return 0
		}
		return v
	}

	return model.SmoothingResult{
		Strikes:   cleanK,
		Prices:    cleanP,
		SpotPrice: spot,
		StrikeMin: strikeMin,
		StrikeMax: strikeMax,
		C:         c,
		Spline:    spline,
	}, nil
}

// smoothingFactor applies the documented auto/override formula. The
// reference computes a target residual sum of squares and lets FITPACK's
// iterative search translate it into a penalty weight; lacking that
// solver (or a library that provides it) in the pack, we instead use the
// same scale-aware formula directly as the penalty weight lambda in the
// Green-Silverman formulation. This keeps the auto default's
// scale-independence (it grows with N and with the price variance) and
// keeps an explicit override knob, without reimplementing FITPACK's
// root-find.
func (s *Smoother) smoothingFactor(prices []float64) float64 {
	n := float64(len(prices))
	if s.cfg.SmoothingFactor != nil {
		return *s.cfg.SmoothingFactor * n
	}
	return n * variance(prices) * 0.01
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// variance is the population variance (divide by N, numpy's default
// ddof=0), matching original_source's np.var(prices) call that the
// auto-smoothing formula is ported from.
func variance(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := mean(v)
	sum := 0.0
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(v))
}
