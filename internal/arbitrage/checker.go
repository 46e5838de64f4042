// Package arbitrage audits a fitted call-price curve for the two static
// no-arbitrage conditions Breeden-Litzenberger relies on: the curve must
// be monotone non-increasing and convex in strike. Violations are
// reported, never fatal — a mildly non-convex curve can still be useful
// for tail-probability estimates downstream.
//
// Ported from the reference's arbitrage_checks.py: same grid size, same
// default tolerances, same violation-counting rule.
package arbitrage

import "github.com/esrnd/rnd-surface/internal/model"

// Config holds the checker's tunables.
type Config struct {
	GridPoints int     // default 200
	TauMono    float64 // default 1e-6
	TauConv    float64 // default -1e-6
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{GridPoints: 200, TauMono: 1e-6, TauConv: -1e-6}
}

// Report is the result of auditing one fitted curve.
type Report struct {
	Valid         bool
	NumViolations int
	MonotoneOK    bool
	ConvexOK      bool
}

// Checker audits a SmoothingResult's fitted curve C(K) under a fixed
// Config.
type Checker struct {
	cfg Config
}

// New constructs a Checker.
func New(cfg Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check evaluates C on a uniform grid over [fit.StrikeMin, fit.StrikeMax]
// and counts monotonicity and convexity violations.
func (c *Checker) Check(fit model.SmoothingResult) Report {
	n := c.cfg.GridPoints
	if n < 3 {
		n = 3
	}
	grid := fit.StrikeGrid(n)
	prices := make([]float64, n)
	for i, k := range grid {
		prices[i] = fit.C(k)
	}

	monoViolations := 0
	for i := 0; i < n-1; i++ {
		dK := grid[i+1] - grid[i]
		if dK == 0 {
			continue
		}
		slope := (prices[i+1] - prices[i]) / dK
		if slope > c.cfg.TauMono {
			monoViolations++
		}
	}

	convViolations := 0
	for i := 1; i < n-1; i++ {
		hL := grid[i] - grid[i-1]
		hR := grid[i+1] - grid[i]
		if hL == 0 || hR == 0 {
			continue
		}
		// Centered second difference on a (possibly non-uniform) grid.
		second := 2 * (prices[i-1]/(hL*(hL+hR)) - prices[i]/(hL*hR) + prices[i+1]/(hR*(hL+hR)))
		if second < c.cfg.TauConv {
			convViolations++
		}
	}

	total := monoViolations + convViolations
	return Report{
		Valid:         total == 0,
		NumViolations: total,
		MonotoneOK:    monoViolations == 0,
		ConvexOK:      convViolations == 0,
	}
}
