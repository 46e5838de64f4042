package arbitrage

import (
	"math"
	"testing"

	"github.com/esrnd/rnd-surface/internal/model"
)

func monotoneConvexFit(spot float64) model.SmoothingResult {
	lo, hi := spot*0.5, spot*1.5
	return model.SmoothingResult{
		SpotPrice: spot,
		StrikeMin: lo,
		StrikeMax: hi,
		C: func(k float64) float64 {
			// A convex, monotone-decreasing proxy for a call price curve.
			return math.Max(spot-k, 0) + 2.0*math.Exp(-k/spot)
		},
	}
}

func TestCheckPassesOnWellBehavedCurve(t *testing.T) {
	c := New(DefaultConfig())
	report := c.Check(monotoneConvexFit(100))
	if !report.Valid {
		t.Fatalf("expected valid report, got %+v", report)
	}
	if !report.MonotoneOK || !report.ConvexOK {
		t.Fatalf("expected both checks to pass: %+v", report)
	}
}

func TestCheckFlagsNonMonotoneCurve(t *testing.T) {
	fit := model.SmoothingResult{
		SpotPrice: 100,
		StrikeMin: 50,
		StrikeMax: 150,
		C: func(k float64) float64 {
			// Deliberately increasing in K: violates monotonicity everywhere.
			return k
		},
	}
	c := New(DefaultConfig())
	report := c.Check(fit)
	if report.Valid || report.MonotoneOK {
		t.Fatalf("expected monotonicity violations, got %+v", report)
	}
	if report.NumViolations == 0 {
		t.Fatalf("expected nonzero violation count")
	}
}

func TestCheckFlagsNonConvexCurve(t *testing.T) {
	fit := model.SmoothingResult{
		SpotPrice: 100,
		StrikeMin: 50,
		StrikeMax: 150,
		C: func(k float64) float64 {
			// Concave (downward-bowed) and still decreasing: violates convexity
			// without violating monotonicity.
			return 100 - k - 0.01*k*k
		},
	}
	c := New(DefaultConfig())
	report := c.Check(fit)
	if report.ConvexOK {
		t.Fatalf("expected convexity violations, got %+v", report)
	}
}
