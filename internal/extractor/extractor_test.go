package extractor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
	"github.com/esrnd/rnd-surface/internal/smoother"
)

func lognormalFit(t *testing.T, spot, r, sigma, T float64) model.SmoothingResult {
	t.Helper()
	n := 40
	strikes := make([]float64, n)
	prices := make([]float64, n)
	for i := range strikes {
		k := spot*0.5 + (spot*1.0)*float64(i)/float64(n-1)
		strikes[i] = k
		prices[i] = blackScholesCall(spot, k, r, sigma, T)
	}
	sm := smoother.New(smoother.Config{})
	fit, err := sm.Fit(strikes, prices, spot)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	return fit
}

// blackScholesCall is a minimal closed-form call price, used only to build
// a realistic smooth test curve; it duplicates no production type.
func blackScholesCall(s, k, r, sigma, T float64) float64 {
	if T <= 0 {
		return math.Max(s-k, 0)
	}
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)
	return s*normCDF(d1) - k*math.Exp(-r*T)*normCDF(d2)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func TestExtractFailsOnExpiredDate(t *testing.T) {
	fit := lognormalFit(t, 100, 0.05, 0.2, 30.0/365)
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	expiry := tradeDate.AddDate(0, 0, -1)

	e := New(DefaultConfig())
	_, err := e.Extract(fit, expiry, tradeDate, nil)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestExtractProducesNormalizedDensity(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	expiry := tradeDate.AddDate(0, 0, 30)
	fit := lognormalFit(t, 100, 0.05, 0.2, 30.0/365)

	e := New(DefaultConfig())
	result, err := e.Extract(fit, expiry, tradeDate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mass := 0.0
	for i := 1; i < len(result.Strikes); i++ {
		dx := result.Strikes[i] - result.Strikes[i-1]
		mass += dx * (result.Density[i] + result.Density[i-1]) / 2
	}
	if math.Abs(mass-1.0) > 1e-6 {
		t.Fatalf("expected density to integrate to 1, got %v", mass)
	}

	for _, d := range result.Density {
		if d < 0 {
			t.Fatalf("found negative density %v", d)
		}
	}

	if result.Mean <= 0 || result.Std <= 0 {
		t.Fatalf("expected positive mean/std for a lognormal-like density, got mean=%v std=%v", result.Mean, result.Std)
	}
}

func TestExtractFallsBackToFiniteDifferenceWithoutSpline(t *testing.T) {
	fit := model.SmoothingResult{
		SpotPrice: 100,
		StrikeMin: 50,
		StrikeMax: 150,
		C: func(k float64) float64 {
			return blackScholesCall(100, k, 0.05, 0.2, 30.0/365)
		},
		Spline: nil,
	}
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	expiry := tradeDate.AddDate(0, 0, 30)

	e := New(DefaultConfig())
	result, err := e.Extract(fit, expiry, tradeDate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Density) != DefaultConfig().GridPoints {
		t.Fatalf("expected %d grid points, got %d", DefaultConfig().GridPoints, len(result.Density))
	}
}
