// Package surface assembles several single-expiry RNDResults sharing a
// trade date and spot into a strike x DTE grid of densities, suitable for
// a 3-D surface plot or a daily heatmap.
//
// Ported from the reference's two plotters (viz/rnd_surface_plotter.py),
// which duplicate the same grid/interpolation/smoothing/quantile-band
// logic for a 3-D surface and a heatmap; here both constructors share one
// implementation.
package surface

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
)

// Config controls grid resolution and the Gaussian smoothing kernel.
type Config struct {
	// GaussianSigma is the 2-D smoothing kernel's standard deviation, in
	// grid cells. 0 disables smoothing. Documented range 1.5-2.5.
	GaussianSigma float64
}

// DefaultConfig is Build3D's default: sigma 2.0, matching the reference
// plotter's plot_from_results(smooth_sigma=2.0).
func DefaultConfig() Config {
	return Config{GaussianSigma: 2.0}
}

// HeatmapDefaultConfig is BuildHeatmap's default: sigma 1.5, matching the
// reference plotter's plot_density_heatmap, which hardcodes
// gaussian_filter(Z, sigma=1.5) rather than sharing plot_from_results'
// smooth_sigma parameter.
func HeatmapDefaultConfig() Config {
	return Config{GaussianSigma: 1.5}
}

const (
	strikePoints3D      = 200
	strikePointsHeatmap = 200
	dayPoints3D         = 100
)

// Build3D assembles a strike x DTE surface with a 200-point strike grid
// bounded by [max(0.7*spot, min observed strike), min(1.3*spot, max
// observed strike)] and a 100-point uniform DTE grid spanning the
// observed expiries.
func Build3D(results []model.RNDResult, tradeDate time.Time, cfg Config) (model.Surface, error) {
	return build(results, tradeDate, 0.7, 1.3, strikePoints3D, dayGridUniform(dayPoints3D), cfg)
}

// BuildHeatmap assembles a strike x day surface with a 200-point strike
// grid bounded by [0.75*spot, 1.25*spot] and one column per integer day
// from 0 to the maximum observed DTE.
func BuildHeatmap(results []model.RNDResult, tradeDate time.Time, cfg Config) (model.Surface, error) {
	maxDTE := 0.0
	for _, r := range results {
		dte := r.TimeToExpiry * 365
		if dte > maxDTE {
			maxDTE = dte
		}
	}
	return build(results, tradeDate, 0.75, 1.25, strikePointsHeatmap, dayGridDaily(maxDTE), cfg)
}

func dayGridUniform(n int) func(minDTE, maxDTE float64) []float64 {
	return func(minDTE, maxDTE float64) []float64 {
		return linspace(minDTE, maxDTE, n)
	}
}

func dayGridDaily(maxDTE float64) func(minDTE, maxDTE float64) []float64 {
	return func(_, _ float64) []float64 {
		n := int(math.Floor(maxDTE)) + 1
		if n < 1 {
			n = 1
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(i)
		}
		return out
	}
}

func build(results []model.RNDResult, tradeDate time.Time, lowFrac, highFrac float64, strikeN int, dayGridFn func(minDTE, maxDTE float64) []float64, cfg Config) (model.Surface, error) {
	if len(results) == 0 {
		return model.Surface{}, fmt.Errorf("surface: no RND results supplied")
	}

	spot := results[0].SpotPrice
	minStrike, maxStrike := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		if len(r.Strikes) == 0 {
			continue
		}
		if r.Strikes[0] < minStrike {
			minStrike = r.Strikes[0]
		}
		if r.Strikes[len(r.Strikes)-1] > maxStrike {
			maxStrike = r.Strikes[len(r.Strikes)-1]
		}
	}

	lo := math.Max(lowFrac*spot, minStrike)
	hi := math.Min(highFrac*spot, maxStrike)
	if hi <= lo {
		return model.Surface{}, fmt.Errorf("surface: degenerate strike range [%v, %v]", lo, hi)
	}
	priceGrid := linspace(lo, hi, strikeN)

	points := make([]dtePoint, 0, len(results))
	minDTE, maxDTE := math.Inf(1), math.Inf(-1)
	for _, r := range results {
		dte := r.TimeToExpiry * 365
		resampled := resampleLinear(r.Strikes, r.Density, priceGrid)
		points = append(points, dtePoint{dte: dte, density: resampled})
		if dte < minDTE {
			minDTE = dte
		}
		if dte > maxDTE {
			maxDTE = dte
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].dte < points[j].dte })

	dayGrid := dayGridFn(minDTE, maxDTE)

	density := make([][]float64, strikeN)
	for i := range density {
		density[i] = make([]float64, len(dayGrid))
	}

	for dayIdx, d := range dayGrid {
		col := interpolateColumn(points, d)
		for priceIdx := range priceGrid {
			density[priceIdx][dayIdx] = col[priceIdx]
		}
	}

	if cfg.GaussianSigma > 0 {
		gaussianBlur2D(density, cfg.GaussianSigma)
	}

	quantiles := quantileBands(priceGrid, density, []float64{0.05, 0.25, 0.50, 0.75, 0.95})

	return model.Surface{
		TradeDate: tradeDate,
		SpotPrice: spot,
		PriceGrid: priceGrid,
		DayGrid:   dayGrid,
		Density:   density,
		Quantiles: quantiles,
	}, nil
}

type dtePoint struct {
	dte     float64
	density []float64
}

func interpolateColumn(points []dtePoint, d float64) []float64 {
	n := len(points)
	if d <= points[0].dte {
		return points[0].density
	}
	if d >= points[n-1].dte {
		return points[n-1].density
	}
	lo, hi := 0, n-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if points[mid].dte <= d {
			lo = mid
		} else {
			hi = mid
		}
	}
	dLo, dHi := points[lo].dte, points[hi].dte
	w := 0.0
	if dHi != dLo {
		w = (d - dLo) / (dHi - dLo)
	}
	out := make([]float64, len(points[lo].density))
	for i := range out {
		out[i] = points[lo].density[i]*(1-w) + points[hi].density[i]*w
	}
	return out
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// resampleLinear re-samples (x, y) onto grid via piecewise-linear
// interpolation, clamping to the endpoint values outside [x[0], x[n-1]].
func resampleLinear(x, y, grid []float64) []float64 {
	out := make([]float64, len(grid))
	n := len(x)
	for i, v := range grid {
		switch {
		case n == 0:
			out[i] = 0
		case v <= x[0]:
			out[i] = y[0]
		case v >= x[n-1]:
			out[i] = y[n-1]
		default:
			lo, hi := 0, n-1
			for lo+1 < hi {
				mid := (lo + hi) / 2
				if x[mid] <= v {
					lo = mid
				} else {
					hi = mid
				}
			}
			if x[hi] == x[lo] {
				out[i] = y[lo]
			} else {
				w := (v - x[lo]) / (x[hi] - x[lo])
				out[i] = y[lo]*(1-w) + y[hi]*w
			}
		}
	}
	return out
}
