// Package kernel provides the numerical primitives shared by every stage of
// the RND pipeline: trapezoidal integration, density normalization, moment
// computation, quantile inversion, and a central second-difference operator.
//
// Every function here is a pure, allocation-light transform over plain
// float64 slices. Nothing in this package touches options, strikes, or
// expiries — those live a layer up in internal/model.
package kernel

import "math"

// minDensity is the floor used to clip a density before normalizing, so a
// residual negative second-difference from spline noise never produces a
// negative probability mass.
const minDensity = 1e-10

// Trapezoid computes the composite trapezoidal-rule integral of y over x.
// x need not be uniformly spaced. Panics if len(y) != len(x) to surface a
// caller bug immediately rather than silently returning 0.
func Trapezoid(y, x []float64) float64 {
	if len(y) != len(x) {
		panic("kernel: Trapezoid: y and x must have equal length")
	}
	if len(x) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(x); i++ {
		total += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return total
}

// NormalizeDensity clips f to a small positive floor, then rescales it so
// it integrates to 1 over x. If the integral of the clipped density is
// non-positive, it falls back to the uniform density on [x[0], x[len(x)-1]].
// The input slice is not mutated; a new slice is returned.
func NormalizeDensity(f, x []float64) []float64 {
	clipped := make([]float64, len(f))
	for i, v := range f {
		clipped[i] = math.Max(v, minDensity)
	}
	integral := Trapezoid(clipped, x)
	if integral > 0 {
		out := make([]float64, len(clipped))
		for i, v := range clipped {
			out[i] = v / integral
		}
		return out
	}

	span := x[len(x)-1] - x[0]
	uniform := make([]float64, len(x))
	u := 1.0 / span
	for i := range uniform {
		uniform[i] = u
	}
	return uniform
}

// Moments holds the first four central moments of a density: mean, standard
// deviation, skewness, and excess kurtosis.
type Moments struct {
	Mean     float64
	Std      float64
	Skewness float64
	Kurtosis float64
}

// ComputeMoments integrates f against x to produce mean, std, skewness, and
// excess kurtosis. Skewness and kurtosis default to 0 when std is 0 (a
// degenerate, effectively point-mass density).
func ComputeMoments(f, x []float64) Moments {
	mean := Trapezoid(mul(x, f), x)

	centered2 := make([]float64, len(x))
	for i, xi := range x {
		d := xi - mean
		centered2[i] = d * d * f[i]
	}
	variance := Trapezoid(centered2, x)
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)

	if std == 0 {
		return Moments{Mean: mean, Std: 0, Skewness: 0, Kurtosis: 0}
	}

	centered3 := make([]float64, len(x))
	centered4 := make([]float64, len(x))
	for i, xi := range x {
		d := xi - mean
		centered3[i] = d * d * d * f[i]
		centered4[i] = d * d * d * d * f[i]
	}
	skew := Trapezoid(centered3, x) / (std * std * std)
	kurt := Trapezoid(centered4, x)/(std*std*std*std) - 3.0

	return Moments{Mean: mean, Std: std, Skewness: skew, Kurtosis: kurt}
}

// Quantiles inverts the discrete CDF formed from f over a uniformly spaced
// x at each requested probability in qs. x must have at least two points
// and be uniformly spaced; the CDF is rescaled so its final value is 1
// whenever that final value is positive.
func Quantiles(f, x []float64, qs []float64) []float64 {
	n := len(x)
	cdf := make([]float64, n)
	dx := x[1] - x[0]

	running := 0.0
	for i := 0; i < n; i++ {
		running += f[i] * dx
		cdf[i] = running
	}
	if cdf[n-1] > 0 {
		last := cdf[n-1]
		for i := range cdf {
			cdf[i] /= last
		}
	}

	out := make([]float64, len(qs))
	for i, q := range qs {
		out[i] = interp1(q, cdf, x)
	}
	return out
}

// CentralDiff2 computes the second derivative of v using central finite
// differences on a uniform grid of spacing h. The first and last cells copy
// the nearest interior stencil rather than one-sided differences, matching
// the reference implementation's choice to preserve smoothness at the
// edges over strict numerical accuracy there.
func CentralDiff2(v []float64, h float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	if n < 3 {
		return out
	}
	h2 := h * h
	for i := 1; i < n-1; i++ {
		out[i] = (v[i+1] - 2*v[i] + v[i-1]) / h2
	}
	out[0] = out[1]
	out[n-1] = out[n-2]
	return out
}

// interp1 performs piecewise-linear interpolation of fp over a
// non-decreasing xp at point x, clamping outside [xp[0], xp[len-1]].
// xp here is a CDF; where it is flat at exactly x, the result is the fp of
// the last index on that flat run.
func interp1(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if n == 0 {
		return 0
	}
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}
	lo, hi := 0, n-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if xp[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	x0, x1 := xp[lo], xp[hi]
	y0, y1 := fp[lo], fp[hi]
	if x1 == x0 {
		return y0
	}
	w := (x - x0) / (x1 - x0)
	return y0 + w*(y1-y0)
}

func mul(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}
