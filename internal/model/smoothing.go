package model

// Spline is the minimal handle the RND extractor needs from whatever curve
// a smoother fits: pointwise evaluation and first/second derivatives, all
// in the same (log-strike) coordinate the curve was fit in. Concrete
// implementations live in internal/smoother; model only depends on the
// shape so extractor and pipeline can consume a SmoothingResult without
// importing smoother directly.
type Spline interface {
	Eval(logK float64) float64
	Derivative1(logK float64) float64
	Derivative2(logK float64) float64
}

// SmoothingResult is the fitted call-price curve for a single expiry: the
// cleaned (strike, price) samples that were fit, a callable C(K), and,
// when available, the underlying spline handle for analytic derivatives.
type SmoothingResult struct {
	Strikes   []float64
	Prices    []float64
	SpotPrice float64
	StrikeMin float64
	StrikeMax float64

	// C evaluates the fitted curve at an arbitrary strike, clipped to
	// [StrikeMin, StrikeMax] and floored at 0. It is not serialized to JSON.
	C func(k float64) float64 `json:"-"`

	// Spline is nil only when a fit degrades to pure finite-difference
	// evaluation (it never does for the smoother in this repo, but the
	// extractor checks for nil defensively per §4.5's fallback clause).
	Spline Spline
}

// StrikeGrid returns n uniformly spaced strikes over [StrikeMin, StrikeMax].
func (s SmoothingResult) StrikeGrid(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = s.StrikeMin
		return out
	}
	step := (s.StrikeMax - s.StrikeMin) / float64(n-1)
	for i := range out {
		out[i] = s.StrikeMin + step*float64(i)
	}
	return out
}
