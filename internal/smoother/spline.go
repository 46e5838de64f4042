package smoother

// NaturalCubicSpline is a cubic smoothing spline through (x, g) control
// points with prescribed second derivatives gamma at each knot — the
// classic natural-cubic-spline representation (Green & Silverman,
// "Nonparametric Regression and Generalized Linear Models", 1994, eq 2.1).
// Fit builds g and gamma by penalized least squares; NaturalCubicSpline
// itself only knows how to evaluate the resulting piecewise-cubic curve
// and its derivatives.
type NaturalCubicSpline struct {
	x     []float64
	g     []float64
	gamma []float64
}

// Fit solves the penalized least-squares smoothing spline
//
//	minimize sum_i (y_i - f(x_i))^2 + lambda * integral f''(t)^2 dt
//
// over natural cubic splines f, in the Green-Silverman Q/R formulation
// solved with dense linear algebra (see linalg.go). x must be strictly increasing with len(x) >= 3. lambda <= 0
// degrades to lambda == 0, i.e. the ordinary interpolating natural cubic
// spline (no smoothing).
func Fit(x, y []float64, lambda float64) *NaturalCubicSpline {
	n := len(x)
	if n < 3 {
		return &NaturalCubicSpline{x: x, g: y, gamma: make([]float64, n)}
	}
	if lambda < 0 {
		lambda = 0
	}

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = x[i+1] - x[i]
	}

	m := n - 2
	r := make([][]float64, m)
	for i := range r {
		r[i] = make([]float64, m)
	}
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, m)
	}

	for j := 1; j <= n-2; j++ {
		i := j - 1 // 0-indexed row/col in r, q
		hl, hr := h[j-1], h[j]
		r[i][i] = (hl + hr) / 3
		if i+1 < m {
			r[i][i+1] = hr / 6
			r[i+1][i] = hr / 6
		}
		q[j-1][i] = 1 / hl
		q[j][i] = -1/hl - 1/hr
		q[j+1][i] = 1 / hr
	}

	g := y
	gamma := make([]float64, n)

	rInv := invert(r)
	qt := transpose(q)
	if lambda > 0 {
		a := matMul(q, matMul(rInv, qt)) // n x n: Q R^-1 Q'
		system := addScaled(identity(n), a, lambda)
		rhs := append([]float64(nil), y...)
		g = solveLinear(system, rhs)
	}

	interior := matVec(rInv, matVec(qt, g))
	for j := 1; j <= n-2; j++ {
		gamma[j] = interior[j-1]
	}

	return &NaturalCubicSpline{x: x, g: g, gamma: gamma}
}

// segment returns the index i such that x[i] <= logK <= x[i+1], clamping to
// the first/last segment for out-of-range input.
func (s *NaturalCubicSpline) segment(v float64) int {
	n := len(s.x)
	if v <= s.x[0] {
		return 0
	}
	if v >= s.x[n-1] {
		return n - 2
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.x[mid] <= v {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Eval, Derivative1, and Derivative2 clamp out-of-range input to the
// nearest knot's extrapolated segment rather than the flat-extension
// CallPriceSmoother applies; callers needing flat extrapolation beyond the
// fit range clip the input strike before calling Eval (see smoother.go).
func (s *NaturalCubicSpline) Eval(v float64) float64 {
	i := s.segment(v)
	h := s.x[i+1] - s.x[i]
	a := s.x[i+1] - v
	b := v - s.x[i]
	return s.gamma[i]/(6*h)*a*a*a + s.gamma[i+1]/(6*h)*b*b*b +
		(s.g[i]/h-s.gamma[i]*h/6)*a + (s.g[i+1]/h-s.gamma[i+1]*h/6)*b
}

func (s *NaturalCubicSpline) Derivative1(v float64) float64 {
	i := s.segment(v)
	h := s.x[i+1] - s.x[i]
	a := s.x[i+1] - v
	b := v - s.x[i]
	return -s.gamma[i]/(2*h)*a*a + s.gamma[i+1]/(2*h)*b*b -
		(s.g[i]/h-s.gamma[i]*h/6) + (s.g[i+1]/h-s.gamma[i+1]*h/6)
}

func (s *NaturalCubicSpline) Derivative2(v float64) float64 {
	i := s.segment(v)
	h := s.x[i+1] - s.x[i]
	a := s.x[i+1] - v
	b := v - s.x[i]
	return s.gamma[i]*a/h + s.gamma[i+1]*b/h
}
