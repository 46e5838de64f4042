package smoother

// Small dense linear-algebra helpers backing the smoothing-spline solve.
// The systems here are sized by the number of unique strikes in a single
// expiry's OTM chain (typically tens, rarely low hundreds), so a plain
// dense Gaussian-elimination solve is simpler and plenty fast — no need
// to reach for a sparse or banded solver.

// solveLinear solves A x = b via Gaussian elimination with partial
// pivoting. A is overwritten; b is overwritten; both are square/matching.
// Returns the solution vector x.
func solveLinear(a [][]float64, b []float64) []float64 {
	n := len(a)
	// Augment and eliminate.
	for col := 0; col < n; col++ {
		pivot := col
		best := abs(a[col][col])
		for row := col + 1; row < n; row++ {
			if v := abs(a[row][col]); v > best {
				best = v
				pivot = row
			}
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
			b[col], b[pivot] = b[pivot], b[col]
		}
		diag := a[col][col]
		if diag == 0 {
			continue // singular in this column; leave as-is, caller's system is PD in practice
		}
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / diag
			if factor == 0 {
				continue
			}
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		if a[row][row] == 0 {
			x[row] = 0
			continue
		}
		x[row] = sum / a[row][row]
	}
	return x
}

// invert computes the inverse of a square matrix by solving against each
// standard basis vector. Used only for the small (m = n-2) interior-knot
// system R, never for the full n x n system.
func invert(a [][]float64) [][]float64 {
	n := len(a)
	inv := make([][]float64, n)
	for i := range inv {
		inv[i] = make([]float64, n)
	}
	for col := 0; col < n; col++ {
		// Each solve needs its own copy of a since solveLinear mutates it.
		acopy := cloneMatrix(a)
		e := make([]float64, n)
		e[col] = 1
		x := solveLinear(acopy, e)
		for row := 0; row < n; row++ {
			inv[row][col] = x[row]
		}
	}
	return inv
}

func matMul(a, b [][]float64) [][]float64 {
	rows, inner, cols := len(a), len(b), len(b[0])
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func matVec(a [][]float64, v []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		sum := 0.0
		for j := range v {
			sum += a[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func transpose(a [][]float64) [][]float64 {
	if len(a) == 0 {
		return nil
	}
	rows, cols := len(a), len(a[0])
	out := make([][]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]float64, rows)
		for i := 0; i < rows; i++ {
			out[j][i] = a[i][j]
		}
	}
	return out
}

func cloneMatrix(a [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func identity(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		out[i][i] = 1
	}
	return out
}

func addScaled(base [][]float64, other [][]float64, scale float64) [][]float64 {
	out := make([][]float64, len(base))
	for i := range base {
		out[i] = make([]float64, len(base[i]))
		for j := range base[i] {
			out[i][j] = base[i][j] + scale*other[i][j]
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
