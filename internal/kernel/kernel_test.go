package kernel

import (
	"math"
	"testing"
)

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + step*float64(i)
	}
	return out
}

func TestTrapezoidConstant(t *testing.T) {
	x := linspace(0, 10, 100)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 2.0
	}
	got := Trapezoid(y, x)
	if math.Abs(got-20.0) > 1e-9 {
		t.Fatalf("expected 20, got %f", got)
	}
}

func TestNormalizeDensityIntegratesToOne(t *testing.T) {
	x := linspace(-5, 5, 500)
	f := make([]float64, len(x))
	for i, xi := range x {
		f[i] = math.Exp(-xi * xi / 2)
	}
	norm := NormalizeDensity(f, x)
	integral := Trapezoid(norm, x)
	if math.Abs(integral-1.0) > 1e-3 {
		t.Fatalf("expected integral ~1, got %f", integral)
	}
}

func TestNormalizeDensityFallsBackToUniform(t *testing.T) {
	x := linspace(0, 10, 50)
	f := make([]float64, len(x))
	for i := range f {
		f[i] = -1.0
	}
	norm := NormalizeDensity(f, x)
	want := 1.0 / 10.0
	for _, v := range norm {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("expected uniform density %f, got %f", want, v)
		}
	}
}

func TestComputeMomentsStandardNormal(t *testing.T) {
	x := linspace(-8, 8, 2000)
	f := make([]float64, len(x))
	for i, xi := range x {
		f[i] = math.Exp(-xi*xi/2) / math.Sqrt(2*math.Pi)
	}
	m := ComputeMoments(f, x)
	if math.Abs(m.Mean) > 1e-3 {
		t.Fatalf("expected mean ~0, got %f", m.Mean)
	}
	if math.Abs(m.Std-1.0) > 1e-2 {
		t.Fatalf("expected std ~1, got %f", m.Std)
	}
	if math.Abs(m.Skewness) > 1e-2 {
		t.Fatalf("expected skew ~0, got %f", m.Skewness)
	}
	if math.Abs(m.Kurtosis) > 5e-2 {
		t.Fatalf("expected excess kurtosis ~0, got %f", m.Kurtosis)
	}
}

func TestComputeMomentsDegenerateStdZero(t *testing.T) {
	x := []float64{1, 2, 3}
	f := []float64{0, 0, 0}
	m := ComputeMoments(f, x)
	if m.Skewness != 0 || m.Kurtosis != 0 {
		t.Fatalf("expected zero skew/kurtosis for std=0, got %+v", m)
	}
}

func TestQuantilesRoundTrip(t *testing.T) {
	x := linspace(50, 150, 2000)
	f := make([]float64, len(x))
	mu, sigma := 100.0, 15.0
	for i, xi := range x {
		f[i] = math.Exp(-(xi-mu)*(xi-mu)/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
	}
	norm := NormalizeDensity(f, x)

	probes := []int{500, 1000, 1500}
	targetQs := make([]float64, len(probes))
	for i, idx := range probes {
		dx := x[1] - x[0]
		running := 0.0
		for j := 0; j <= idx; j++ {
			running += norm[j] * dx
		}
		targetQs[i] = running
	}

	got := Quantiles(norm, x, targetQs)
	step := x[1] - x[0]
	for i, idx := range probes {
		if math.Abs(got[i]-x[idx]) > step {
			t.Fatalf("quantile %d: expected ~%f, got %f", i, x[idx], got[i])
		}
	}
}

func TestCentralDiff2ConstantSecondDerivative(t *testing.T) {
	x := linspace(0, 10, 200)
	h := x[1] - x[0]
	v := make([]float64, len(x))
	for i, xi := range x {
		v[i] = xi * xi // f''=2 everywhere
	}
	d2 := CentralDiff2(v, h)
	for i := 1; i < len(d2)-1; i++ {
		if math.Abs(d2[i]-2.0) > 1e-6 {
			t.Fatalf("index %d: expected 2.0, got %f", i, d2[i])
		}
	}
	if d2[0] != d2[1] {
		t.Fatalf("expected edge to copy nearest interior stencil")
	}
	if d2[len(d2)-1] != d2[len(d2)-2] {
		t.Fatalf("expected edge to copy nearest interior stencil")
	}
}
