package surface

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esrnd/rnd-surface/internal/model"
)

func gaussianDensity(strikes []float64, mean, std float64) []float64 {
	out := make([]float64, len(strikes))
	for i, k := range strikes {
		z := (k - mean) / std
		out[i] = math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi))
	}
	return out
}

func makeRNDResult(spot, dteDays float64) model.RNDResult {
	strikes := linspace(spot*0.5, spot*1.5, 150)
	density := gaussianDensity(strikes, spot, spot*0.1*math.Sqrt(dteDays/30))
	return model.RNDResult{
		Strikes:      strikes,
		Density:      density,
		TimeToExpiry: dteDays / 365,
		SpotPrice:    spot,
	}
}

func TestBuild3DProducesExpectedGridShape(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	results := []model.RNDResult{
		makeRNDResult(100, 30),
		makeRNDResult(100, 60),
		makeRNDResult(100, 90),
	}

	s, err := Build3D(results, tradeDate, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, s.PriceGrid, strikePoints3D)
	assert.Len(t, s.DayGrid, dayPoints3D)
	assert.Len(t, s.Density, strikePoints3D)
	for _, col := range s.Density {
		assert.Len(t, col, dayPoints3D)
	}
	assert.InDelta(t, 30.0, s.DayGrid[0], 1e-9)
	assert.InDelta(t, 90.0, s.DayGrid[len(s.DayGrid)-1], 1e-9)
}

func TestBuildHeatmapCoversIntegerDaysFromZero(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	results := []model.RNDResult{
		makeRNDResult(100, 30),
		makeRNDResult(100, 45),
	}

	s, err := BuildHeatmap(results, tradeDate, HeatmapDefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.DayGrid[0])
	assert.Equal(t, float64(len(s.DayGrid)-1), s.DayGrid[len(s.DayGrid)-1])
}

func TestHeatmapDefaultSigmaDiffersFrom3DDefault(t *testing.T) {
	assert.Equal(t, 2.0, DefaultConfig().GaussianSigma)
	assert.Equal(t, 1.5, HeatmapDefaultConfig().GaussianSigma)
}

func TestBuildRejectsEmptyResults(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err := Build3D(nil, tradeDate, DefaultConfig())
	require.Error(t, err)
}

func TestQuantileBandsAreOrderedAndWithinRange(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	results := []model.RNDResult{
		makeRNDResult(100, 30),
		makeRNDResult(100, 60),
	}

	s, err := Build3D(results, tradeDate, DefaultConfig())
	require.NoError(t, err)

	for day := range s.DayGrid {
		q05 := s.Quantiles[0.05][day]
		q50 := s.Quantiles[0.50][day]
		q95 := s.Quantiles[0.95][day]
		assert.LessOrEqual(t, q05, q50)
		assert.LessOrEqual(t, q50, q95)
		assert.GreaterOrEqual(t, q05, s.PriceGrid[0])
		assert.LessOrEqual(t, q95, s.PriceGrid[len(s.PriceGrid)-1])
	}
}

func TestInterpolationCopiesBoundaryOutsideObservedRange(t *testing.T) {
	points := []dtePoint{
		{dte: 30, density: []float64{1, 2, 3}},
		{dte: 60, density: []float64{4, 5, 6}},
	}
	below := interpolateColumn(points, 10)
	above := interpolateColumn(points, 100)
	assert.Equal(t, points[0].density, below)
	assert.Equal(t, points[1].density, above)
}
