package model

import "time"

// Surface is a strike x DTE grid of risk-neutral densities assembled from
// several single-expiry RNDResults sharing a trade date and spot, plus the
// quantile bands (q05/q25/q50/q75/q95) of each day column.
//
// Surface is derived data: it owns no input RNDResult or SmoothingResult.
type Surface struct {
	TradeDate time.Time
	SpotPrice float64

	// PriceGrid is the strike axis, length M.
	PriceGrid []float64

	// DayGrid is the DTE axis (calendar days from TradeDate), length H+1.
	DayGrid []float64

	// Density is the M x len(DayGrid) matrix, indexed Density[priceIdx][dayIdx].
	Density [][]float64

	// Quantiles maps each requested probability to its series over DayGrid,
	// one value per day column.
	Quantiles map[float64][]float64
}
