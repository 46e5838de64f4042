package pricing

import (
	"math"
)

// BlackScholesPrice calculates the price of a European option using the Black-Scholes model.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	The theoretical price of the option. If time to expiry or volatility is zero or negative,
//	returns the intrinsic value of the option.
//
// Note: This implementation uses the standard Black-Scholes formula for European options
// and relies on normCDF for the cumulative standard normal distribution function.
func BlackScholesPrice(
	isCall bool,
	S float64, // spot
	K float64, // strike
	T float64, // time to expiry in years
	r float64, // risk-free rate
	sigma float64, // volatility
) float64 {

	if T <= 0 || sigma <= 0 {
		if isCall {
			return math.Max(0, S-K) // intrinsic fallback
		}
		return math.Max(0, K-S)
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	if isCall {
		return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	}
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
}

// normCDF computes the cumulative distribution function of the standard normal distribution
// for a given value x using the error function approximation.
// It returns a value between 0 and 1 representing the probability that a standard normal
// random variable is less than or equal to x.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// SkewedVol applies a linear volatility skew around the at-the-money
// point: moneyness below 1 (puts/downside strikes) gets progressively
// higher implied vol than moneyness above 1, the shape a synthetic chain
// generator needs to produce a non-trivial (non-lognormal) risk-neutral
// density for testing the smoother and extractor against something other
// than a flat-vol curve.
//
// moneyness is K/S; atmVol is the vol at moneyness 1; skewPerUnit is the
// vol added per unit of (1-moneyness), so skewPerUnit=0.1 means a 10-delta
// put (moneyness ~0.9) trades about 1 vol point above ATM.
func SkewedVol(moneyness, atmVol, skewPerUnit float64) float64 {
	v := atmVol + skewPerUnit*(1-moneyness)
	if v < 0.01 {
		v = 0.01
	}
	return v
}
