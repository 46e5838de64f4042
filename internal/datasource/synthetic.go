package datasource

import (
	"context"
	"math/rand"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
	"github.com/esrnd/rnd-surface/internal/pricing"
)

// Synthetic generates a Black-Scholes-priced option chain with a linear
// volatility skew, for tests and demos that need a realistic-shaped chain
// without a live data source. Ported from the teacher's synthDataProvider
// (internal/data/synthetic.go), generalized from equity bars to option
// chains: where the teacher fabricates a random walk of daily bars, this
// fabricates a full strike/expiry grid of option quotes priced off one
// spot.
type Synthetic struct {
	Spot        float64
	ATMVol      float64
	SkewPerUnit float64
	RiskFreeRate float64
	Expiries    []int // DTEs, e.g. []int{30, 60, 90}
	rng         *rand.Rand
}

// NewSynthetic constructs a Synthetic source. A zero-value Expiries
// defaults to 30/60/90 day chains.
func NewSynthetic(spot, atmVol, skewPerUnit, r float64, expiries []int) *Synthetic {
	if len(expiries) == 0 {
		expiries = []int{30, 60, 90}
	}
	return &Synthetic{
		Spot:         spot,
		ATMVol:       atmVol,
		SkewPerUnit:  skewPerUnit,
		RiskFreeRate: r,
		Expiries:     expiries,
		rng:          rand.New(rand.NewSource(1)),
	}
}

func (s *Synthetic) GetOptionChain(ctx context.Context, symbol string, tradeDate time.Time) (model.Chain, error) {
	var quotes []model.OptionQuote
	for _, dte := range s.Expiries {
		expiry := tradeDate.AddDate(0, 0, dte)
		T := float64(dte) / 365.0
		for i := -30; i <= 30; i++ {
			k := s.Spot * (1.0 + float64(i)*0.01)
			if k <= 0 {
				continue
			}
			moneyness := k / s.Spot
			vol := pricing.SkewedVol(moneyness, s.ATMVol, s.SkewPerUnit)
			call := pricing.BlackScholesPrice(true, s.Spot, k, T, s.RiskFreeRate, vol)
			put := pricing.BlackScholesPrice(false, s.Spot, k, T, s.RiskFreeRate, vol)
			spread := 0.02 // bid/ask at -/+2% of price (4% of mid), tight enough to clear the default max-spread filter

			quotes = append(quotes,
				model.OptionQuote{
					UnderlyingSymbol: symbol,
					Strike:           k,
					Right:            model.Call,
					Bid:              call * (1 - spread),
					Ask:              call * (1 + spread),
					Volume:           100 + int64(s.rng.Intn(400)),
					OpenInterest:     500 + int64(s.rng.Intn(2000)),
					Expiry:           expiry,
				},
				model.OptionQuote{
					UnderlyingSymbol: symbol,
					Strike:           k,
					Right:            model.Put,
					Bid:              put * (1 - spread),
					Ask:              put * (1 + spread),
					Volume:           100 + int64(s.rng.Intn(400)),
					OpenInterest:     500 + int64(s.rng.Intn(2000)),
					Expiry:           expiry,
				},
			)
		}
	}
	return model.Chain{Symbol: symbol, TradeDate: tradeDate, Quotes: quotes}, nil
}

func (s *Synthetic) GetSpotPrice(ctx context.Context, symbol string, tradeDate time.Time) (float64, bool, error) {
	return s.Spot, true, nil
}

func (s *Synthetic) GetAvailableExpiries(ctx context.Context, symbol string, tradeDate time.Time) ([]time.Time, error) {
	out := make([]time.Time, len(s.Expiries))
	for i, dte := range s.Expiries {
		out[i] = tradeDate.AddDate(0, 0, dte)
	}
	return out, nil
}
