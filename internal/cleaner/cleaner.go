// Package cleaner filters a raw option chain down to valid, liquid quotes
// and builds the per-expiry out-of-the-money synthetic-call chain the rest
// of the RND pipeline consumes.
//
// Ported from the reference ChainCleaner (chain_cleaner.py): same filter
// order, same put-call-parity conversion, same quality-score weights.
package cleaner

import (
	"math"
	"sort"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
)

// Config holds the cleaner's configurable thresholds. Zero-value Config is
// not usable; construct via DefaultConfig and override fields as needed.
type Config struct {
	MinVolume      int64
	MinOpenInterest int64
	MaxSpreadPct   float64
	MinDTE         int
	MaxDTE         int
}

// DefaultConfig matches the documented defaults: min-volume=10,
// min-open-interest=100, max-spread-percent=20%, min-DTE=1, max-DTE=365.
func DefaultConfig() Config {
	return Config{
		MinVolume:       10,
		MinOpenInterest: 100,
		MaxSpreadPct:    0.20,
		MinDTE:          1,
		MaxDTE:          365,
	}
}

// Cleaner applies Config's filters to a raw chain and builds the OTM
// synthetic-call chain from the result.
type Cleaner struct {
	cfg Config
}

// New constructs a Cleaner with the given configuration.
func New(cfg Config) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Clean applies the documented filter sequence in order: invalid quotes,
// minimum volume, minimum open interest, maximum spread, and DTE window.
// It never panics or errors on empty input; an empty chain in produces an
// empty chain out.
func (c *Cleaner) Clean(chain model.Chain, tradeDate time.Time) model.Chain {
	if chain.Empty() {
		return chain
	}

	out := make([]model.OptionQuote, 0, len(chain.Quotes))
	for _, q := range chain.Quotes {
		mid := q.Mid()

		// (b) invalid quotes
		if q.Bid > q.Ask || q.Bid < 0 || q.Ask <= 0 {
			continue
		}
		// (c) minimum volume
		if c.cfg.MinVolume > 0 && q.Volume < c.cfg.MinVolume {
			continue
		}
		// (d) minimum open interest
		if c.cfg.MinOpenInterest > 0 && q.OpenInterest < c.cfg.MinOpenInterest {
			continue
		}
		// (e) maximum spread, relative to mid
		if c.cfg.MaxSpreadPct > 0 {
			if mid == 0 {
				continue
			}
			if (q.Ask-q.Bid)/mid > c.cfg.MaxSpreadPct {
				continue
			}
		}
		// (f) DTE window
		dte := daysBetween(tradeDate, q.Expiry)
		if dte < c.cfg.MinDTE || dte > c.cfg.MaxDTE {
			continue
		}

		out = append(out, q)
	}

	return model.Chain{Symbol: chain.Symbol, TradeDate: chain.TradeDate, Quotes: out}
}

func daysBetween(tradeDate, expiry time.Time) int {
	d := expiry.Sub(tradeDate)
	return int(math.Round(d.Hours() / 24))
}

// QualityMetrics is the per-expiry quality snapshot produced alongside the
// OTM chain, mirroring ChainQualityMetrics in the reference implementation.
type QualityMetrics struct {
	NumRaw           int
	NumAfterClean    int
	NumOTM           int
	NumCalls         int
	NumPutsSynthetic int
	Strikes          []float64
	Spot             float64
}

// StrikeRange returns (min, max) of Strikes.
func (q QualityMetrics) StrikeRange() (float64, float64) {
	if len(q.Strikes) == 0 {
		return 0, 0
	}
	lo, hi := q.Strikes[0], q.Strikes[0]
	for _, s := range q.Strikes {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}

// StrikeCoverage returns the strike range as a fraction of spot.
func (q QualityMetrics) StrikeCoverage() float64 {
	lo, hi := q.StrikeRange()
	if q.Spot == 0 {
		return 0
	}
	return (hi - lo) / q.Spot
}

// AvgStrikeGap and MaxStrikeGap summarize the spacing between sorted
// strikes; both are 0 for fewer than two strikes.
func (q QualityMetrics) AvgStrikeGap() float64 {
	gaps := sortedGaps(q.Strikes)
	if len(gaps) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range gaps {
		sum += g
	}
	return sum / float64(len(gaps))
}

func (q QualityMetrics) MaxStrikeGap() float64 {
	gaps := sortedGaps(q.Strikes)
	if len(gaps) == 0 {
		return 0
	}
	max := gaps[0]
	for _, g := range gaps[1:] {
		if g > max {
			max = g
		}
	}
	return max
}

func sortedGaps(strikes []float64) []float64 {
	if len(strikes) < 2 {
		return nil
	}
	sorted := append([]float64(nil), strikes...)
	sort.Float64s(sorted)
	gaps := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps[i-1] = sorted[i] - sorted[i-1]
	}
	return gaps
}

// MoneynessRange returns (min, max) of strike/spot.
func (q QualityMetrics) MoneynessRange() (float64, float64) {
	lo, hi := q.StrikeRange()
	if q.Spot == 0 {
		return 0, 0
	}
	return lo / q.Spot, hi / q.Spot
}

// QualityScore is the weighted blend of four [0,1] sub-scores:
// 0.3*n_score + 0.3*cov_score + 0.2*gap_score + 0.2*balance_score.
func (q QualityMetrics) QualityScore() float64 {
	nScore := math.Min(float64(q.NumOTM)/30.0, 1.0)
	covScore := math.Min(q.StrikeCoverage()/0.6, 1.0)
	gapScore := math.Max(0, 1.0-(q.MaxStrikeGap()-5.0)/45.0)

	balanceScore := 0.0
	if q.NumOTM > 0 {
		balance := float64(minInt(q.NumCalls, q.NumPutsSynthetic)) * 2.0 / float64(q.NumOTM)
		balanceScore = math.Min(balance, 1.0)
	}

	return 0.3*nScore + 0.3*covScore + 0.2*gapScore + 0.2*balanceScore
}

// ToDataQuality converts the internal metrics into the public model type
// attached to an RNDResult.
func (q QualityMetrics) ToDataQuality() model.DataQuality {
	lo, hi := q.StrikeRange()
	mLo, mHi := q.MoneynessRange()
	return model.DataQuality{
		NumRawOptions:    q.NumRaw,
		NumOTMOptions:    q.NumOTM,
		NumCalls:         q.NumCalls,
		NumPutsSynthetic: q.NumPutsSynthetic,
		StrikeMin:        lo,
		StrikeMax:        hi,
		StrikeCoverage:   q.StrikeCoverage(),
		AvgStrikeGap:     q.AvgStrikeGap(),
		MaxStrikeGap:     q.MaxStrikeGap(),
		MoneynessMin:     mLo,
		MoneynessMax:     mHi,
		QualityScore:     q.QualityScore(),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// BuildOTMChain builds the OTM synthetic-call chain from a cleaned chain:
// OTM calls (K > spot) are used directly; OTM puts (K < spot) are converted
// to synthetic calls via put-call parity; ATM-band calls are added back if
// their strike isn't already present. Returns the OTM rows (sorted by
// expiry, strike) and a quality-metrics map keyed by expiry.
//
// Requires that chain has already been through Clean (so DTE is knowable
// per quote); an empty chain produces empty outputs, never an error.
func (c *Cleaner) BuildOTMChain(chain model.Chain, spot float64, r float64) ([]model.OTMRow, map[time.Time]QualityMetrics) {
	if chain.Empty() {
		return nil, map[time.Time]QualityMetrics{}
	}

	byExpiry := make(map[time.Time][]model.OptionQuote)
	for _, q := range chain.Quotes {
		byExpiry[q.Expiry] = append(byExpiry[q.Expiry], q)
	}

	var allRows []model.OTMRow
	quality := make(map[time.Time]QualityMetrics)

	for expiry, quotes := range byExpiry {
		dte := daysBetween(chain.TradeDate, expiry)
		T := float64(dte) / 365.0

		var expiryRows []model.OTMRow
		numCalls, numPuts := 0, 0

		// OTM calls: K > spot
		for _, q := range quotes {
			if q.Right == model.Call && q.Strike > spot {
				expiryRows = append(expiryRows, model.OTMRow{
					Expiry: expiry, Strike: q.Strike, Mid: q.Mid(), Source: model.SourceCall,
				})
				numCalls++
			}
		}

		// OTM puts: K < spot, converted via put-call parity
		discount := math.Exp(-r * T)
		for _, q := range quotes {
			if q.Right == model.Put && q.Strike < spot {
				synth := q.Mid() + spot - q.Strike*discount
				if synth > 0 {
					expiryRows = append(expiryRows, model.OTMRow{
						Expiry: expiry, Strike: q.Strike, Mid: synth, Source: model.SourcePutSynthetic,
					})
					numPuts++
				}
			}
		}

		// ATM-band calls: add back only if that strike isn't already present.
		lowBand, highBand := spot*0.99, spot*1.01
		for _, q := range quotes {
			if q.Right != model.Call || q.Strike < lowBand || q.Strike > highBand {
				continue
			}
			already := false
			for _, row := range expiryRows {
				if row.Strike == q.Strike {
					already = true
					break
				}
			}
			if !already {
				expiryRows = append(expiryRows, model.OTMRow{
					Expiry: expiry, Strike: q.Strike, Mid: q.Mid(), Source: model.SourceCall,
				})
				numCalls++
			}
		}

		if len(expiryRows) == 0 {
			continue
		}

		strikes := make([]float64, len(expiryRows))
		for i, row := range expiryRows {
			strikes[i] = row.Strike
		}
		quality[expiry] = QualityMetrics{
			NumRaw:           len(quotes),
			NumAfterClean:    len(quotes),
			NumOTM:           len(expiryRows),
			NumCalls:         numCalls,
			NumPutsSynthetic: numPuts,
			Strikes:          strikes,
			Spot:             spot,
		}

		allRows = append(allRows, expiryRows...)
	}

	sort.SliceStable(allRows, func(i, j int) bool {
		if !allRows[i].Expiry.Equal(allRows[j].Expiry) {
			return allRows[i].Expiry.Before(allRows[j].Expiry)
		}
		return allRows[i].Strike < allRows[j].Strike
	})

	// Dedup on (expiry, strike), keeping the first occurrence. Calls are
	// appended before synthetic puts within an expiry, and the stable sort
	// above keeps that insertion order among rows with equal (expiry,
	// strike), so the call wins.
	allRows = dedupKeepFirst(allRows)

	return allRows, quality
}

// dedupKeepFirst removes rows sharing (expiry, strike), keeping whichever
// occurred first among rows with that key in the input order. Input is
// assumed sorted by (expiry, strike) only for grouping purposes; a stable
// partition preserves relative order of equal-key rows, so the source
// emitted first (call, per BuildOTMChain's insertion order) wins.
func dedupKeepFirst(rows []model.OTMRow) []model.OTMRow {
	type key struct {
		expiry int64
		strike float64
	}
	seen := make(map[key]bool, len(rows))
	out := make([]model.OTMRow, 0, len(rows))
	for _, row := range rows {
		k := key{expiry: row.Expiry.UnixNano(), strike: row.Strike}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}
