// Package model holds the data types shared across the RND pipeline stages:
// the raw option chain, the OTM synthetic-call chain, smoothing and RND
// results, data-quality metrics, and the assembled surface. Stage packages
// (cleaner, smoother, arbitrage, extractor, pipeline, surface) all import
// model; model imports nothing from them, so there is no cycle.
package model

import (
	"sort"
	"time"
)

// Right identifies whether a quote is a call or a put.
type Right int

const (
	Call Right = iota
	Put
)

func (r Right) String() string {
	if r == Call {
		return "C"
	}
	return "P"
}

// OptionQuote is one row of a listed option contract on a trade date.
type OptionQuote struct {
	UnderlyingSymbol string
	ContractSymbol   string
	Expiry           time.Time
	Strike           float64
	Right            Right
	Bid              float64
	Ask              float64
	Last             float64
	Volume           int64
	OpenInterest     int64

	// IV and Greeks are optional and carried through unvalidated; the RND
	// core never reads them, but downstream consumers of a Chain may.
	IV    *float64
	Delta *float64
	Gamma *float64
	Theta *float64
	Vega  *float64
}

// Mid returns the midpoint of bid/ask.
func (q OptionQuote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Chain is an ordered set of quotes sharing a trade date.
type Chain struct {
	Symbol    string
	TradeDate time.Time
	Quotes    []OptionQuote
}

// Empty reports whether the chain has no quotes.
func (c Chain) Empty() bool {
	return len(c.Quotes) == 0
}

// Sort orders the chain's quotes by (expiry ascending, strike ascending,
// right), the canonical sort key from the data model.
func (c Chain) Sort() {
	sort.SliceStable(c.Quotes, func(i, j int) bool {
		a, b := c.Quotes[i], c.Quotes[j]
		if !a.Expiry.Equal(b.Expiry) {
			return a.Expiry.Before(b.Expiry)
		}
		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}
		return a.Right < b.Right
	})
}

// Expiries returns the distinct expiry dates present in the chain, sorted
// ascending.
func (c Chain) Expiries() []time.Time {
	seen := make(map[int64]time.Time)
	for _, q := range c.Quotes {
		seen[q.Expiry.UnixNano()] = q.Expiry
	}
	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// MedianStrike returns the median strike of the chain, used as an
// emergency spot-price proxy when no spot is available from the data
// source. Returns 0 for an empty chain.
func (c Chain) MedianStrike() float64 {
	if len(c.Quotes) == 0 {
		return 0
	}
	strikes := make([]float64, len(c.Quotes))
	for i, q := range c.Quotes {
		strikes[i] = q.Strike
	}
	sort.Float64s(strikes)
	n := len(strikes)
	if n%2 == 1 {
		return strikes[n/2]
	}
	return (strikes[n/2-1] + strikes[n/2]) / 2
}

// Source identifies how an OTMRow's synthetic-call price was derived.
type Source int

const (
	SourceCall Source = iota
	SourcePutSynthetic
)

func (s Source) String() string {
	if s == SourceCall {
		return "call"
	}
	return "put_synthetic"
}

// OTMRow is one (expiry, strike) entry in the OTM synthetic-call chain.
type OTMRow struct {
	Expiry time.Time
	Strike float64
	Mid    float64
	Source Source
}
