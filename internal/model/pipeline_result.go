package model

import (
	"time"

	"github.com/google/uuid"
)

// PipelineResult is the output of a full RND pipeline run for one
// (symbol, trade_date) pair: the ordered, per-expiry RND results, the
// smoothing fit behind each one, and a success flag with accumulated
// error/warning strings.
//
// The PipelineResult exclusively owns every RNDResult and SmoothingResult
// it holds; nothing else in the system mutates them after Run returns.
type PipelineResult struct {
	RunID       uuid.UUID
	Symbol      string
	TradeDate   time.Time
	RNDResults  []RNDResult
	Smoothing   map[time.Time]SmoothingResult
	Success     bool
	Errors      []string
}

// NumExpiries returns the number of expiries with a successfully extracted
// RND result.
func (p PipelineResult) NumExpiries() int {
	return len(p.RNDResults)
}
