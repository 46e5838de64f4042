// Package datasource defines the capability the RND pipeline depends on
// for option-chain data, plus the concrete variants that implement it.
// The pipeline only ever depends on the ChainSource interface — never a
// concrete vendor — so swapping Synthetic for Replay or HTTP never
// touches pipeline code, the same capability-over-concrete-vendor pattern
// the teacher's own data provider interface follows.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
)

// ErrConfig is returned when a ChainSource is misconfigured (missing
// credential, unreachable fixture file, etc) at construction time.
var ErrConfig = errors.New("datasource: configuration error")

// ErrIO is returned when a ChainSource fails to retrieve data after
// construction succeeded (network failure, fixture read error, open
// circuit breaker).
var ErrIO = errors.New("datasource: io error")

// ChainSource is the capability the pipeline depends on for chain data.
// Implementations must be safe for concurrent use across expiries within
// a single Run call; they need not be safe across concurrent Run calls
// unless documented otherwise.
type ChainSource interface {
	GetOptionChain(ctx context.Context, symbol string, tradeDate time.Time) (model.Chain, error)
	GetSpotPrice(ctx context.Context, symbol string, tradeDate time.Time) (float64, bool, error)
	GetAvailableExpiries(ctx context.Context, symbol string, tradeDate time.Time) ([]time.Time, error)
}
