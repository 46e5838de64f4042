// Package pipeline orchestrates a single (symbol, trade date) RND
// extraction run: fetch the chain, clean it, build the OTM chain, then
// fit/check/extract per expiry with each expiry's failure isolated from
// the rest.
//
// Ported from the reference's build_rnd_pipeline.py: same step order, same
// empty-chain/empty-OTM-chain/no-RNDs-extracted failure points, same
// per-expiry isolation (one bad expiry never aborts the run).
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/esrnd/rnd-surface/internal/arbitrage"
	"github.com/esrnd/rnd-surface/internal/cleaner"
	"github.com/esrnd/rnd-surface/internal/datasource"
	"github.com/esrnd/rnd-surface/internal/extractor"
	"github.com/esrnd/rnd-surface/internal/logger"
	"github.com/esrnd/rnd-surface/internal/model"
	"github.com/esrnd/rnd-surface/internal/smoother"
	"github.com/google/uuid"
)

// Config aggregates every per-stage config the pipeline wires together,
// plus the pipeline's own defaults (which differ from the cleaner
// package's standalone defaults: a pipeline run narrows the DTE window to
// 30-180 days by default, favoring mid-curve expiries over the cleaner's
// permissive 1-365 day range).
type Config struct {
	RiskFreeRate float64

	MinDTE          int
	MaxDTE          int
	MinVolume       int64
	MinOpenInterest int64
	MaxSpreadPct    float64

	SmoothingFactor *float64
	NumPoints       int

	MonotonicityTol float64
	ConvexityTol    float64

	// Concurrent enables per-expiry fan-out via errgroup. MaxConcurrency
	// bounds how many expiries are processed at once; ignored when
	// Concurrent is false.
	Concurrent     bool
	MaxConcurrency int
}

// DefaultConfig matches the documented pipeline-level defaults.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:    0.05,
		MinDTE:          30,
		MaxDTE:          180,
		MinVolume:       10,
		MinOpenInterest: 100,
		MaxSpreadPct:    0.20,
		NumPoints:       500,
		MonotonicityTol: 1e-6,
		ConvexityTol:    -1e-6,
		Concurrent:      false,
		MaxConcurrency:  4,
	}
}

// minOTMRows is the minimum number of OTM rows an expiry needs before the
// pipeline even attempts a fit; below this it's skipped silently rather
// than surfaced as an INSUFFICIENT_DATA error, since it's the expected
// shape of a chain's thin tails rather than a data problem.
const minOTMRows = 10

// Pipeline runs a single chain through clean -> OTM -> {fit, check,
// extract} per expiry.
type Pipeline struct {
	source  datasource.ChainSource
	cleaner *cleaner.Cleaner
	metrics *Metrics
	cfg     Config
}

// New constructs a Pipeline against the given ChainSource. metrics may be
// nil to disable instrumentation.
func New(source datasource.ChainSource, cfg Config, metrics *Metrics) *Pipeline {
	cleanerCfg := cleaner.Config{
		MinVolume:       cfg.MinVolume,
		MinOpenInterest: cfg.MinOpenInterest,
		MaxSpreadPct:    cfg.MaxSpreadPct,
		MinDTE:          cfg.MinDTE,
		MaxDTE:          cfg.MaxDTE,
	}
	return &Pipeline{
		source:  source,
		cleaner: cleaner.New(cleanerCfg),
		metrics: metrics,
		cfg:     cfg,
	}
}

// Run executes one (symbol, tradeDate) pipeline run. spotOverride, when
// non-nil, takes priority over the data source's own spot quote.
func (p *Pipeline) Run(ctx context.Context, symbol string, tradeDate time.Time, spotOverride *float64) (model.PipelineResult, error) {
	runID := uuid.New()
	result := model.PipelineResult{RunID: runID, Symbol: symbol, TradeDate: tradeDate}
	log := logger.Run(runID.String())

	chain, err := p.source.GetOptionChain(ctx, symbol, tradeDate)
	if err != nil || chain.Empty() {
		log.Errorf("empty chain for %s %s: %v", symbol, tradeDate.Format("2006-01-02"), err)
		result.Errors = append(result.Errors, "Empty chain returned")
		return result, nil
	}
	log.Infof("fetched chain for %s %s: %d quotes", symbol, tradeDate.Format("2006-01-02"), len(chain.Quotes))

	spot, err := p.resolveSpot(ctx, symbol, tradeDate, chain, spotOverride)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	cleaned := p.cleaner.Clean(chain, tradeDate)
	if cleaned.Empty() {
		result.Errors = append(result.Errors, "Cleaned chain is empty")
		return result, nil
	}

	otmRows, quality := p.cleaner.BuildOTMChain(cleaned, spot, p.cfg.RiskFreeRate)
	if len(otmRows) == 0 {
		result.Errors = append(result.Errors, "OTM chain is empty")
		return result, nil
	}

	byExpiry := make(map[time.Time][]model.OTMRow)
	for _, row := range otmRows {
		byExpiry[row.Expiry] = append(byExpiry[row.Expiry], row)
	}
	expiries := make([]time.Time, 0, len(byExpiry))
	for e := range byExpiry {
		expiries = append(expiries, e)
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Before(expiries[j]) })

	outcomes := p.processExpiries(ctx, symbol, tradeDate, spot, expiries, byExpiry, quality)

	smoothing := make(map[time.Time]model.SmoothingResult, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if o.err != nil {
			result.Errors = append(result.Errors, o.err.Error())
			continue
		}
		if o.warning != "" {
			result.Errors = append(result.Errors, o.warning)
		}
		result.RNDResults = append(result.RNDResults, o.rnd)
		smoothing[o.expiry] = o.fit
	}
	result.Smoothing = smoothing

	if len(result.RNDResults) == 0 {
		result.Errors = append(result.Errors, "No RNDs extracted")
		return result, nil
	}

	result.Success = true
	p.recordQualitySummary(quality)
	return result, nil
}

type expiryOutcome struct {
	expiry  time.Time
	fit     model.SmoothingResult
	rnd     model.RNDResult
	warning string
	err     error
}

// processExpiries runs the fit/check/extract sequence for each expiry,
// either sequentially or via a bounded errgroup fan-out. Every per-expiry
// failure is captured into the returned outcome slot rather than
// propagated as a group error: an errgroup abort on first error would
// violate per-expiry isolation, so each worker always returns nil to the
// group and records its own outcome by index.
func (p *Pipeline) processExpiries(ctx context.Context, symbol string, tradeDate time.Time, spot float64, expiries []time.Time, byExpiry map[time.Time][]model.OTMRow, quality map[time.Time]cleaner.QualityMetrics) []*expiryOutcome {
	outcomes := make([]*expiryOutcome, len(expiries))

	process := func(i int) {
		if ctx.Err() != nil {
			return
		}
		expiry := expiries[i]
		rows := byExpiry[expiry]
		if len(rows) < minOTMRows {
			return
		}
		outcomes[i] = p.processOneExpiry(symbol, tradeDate, spot, expiry, rows, quality[expiry])
	}

	if !p.cfg.Concurrent {
		for i := range expiries {
			process(i)
		}
		return outcomes
	}

	g, _ := errgroup.WithContext(ctx)
	concurrency := p.cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	for i := range expiries {
		i := i
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			process(i)
			return nil
		})
	}
	_ = g.Wait() // workers never return a non-nil error; see comment above
	return outcomes
}

func (p *Pipeline) processOneExpiry(symbol string, tradeDate time.Time, spot float64, expiry time.Time, rows []model.OTMRow, q cleaner.QualityMetrics) *expiryOutcome {
	start := time.Now()

	strikes := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	for i, row := range rows {
		strikes[i] = row.Strike
		prices[i] = row.Mid
	}

	sm := smoother.New(smoother.Config{SmoothingFactor: p.cfg.SmoothingFactor})
	fit, err := sm.Fit(strikes, prices, spot)
	if err != nil {
		return &expiryOutcome{expiry: expiry, err: fmt.Errorf("%s: %w", expiry.Format("2006-01-02"), err)}
	}

	checker := arbitrage.New(arbitrage.Config{
		GridPoints: 200,
		TauMono:    p.cfg.MonotonicityTol,
		TauConv:    p.cfg.ConvexityTol,
	})
	report := checker.Check(fit)
	warning := ""
	if !report.Valid {
		p.metrics.recordArbitrageViolation()
		warning = fmt.Sprintf("%s: arbitrage violations: %d (monotone_ok=%v convex_ok=%v)", expiry.Format("2006-01-02"), report.NumViolations, report.MonotoneOK, report.ConvexOK)
	}

	ext := extractor.New(extractor.Config{RiskFreeRate: p.cfg.RiskFreeRate, GridPoints: p.cfg.NumPoints})
	dq := q.ToDataQuality()
	rnd, err := ext.Extract(fit, expiry, tradeDate, &dq)
	if err != nil {
		return &expiryOutcome{expiry: expiry, err: fmt.Errorf("%s: %w", expiry.Format("2006-01-02"), err)}
	}

	p.metrics.observeExtraction(symbol, time.Since(start))
	return &expiryOutcome{expiry: expiry, fit: fit, rnd: rnd, warning: warning}
}

func (p *Pipeline) resolveSpot(ctx context.Context, symbol string, tradeDate time.Time, chain model.Chain, override *float64) (float64, error) {
	if override != nil && *override > 0 {
		return *override, nil
	}
	spot, ok, err := p.source.GetSpotPrice(ctx, symbol, tradeDate)
	if err == nil && ok && spot > 0 {
		return spot, nil
	}
	proxy := chain.MedianStrike()
	if proxy <= 0 {
		return 0, fmt.Errorf("pipeline: no spot price available and chain has no usable strikes")
	}
	return proxy, nil
}

func (p *Pipeline) recordQualitySummary(quality map[time.Time]cleaner.QualityMetrics) {
	if len(quality) == 0 {
		return
	}
	sum := 0.0
	for _, q := range quality {
		sum += q.QualityScore()
	}
	p.metrics.setLastRunQuality(sum / float64(len(quality)))
}
