package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/esrnd/rnd-surface/internal/model"
)

// fakeSource is a minimal in-memory datasource.ChainSource used to drive
// the pipeline in tests without a real data provider.
type fakeSource struct {
	chain      model.Chain
	spot       float64
	spotOK     bool
	chainErr   error
}

func (f fakeSource) GetOptionChain(ctx context.Context, symbol string, tradeDate time.Time) (model.Chain, error) {
	if f.chainErr != nil {
		return model.Chain{}, f.chainErr
	}
	return f.chain, nil
}

func (f fakeSource) GetSpotPrice(ctx context.Context, symbol string, tradeDate time.Time) (float64, bool, error) {
	return f.spot, f.spotOK, nil
}

func (f fakeSource) GetAvailableExpiries(ctx context.Context, symbol string, tradeDate time.Time) ([]time.Time, error) {
	return f.chain.Expiries(), nil
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func bsCall(s, k, r, sigma, T float64) float64 {
	if T <= 0 {
		return math.Max(s-k, 0)
	}
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)
	return s*normCDF(d1) - k*math.Exp(-r*T)*normCDF(d2)
}

func bsPut(s, k, r, sigma, T float64) float64 {
	return bsCall(s, k, r, sigma, T) - s + k*math.Exp(-r*T)
}

// syntheticChain builds a liquid, well-behaved chain for one expiry with
// enough OTM strikes on both sides to clear the pipeline's minOTMRows
// guard, at a fixed DTE within the pipeline's default 30-180 day window.
func syntheticChain(tradeDate time.Time, dte int, spot, sigma float64) model.Chain {
	expiry := tradeDate.AddDate(0, 0, dte)
	r := 0.05
	T := float64(dte) / 365.0

	var quotes []model.OptionQuote
	for i := -20; i <= 20; i++ {
		k := spot * (1.0 + float64(i)*0.01)
		if k <= 0 {
			continue
		}
		callMid := bsCall(spot, k, r, sigma, T)
		putMid := bsPut(spot, k, r, sigma, T)
		quotes = append(quotes,
			model.OptionQuote{Strike: k, Right: model.Call, Bid: callMid * 0.98, Ask: callMid * 1.02, Volume: 100, OpenInterest: 1000, Expiry: expiry},
			model.OptionQuote{Strike: k, Right: model.Put, Bid: putMid * 0.98, Ask: putMid * 1.02, Volume: 100, OpenInterest: 1000, Expiry: expiry},
		)
	}
	return model.Chain{Symbol: "TEST", TradeDate: tradeDate, Quotes: quotes}
}

func TestRunFailsOnEmptyChain(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	src := fakeSource{chain: model.Chain{}}
	p := New(src, DefaultConfig(), nil)

	result, err := p.Run(context.Background(), "TEST", tradeDate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failed result, got success")
	}
	if len(result.Errors) == 0 || result.Errors[0] != "Empty chain returned" {
		t.Fatalf("expected 'Empty chain returned', got %v", result.Errors)
	}
}

func TestRunProducesRNDForLiquidChain(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	chain := syntheticChain(tradeDate, 60, 100, 0.2)
	src := fakeSource{chain: chain, spot: 100, spotOK: true}

	p := New(src, DefaultConfig(), nil)
	result, err := p.Run(context.Background(), "TEST", tradeDate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}
	if result.NumExpiries() != 1 {
		t.Fatalf("expected exactly 1 expiry result, got %d", result.NumExpiries())
	}
	rnd := result.RNDResults[0]
	if rnd.DataQuality == nil {
		t.Fatalf("expected DataQuality to be attached")
	}
}

func TestRunConcurrentMatchesSequentialOrdering(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	var quotes []model.OptionQuote
	for _, dte := range []int{45, 60, 90, 120} {
		quotes = append(quotes, syntheticChain(tradeDate, dte, 100, 0.2).Quotes...)
	}
	chain := model.Chain{Symbol: "TEST", TradeDate: tradeDate, Quotes: quotes}
	src := fakeSource{chain: chain, spot: 100, spotOK: true}

	seqCfg := DefaultConfig()
	seqCfg.Concurrent = false
	seq, err := New(src, seqCfg, nil).Run(context.Background(), "TEST", tradeDate, nil)
	if err != nil {
		t.Fatalf("sequential run error: %v", err)
	}

	concCfg := DefaultConfig()
	concCfg.Concurrent = true
	concCfg.MaxConcurrency = 2
	conc, err := New(src, concCfg, nil).Run(context.Background(), "TEST", tradeDate, nil)
	if err != nil {
		t.Fatalf("concurrent run error: %v", err)
	}

	if seq.NumExpiries() != conc.NumExpiries() {
		t.Fatalf("expiry count mismatch: sequential=%d concurrent=%d", seq.NumExpiries(), conc.NumExpiries())
	}
	for i := range seq.RNDResults {
		if !seq.RNDResults[i].Expiry.Equal(conc.RNDResults[i].Expiry) {
			t.Fatalf("expiry order mismatch at index %d: sequential=%v concurrent=%v", i, seq.RNDResults[i].Expiry, conc.RNDResults[i].Expiry)
		}
	}
}

func TestRunFailsWhenAllExpiriesTooThin(t *testing.T) {
	tradeDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	expiry := tradeDate.AddDate(0, 0, 60)
	quotes := []model.OptionQuote{
		{Strike: 100, Right: model.Call, Bid: 2, Ask: 2.1, Volume: 100, OpenInterest: 1000, Expiry: expiry},
		{Strike: 105, Right: model.Call, Bid: 1, Ask: 1.1, Volume: 100, OpenInterest: 1000, Expiry: expiry},
	}
	src := fakeSource{chain: model.Chain{Symbol: "TEST", TradeDate: tradeDate, Quotes: quotes}, spot: 100, spotOK: true}

	p := New(src, DefaultConfig(), nil)
	result, err := p.Run(context.Background(), "TEST", tradeDate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure for thin chain, got success with %d results", result.NumExpiries())
	}
}
