// Command rndsurface runs the RND extraction pipeline for one symbol/trade
// date against a configured ChainSource and writes the resulting
// per-expiry densities and assembled surface as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/esrnd/rnd-surface/internal/config"
	"github.com/esrnd/rnd-surface/internal/pipeline"
	"github.com/esrnd/rnd-surface/internal/report"
	"github.com/esrnd/rnd-surface/internal/surface"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults built in if omitted)")
	symbol := flag.String("symbol", "SPY", "underlying symbol")
	tradeDateStr := flag.String("trade-date", "", "trade date YYYY-MM-DD (defaults to today)")
	outDir := flag.String("out", "out", "directory to write result JSON into")
	heatmap := flag.Bool("heatmap", false, "also assemble a one-day-per-column heatmap surface")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	tradeDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *tradeDateStr != "" {
		tradeDate, err = time.Parse("2006-01-02", *tradeDateStr)
		if err != nil {
			log.Fatalf("invalid -trade-date %q: %v", *tradeDateStr, err)
		}
	}

	source, err := cfg.DataSource.BuildSource(cfg.Pipeline.RiskFreeRate)
	if err != nil {
		log.Fatalf("constructing data source: %v", err)
	}
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	metrics, err := pipeline.NewMetrics(nil)
	if err != nil {
		log.Fatalf("constructing metrics: %v", err)
	}

	p := pipeline.New(source, cfg.Pipeline.ToPipelineConfig(), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := p.Run(ctx, *symbol, tradeDate, nil)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}
	log.Printf("[done] run %s: %d expiries extracted in %v (%d errors)",
		result.RunID, result.NumExpiries(), time.Since(start), len(result.Errors))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating output dir %s: %v", *outDir, err)
	}

	if err := report.WriteJSON(result, *outDir); err != nil {
		log.Fatalf("writing RND result: %v", err)
	}
	if err := report.WriteSummaryCSV(result.RNDResults, *outDir); err != nil {
		log.Fatalf("writing RND summary: %v", err)
	}

	if len(result.RNDResults) > 0 {
		surf, err := surface.Build3D(result.RNDResults, tradeDate, surface.DefaultConfig())
		if err != nil {
			log.Printf("[warn] surface assembly failed: %v", err)
		} else if err := writeJSON(filepath.Join(*outDir, "surface_3d.json"), surf); err != nil {
			log.Fatalf("writing 3d surface: %v", err)
		}

		if *heatmap {
			hm, err := surface.BuildHeatmap(result.RNDResults, tradeDate, surface.HeatmapDefaultConfig())
			if err != nil {
				log.Printf("[warn] heatmap assembly failed: %v", err)
			} else if err := writeJSON(filepath.Join(*outDir, "surface_heatmap.json"), hm); err != nil {
				log.Fatalf("writing heatmap surface: %v", err)
			}
		}
	}
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
