// Package report writes a pipeline run's results to disk: the full
// PipelineResult as indented JSON, and a flat per-expiry summary (moments,
// quality score) as CSV for quick inspection without a JSON viewer.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/esrnd/rnd-surface/internal/model"
)

// WriteJSON writes the full PipelineResult, indented, to
// outdir/rnd_result.json.
func WriteJSON(res model.PipelineResult, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "rnd_result.json"), b, 0644)
}

// WriteSummaryCSV writes one row per extracted expiry to
// outdir/rnd_summary.csv: expiry, time to expiry, moments, and the
// data-quality score/label feeding the extraction.
func WriteSummaryCSV(results []model.RNDResult, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "rnd_summary.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"expiry", "time_to_expiry_years", "spot", "mean", "std", "skewness", "kurtosis", "quality_score", "quality_label"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, r := range results {
		qualityScore := ""
		qualityLabel := ""
		if r.DataQuality != nil {
			qualityScore = fmt.Sprintf("%.4f", r.DataQuality.QualityScore)
			qualityLabel = r.DataQuality.QualityLabel()
		}
		row := []string{
			r.Expiry.Format("2006-01-02"),
			fmt.Sprintf("%.6f", r.TimeToExpiry),
			fmt.Sprintf("%.2f", r.SpotPrice),
			fmt.Sprintf("%.4f", r.Mean),
			fmt.Sprintf("%.4f", r.Std),
			fmt.Sprintf("%.4f", r.Skewness),
			fmt.Sprintf("%.4f", r.Kurtosis),
			qualityScore,
			qualityLabel,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
