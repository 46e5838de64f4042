package model

import (
	"testing"

	tests "github.com/esrnd/rnd-surface/internal/testutil"
)

func TestDataQualityGolden(t *testing.T) {
	q := DataQuality{
		NumRawOptions:    120,
		NumOTMOptions:    80,
		NumCalls:         45,
		NumPutsSynthetic: 35,
		StrikeMin:        400,
		StrikeMax:        500,
		StrikeCoverage:   0.22,
		AvgStrikeGap:     2.5,
		MaxStrikeGap:     5,
		MoneynessMin:     0.8,
		MoneynessMax:     1.2,
		QualityScore:     0.85,
	}
	tests.CompareWithGolden(t, "quality", q)
}

func TestQualityLabelBuckets(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.95, "HIGH"},
		{0.8, "HIGH"},
		{0.6, "MEDIUM"},
		{0.5, "MEDIUM"},
		{0.1, "LOW"},
	}
	for _, c := range cases {
		got := DataQuality{QualityScore: c.score}.QualityLabel()
		if got != c.want {
			t.Errorf("QualityLabel(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}
