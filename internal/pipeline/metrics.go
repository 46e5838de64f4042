package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus instrumentation for pipeline runs: per-expiry
// extraction latency, a running count of arbitrage violations, and the
// mean quality score of the most recent run. A nil *Metrics is valid and
// every method on it is a no-op, so callers that don't want metrics never
// need a registry.
type Metrics struct {
	extractionDuration *prometheus.HistogramVec
	arbitrageTotal      prometheus.Counter
	lastRunQuality      prometheus.Gauge
}

// NewMetrics registers pipeline metrics against registry and returns a
// *Metrics. Pass a nil registry to get a non-nil *Metrics whose Register
// step is skipped but whose observations are still tracked in-process
// (useful for tests that want to assert on values without exposing them).
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		extractionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rndsurface",
			Subsystem: "pipeline",
			Name:      "expiry_extraction_seconds",
			Help:      "Latency of extracting one expiry's RND, from fit through moments.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
		arbitrageTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rndsurface",
			Subsystem: "pipeline",
			Name:      "arbitrage_violations_total",
			Help:      "Count of expiries whose fitted curve failed the monotonicity or convexity audit.",
		}),
		lastRunQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rndsurface",
			Subsystem: "pipeline",
			Name:      "last_run_mean_quality_score",
			Help:      "Mean per-expiry data-quality score of the most recently completed run.",
		}),
	}

	if registry == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.extractionDuration, m.arbitrageTotal, m.lastRunQuality} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeExtraction(symbol string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractionDuration.WithLabelValues(symbol).Observe(d.Seconds())
}

func (m *Metrics) recordArbitrageViolation() {
	if m == nil {
		return
	}
	m.arbitrageTotal.Inc()
}

func (m *Metrics) setLastRunQuality(mean float64) {
	if m == nil {
		return
	}
	m.lastRunQuality.Set(mean)
}
