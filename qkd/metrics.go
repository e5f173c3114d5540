package qkd

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "qkd"
	metricsSubsystem = "pipeline"
)

// Metrics records pipeline runs. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	bitsTotal     *prometheus.CounterVec
	mismatchRate  prometheus.Histogram
	chshValue     prometheus.Gauge
	residualTotal prometheus.Counter
	runDuration   prometheus.Histogram
}

// NewMetrics registers pipeline metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			// outcome: completed/aborted/failed
			[]string{"outcome"},
		),
		bitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "bits_total",
				Help:      "Total number of key bits seen at each stage",
			},
			// stage: sent/sifted/final
			[]string{"stage"},
		),
		mismatchRate: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "mismatch_rate",
				Help:      "Spot-check mismatch rate per run",
				Buckets:   prometheus.LinearBuckets(0, 0.05, 11),
			},
		),
		chshValue: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "chsh_value",
				Help:      "CHSH value of the most recent entangled run",
			},
		),
		residualTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "residual_mismatches_total",
				Help:      "Total number of mismatches left after reconciliation",
			},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) observe(res Result, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(took.Seconds())
	switch {
	case err == nil:
		m.runsTotal.WithLabelValues("completed").Inc()
	case errors.Is(err, ErrRiskSaturated):
		m.runsTotal.WithLabelValues("aborted").Inc()
	default:
		m.runsTotal.WithLabelValues("failed").Inc()
		return
	}
	m.bitsTotal.WithLabelValues("sent").Add(float64(res.Stats.BitsSent))
	m.bitsTotal.WithLabelValues("sifted").Add(float64(res.Stats.BitsSifted))
	m.bitsTotal.WithLabelValues("final").Add(float64(res.Stats.BitsFinal))
	m.mismatchRate.Observe(res.Estimate.Rate)
	if res.CHSH != nil {
		m.chshValue.Set(res.CHSH.S)
	}
	m.residualTotal.Add(float64(res.Stats.ResidualMismatches))
}
