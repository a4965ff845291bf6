package undo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments an undo stack.
type Metrics struct {
	operations   *prometheus.CounterVec
	transactions *prometheus.CounterVec
	failures     prometheus.Counter
	depth        prometheus.Gauge
	replay       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refgraph",
			Subsystem: "undo",
			Name:      "operations_total",
			Help:      "Undo log activity by kind (push, undo, redo).",
		}, []string{"kind"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refgraph",
			Subsystem: "undo",
			Name:      "transactions_total",
			Help:      "Finished transactions by outcome (commit, empty, rollback).",
		}, []string{"outcome"}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "refgraph",
			Subsystem: "undo",
			Name:      "replay_failures_total",
			Help:      "Errors raised by operations while undoing or redoing.",
		}),
		depth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "refgraph",
			Subsystem: "undo",
			Name:      "depth",
			Help:      "Number of steps that can currently be undone.",
		}),
		replay: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "refgraph",
			Subsystem: "undo",
			Name:      "replay_duration_seconds",
			Help:      "Time spent undoing or redoing one step.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
	}
}

func (m *Metrics) operation(kind string) {
	if m != nil {
		m.operations.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) transaction(outcome string) {
	if m != nil {
		m.transactions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) failure() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) setDepth(n int) {
	if m != nil {
		m.depth.Set(float64(n))
	}
}

func (m *Metrics) observeReplay(kind string, seconds float64) {
	if m != nil {
		m.replay.WithLabelValues(kind).Observe(seconds)
	}
}
