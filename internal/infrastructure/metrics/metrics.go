package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records ledger operation outcomes. A nil *Metrics is a valid no-op.
type Metrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
	value   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_escrow",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome code.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loan_escrow",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		value: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_escrow",
			Name:      "custody_value_total",
			Help:      "Value moved through custody by direction.",
		}, []string{"direction"}),
	}
	reg.MustRegister(m.ops, m.latency, m.value)
	return m
}

// Observe records one finished operation. outcome is "ok" or an error code.
func (m *Metrics) Observe(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddValue(direction string, v float64) {
	if m == nil {
		return
	}
	m.value.WithLabelValues(direction).Add(v)
}
