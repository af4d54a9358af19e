package sqlite

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "streck"

type metrics struct {
	statements   *prometheus.CounterVec
	duration     prometheus.Histogram
	transactions *prometheus.CounterVec
	state        prometheus.Gauge
}

// newMetrics creates the database collectors and registers them on reg.
// A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "statements_total",
			Help:      "Statements executed, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "statement_duration_seconds",
			Help:      "Time spent executing a single statement.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "transactions_total",
			Help:      "Multi-statement transactions, by outcome.",
		}, []string{"outcome"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "connection_state",
			Help:      "Connection state: 0 connecting, 1 validating, 2 ready, 3 invalid.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.statements, m.duration, m.transactions, m.state)
	}
	return m
}

func (m *metrics) observeStatement(start time.Time, err error) {
	m.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.statements.WithLabelValues("error").Inc()
		return
	}
	m.statements.WithLabelValues("ok").Inc()
}

func (m *metrics) observeTransaction(committed bool) {
	if committed {
		m.transactions.WithLabelValues("commit").Inc()
		return
	}
	m.transactions.WithLabelValues("rollback").Inc()
}
