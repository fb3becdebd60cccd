package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics collects Prometheus counters/gauges for a Conn: one struct of
// pre-registered collectors, registered once at construction, updated
// with plain Inc/Set/Observe calls from the dispatcher.
type metrics struct {
	submits     prometheus.Counter
	failures    prometheus.Counter
	queueDepth  prometheus.Gauge
	correlation prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		submits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zkdispatch",
			Name:      "submits_total",
			Help:      "Total number of requests submitted to the dispatcher.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zkdispatch",
			Name:      "dispatcher_failures_total",
			Help:      "Total number of times the dispatcher entered its failed state.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zkdispatch",
			Name:      "pending_queue_depth",
			Help:      "Current number of requests awaiting a correlated reply.",
		}),
		correlation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zkdispatch",
			Name:      "correlation_latency_seconds",
			Help:      "Latency between a request being written and its reply being correlated.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submits, m.failures, m.queueDepth, m.correlation)
	}
	return m
}
