package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsRegistry struct {
	registry        *prometheus.Registry
	operationsTotal *prometheus.CounterVec
	mintsTotal      *prometheus.CounterVec
	txLatency       prometheus.Histogram
}

func newMetricsRegistry() *metricsRegistry {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_operations_total",
		Help: "Contract operations by name and outcome",
	}, []string{"op", "status"})

	mints := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_mints_total",
		Help: "Mint submissions by outcome",
	}, []string{"status"})

	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "filevault_tx_confirmation_seconds",
		Help:    "Wall time from submission to confirmed receipt",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	r := prometheus.NewRegistry()
	r.MustRegister(operations, mints, latency)

	return &metricsRegistry{
		registry:        r,
		operationsTotal: operations,
		mintsTotal:      mints,
		txLatency:       latency,
	}
}

func (m *metricsRegistry) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metricsRegistry) incOp(op, status string) {
	m.operationsTotal.WithLabelValues(op, status).Inc()
}

func (m *metricsRegistry) incMint(status string) {
	m.mintsTotal.WithLabelValues(status).Inc()
}

func (m *metricsRegistry) observeTxLatency(d time.Duration) {
	m.txLatency.Observe(d.Seconds())
}
