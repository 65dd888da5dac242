// Package metrics exposes Prometheus instrumentation for the delivery
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	deliveries *prometheus.CounterVec
	attempts   *prometheus.CounterVec
	duration   prometheus.Histogram
	cost       prometheus.Counter
}

// New registers the pipeline collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_deliveries_total",
			Help: "Webhook deliveries by terminal disposition.",
		}, []string{"disposition"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_execution_attempts_total",
			Help: "Model execution attempts by provider, outcome, and error class.",
		}, []string{"provider", "outcome", "class"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentd_delivery_duration_seconds",
			Help:    "End-to-end processing time per accepted delivery.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		cost: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentd_execution_cost_dollars_total",
			Help: "Accumulated provider cost in USD across all attempts.",
		}),
	}
}

// ObserveDelivery records one finished delivery.
func (m *Metrics) ObserveDelivery(disposition string, duration time.Duration) {
	m.deliveries.WithLabelValues(disposition).Inc()
	m.duration.Observe(duration.Seconds())
}

// ObserveAttempt records one execution attempt. class is empty on success.
func (m *Metrics) ObserveAttempt(provider, outcome, class string) {
	m.attempts.WithLabelValues(provider, outcome, class).Inc()
}

// AddCost accumulates provider spend.
func (m *Metrics) AddCost(dollars float64) {
	if dollars > 0 {
		m.cost.Add(dollars)
	}
}
