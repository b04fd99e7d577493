package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations  *prometheus.CounterVec
	breakerTrips *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	sizing       *prometheus.GaugeVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskgate_evaluations_total",
				Help: "Total number of risk evaluations by symbol and regime",
			},
			[]string{"symbol", "regime"},
		),
		breakerTrips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskgate_breaker_trips_total",
				Help: "Total number of circuit breaker trips",
			},
			[]string{"type", "scope", "status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskgate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		sizing: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskgate_position_sizing_fraction",
				Help: "Last recommended position sizing fraction for a symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskgate_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskgate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records one risk evaluation result.
func (r *Recorder) RecordEvaluation(symbol, regime string) {
	r.evaluations.WithLabelValues(symbol, regime).Inc()
}

// RecordBreakerTrip records a circuit breaker trip.
func (r *Recorder) RecordBreakerTrip(breakerType, scope, status string) {
	r.breakerTrips.WithLabelValues(breakerType, scope, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSizing records the last sizing fraction for a symbol.
func (r *Recorder) RecordSizing(symbol string, fraction float64) {
	r.sizing.WithLabelValues(symbol).Set(fraction)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
