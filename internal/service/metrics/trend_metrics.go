package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	TrendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskgate",
			Subsystem: "trend",
			Name:      "latency_seconds",
			Help:      "Latency of trend service endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TrendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Subsystem: "trend",
			Name:      "errors_total",
			Help:      "Errors by trend service endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(TrendLatency, TrendErrors)
	})
}
