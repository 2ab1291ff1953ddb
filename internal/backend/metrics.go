package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for backend client operations.
var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend requests",
		},
		[]string{"operation", "result"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "patronproxy",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		backendRequestsTotal,
		backendRequestDuration,
	)
}

// recordRequest records metrics for a backend call.
func recordRequest(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	backendRequestsTotal.WithLabelValues(operation, result).Inc()
	backendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
