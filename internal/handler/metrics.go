package handler

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for patron operations
var (
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "patronproxy",
			Subsystem: "handler",
			Name:      "operation_duration_seconds",
			Help:      "Duration of patron operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	operationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "handler",
			Name:      "operation_total",
			Help:      "Total number of patron operations",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		operationDuration,
		operationTotal,
	)
}

// recordOperation records metrics for one completed patron operation.
func recordOperation(operation string, status int, start time.Time) {
	statusStr := strconv.Itoa(status)
	operationDuration.WithLabelValues(operation, statusStr).Observe(time.Since(start).Seconds())
	operationTotal.WithLabelValues(operation, statusStr).Inc()
}
