package secrets

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for secrets provider operations
var (
	secretsOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "patronproxy",
			Subsystem: "secrets",
			Name:      "operation_duration_seconds",
			Help:      "Duration of secrets provider operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation", "result"},
	)

	secretsOperationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "secrets",
			Name:      "operation_total",
			Help:      "Total number of secrets provider operations",
		},
		[]string{"provider", "operation", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		secretsOperationDuration,
		secretsOperationTotal,
	)
}

// RecordOperation records metrics for a secrets provider operation
func RecordOperation(provider ProviderType, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	providerStr := string(provider)
	secretsOperationDuration.WithLabelValues(providerStr, operation, result).Observe(duration.Seconds())
	secretsOperationTotal.WithLabelValues(providerStr, operation, result).Inc()
}
