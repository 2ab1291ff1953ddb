package token

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the token cache.
var (
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "token_cache",
			Name:      "hits_total",
			Help:      "Total number of token cache hits",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "token_cache",
			Name:      "misses_total",
			Help:      "Total number of token cache misses",
		},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "token_cache",
			Name:      "logins_total",
			Help:      "Total number of backend logins performed by the cache",
		},
		[]string{"tenant", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		cacheHitsTotal,
		cacheMissesTotal,
		loginsTotal,
	)
}
