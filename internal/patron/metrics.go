package patron

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for patron id resolution.
var (
	resolveCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "patron_resolver",
			Name:      "cache_hits_total",
			Help:      "Total number of patron id cache hits",
		},
	)

	resolveCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "patron_resolver",
			Name:      "cache_misses_total",
			Help:      "Total number of patron id cache misses",
		},
	)

	lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "patronproxy",
			Subsystem: "patron_resolver",
			Name:      "lookups_total",
			Help:      "Total number of backend patron lookups",
		},
		[]string{"tenant", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		resolveCacheHitsTotal,
		resolveCacheMissesTotal,
		lookupsTotal,
	)
}
