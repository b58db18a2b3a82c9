package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

const tracerName = "ontoslim.service"

var (
	// SlimCacheTotal counts slim map lookups by result (hit, miss, shared).
	SlimCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontoslim_slim_cache_total",
			Help: "Slim map cache lookups",
		},
		[]string{"result"},
	)

	// QueryDuration observes query latency by operation.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ontoslim_query_duration_seconds",
			Help:    "Latency of ontology queries",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(SlimCacheTotal)
	prometheus.MustRegister(QueryDuration)
}
