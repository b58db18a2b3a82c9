package loader

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RecordsTotal counts relationship records by namespace and outcome
	// (loaded, duplicate, skipped).
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontoslim_loader_records_total",
			Help: "Relationship records processed by the loader",
		},
		[]string{"namespace", "outcome"},
	)

	// BytesTotal counts bytes read from source files, as stored on disk.
	BytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ontoslim_loader_bytes_total",
			Help: "Bytes read from relationship source files",
		},
	)
)

func init() {
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(BytesTotal)
}
