package metastore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by operation.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_metastore_requests_total",
			Help: "Total number of metadata API requests",
		},
		[]string{"operation"},
	)

	// UpsertsTotal counts rows written to the store.
	UpsertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_metastore_upserts_total",
		Help: "Total number of metadata rows upserted",
	})

	// UpdatesTotal counts existing rows rewritten in place.
	UpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_metastore_updates_total",
		Help: "Total number of metadata rows updated",
	})
)
