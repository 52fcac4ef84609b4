package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks bridge request latency by operation.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kleos_metadata_request_duration_seconds",
			Help:    "Duration of metadata bridge requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RequestErrorsTotal counts failed bridge requests by operation.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_metadata_request_errors_total",
			Help: "Total number of failed metadata bridge requests",
		},
		[]string{"operation"},
	)
)
