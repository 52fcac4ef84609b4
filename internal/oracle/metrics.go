package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedReadDuration tracks one-shot feed read latency.
	FeedReadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kleos_oracle_feed_read_duration_seconds",
		Help:    "Duration of oracle feed reads",
		Buckets: prometheus.DefBuckets,
	})

	// FeedReadErrorsTotal counts failed feed reads.
	FeedReadErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_oracle_feed_read_errors_total",
		Help: "Total number of failed oracle feed reads",
	})

	// StreamConnected is 1 while the feed stream is connected.
	StreamConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kleos_oracle_stream_connected",
		Help: "Whether the oracle feed stream is connected",
	})

	// UpdatesReceivedTotal counts decoded feed updates.
	UpdatesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_oracle_stream_updates_received_total",
		Help: "Total number of feed updates received",
	})

	// UpdatesDroppedTotal counts updates dropped to a slow consumer.
	UpdatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_oracle_stream_updates_dropped_total",
		Help: "Total number of feed updates dropped",
	})

	// ReconnectAttemptsTotal counts stream reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_oracle_stream_reconnect_attempts_total",
		Help: "Total number of stream reconnection attempts",
	})
)
