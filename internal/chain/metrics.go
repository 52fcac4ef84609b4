package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsSubmittedTotal tracks submitted transactions by method.
	TransactionsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_chain_transactions_submitted_total",
			Help: "Total number of transactions submitted to the chain",
		},
		[]string{"method"},
	)

	// TransactionsRevertedTotal tracks mined-but-reverted transactions.
	TransactionsRevertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_chain_transactions_reverted_total",
		Help: "Total number of transactions that reverted on-chain",
	})

	// ConfirmationDurationSeconds tracks submit-to-mined latency.
	ConfirmationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kleos_chain_confirmation_duration_seconds",
		Help:    "Time from transaction submission to mined receipt",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	})

	// ContractReadDuration tracks contract read latency by method.
	ContractReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kleos_chain_read_duration_seconds",
			Help:    "Duration of contract read calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
