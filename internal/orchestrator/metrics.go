package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SequencesStartedTotal tracks started sequences by flow.
	SequencesStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_orchestrator_sequences_started_total",
			Help: "Total number of transaction sequences started",
		},
		[]string{"flow"},
	)

	// SequencesCompletedTotal tracks sequences that reached done.
	SequencesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_orchestrator_sequences_completed_total",
			Help: "Total number of transaction sequences completed",
		},
		[]string{"flow"},
	)

	// SequencesFailedTotal tracks failures by flow and failing step.
	SequencesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kleos_orchestrator_sequences_failed_total",
			Help: "Total number of transaction sequences failed",
		},
		[]string{"flow", "step"},
	)

	// ApprovalsSkippedTotal counts approvals skipped because the live
	// allowance already covered the required amount.
	ApprovalsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_orchestrator_approvals_skipped_total",
		Help: "Total number of approval steps skipped due to sufficient allowance",
	})

	// ApprovalsSubmittedTotal counts approval transactions submitted.
	ApprovalsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_orchestrator_approvals_submitted_total",
		Help: "Total number of approval transactions submitted",
	})

	// PersistWarningsTotal counts metadata persists downgraded to
	// warnings after a confirmed on-chain action.
	PersistWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_orchestrator_persist_warnings_total",
		Help: "Total number of metadata persist failures downgraded to warnings",
	})
)
