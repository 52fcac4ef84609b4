package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the engine distinguishes.
// Metadata-layer errors never make an on-chain success look like a
// failure; they are downgraded to warnings by callers.
var (
	// ErrStaleQuote signals the contract-side slippage guard tripped:
	// the quote the trade was built on no longer matches pool state.
	ErrStaleQuote = errors.New("quote is stale, re-read price before submitting")

	// ErrTransactionRejected signals the user declined to sign.
	ErrTransactionRejected = errors.New("transaction rejected by user")

	// ErrConfirmationTimeout signals the confirmation wait bound was
	// exceeded. The transaction may still land; the user can re-check.
	ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

	// ErrMetadataNotFound signals the off-chain store has no record for
	// a market index. Non-fatal: callers fall back to a placeholder.
	ErrMetadataNotFound = errors.New("market metadata not found")

	// ErrActionUnavailable signals an operation the market's current
	// lifecycle state (or type) does not permit.
	ErrActionUnavailable = errors.New("action not available for this market")
)

// InvalidOddsSpecError reports a malformed odds ratio input. It is raised
// by local validation and never reaches the network.
type InvalidOddsSpecError struct {
	Input  string
	Reason string
}

func (e *InvalidOddsSpecError) Error() string {
	return fmt.Sprintf("invalid odds spec %q: %s", e.Input, e.Reason)
}

// RevertedError reports an on-chain transaction that was mined but
// reverted. The step sequence halts; nothing is retried automatically.
type RevertedError struct {
	Step   string
	TxHash string
}

func (e *RevertedError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("transaction reverted (tx %s)", e.TxHash)
	}
	return fmt.Sprintf("transaction reverted at step %s (tx %s)", e.Step, e.TxHash)
}

// MetadataPersistError reports a failed metadata write after a confirmed
// on-chain action. The on-chain action is still a success; this error is
// surfaced as a warning and the persist step can be retried because the
// store upserts by market index.
type MetadataPersistError struct {
	MarketIndex uint64
	Err         error
}

func (e *MetadataPersistError) Error() string {
	return fmt.Sprintf("persist metadata for market %d: %v", e.MarketIndex, e.Err)
}

func (e *MetadataPersistError) Unwrap() error {
	return e.Err
}
