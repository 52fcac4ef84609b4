// Package epoch computes oracle resolution epochs and converts between
// human decimal prices and the oracle's fixed-point threshold encoding.
package epoch

import (
	"fmt"
)

// DefaultEpochLength is the oracle's epoch length in seconds. The FTSO
// publishes one price snapshot per 90-second epoch.
const DefaultEpochLength = 90

// Compute returns the epoch covering a market that ends durationSeconds
// after nowSeconds: floor((now + duration) / epochLength).
//
// The epoch is derived from the market's future end time, never from the
// current time alone. Callers must call this with the duration in effect
// at the moment of submission; an epoch stored from an earlier duration
// edit is wrong the moment the duration changes.
func Compute(nowSeconds, durationSeconds, epochLengthSeconds int64) (uint64, error) {
	if epochLengthSeconds <= 0 {
		return 0, fmt.Errorf("epoch length must be positive, got %d", epochLengthSeconds)
	}
	if nowSeconds < 0 || durationSeconds < 0 {
		return 0, fmt.Errorf("now and duration must be non-negative, got now=%d duration=%d", nowSeconds, durationSeconds)
	}

	end := nowSeconds + durationSeconds
	return uint64(end / epochLengthSeconds), nil
}
