package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/pkg/types"
	"go.uber.org/zap"
)

// ActThenPersist describes a creation sequence: submit the on-chain
// creation, wait for confirmation, derive the new market's identity from
// post-confirmation contract state, then persist descriptive metadata
// against that identity.
type ActThenPersist struct {
	Label    string
	Question string

	// Required, when set, is the allowance the creation escrows. The
	// approval phase then runs exactly as in spend-then-act: live
	// re-check, skip when sufficient, confirm before creating.
	// ApprovalAmount defaults to Required and is handed to
	// SubmitApproval when an approval is needed.
	Required       *big.Int
	ApprovalAmount *big.Int
	ReadAllowance  func(ctx context.Context) (*big.Int, error)
	SubmitApproval func(ctx context.Context, amount *big.Int) (common.Hash, error)
	OnApproved     func()

	SubmitAction func(ctx context.Context) (common.Hash, error)
	Confirm      func(ctx context.Context, tx common.Hash) error

	// DeriveIndex reads the new market's index from authoritative
	// post-confirmation state (a count read). A pre-submission guess is
	// wrong whenever someone else creates a market concurrently.
	DeriveIndex func(ctx context.Context) (uint64, error)

	// Persist upserts the descriptive metadata by market index, so a
	// retry after a partial failure cannot duplicate records.
	Persist func(ctx context.Context, index uint64) error
}

// CreateResult reports how an act-then-persist sequence completed. A
// failed persist does not fail the sequence: the on-chain creation
// already succeeded, so the failure is carried as a warning instead.
type CreateResult struct {
	SequenceID     string
	ActionTx       common.Hash
	MarketIndex    uint64
	PersistWarning error
}

// RunActThenPersist executes the sequence. The pending metadata exists
// only inside this call: once persistence succeeds or is downgraded to a
// warning, nothing transient remains to clean up.
func (o *Orchestrator) RunActThenPersist(ctx context.Context, p *ActThenPersist) (*CreateResult, error) {
	if p.SubmitAction == nil || p.Confirm == nil || p.DeriveIndex == nil || p.Persist == nil {
		return nil, errors.New("act-then-persist: missing required field")
	}

	if p.Required != nil && (p.ReadAllowance == nil || p.SubmitApproval == nil) {
		return nil, errors.New("act-then-persist: approval phase missing hooks")
	}
	if p.Required != nil && p.ApprovalAmount == nil {
		p.ApprovalAmount = p.Required
	}

	seq := o.newSequence("act-then-persist", p.Label)
	pending := &types.PendingMetadata{SequenceID: seq.id, Question: p.Question}

	if p.Required != nil {
		seq.advance(StepApproving)

		allowance, err := p.ReadAllowance(ctx)
		if err != nil {
			return nil, seq.fail(fmt.Errorf("read allowance: %w", err))
		}

		if allowance.Cmp(p.Required) >= 0 {
			ApprovalsSkippedTotal.Inc()
		} else {
			approvalTx, err := p.SubmitApproval(ctx, p.ApprovalAmount)
			if err != nil {
				return nil, seq.fail(err)
			}
			ApprovalsSubmittedTotal.Inc()

			if err := p.Confirm(ctx, approvalTx); err != nil {
				return nil, seq.fail(err)
			}
			if p.OnApproved != nil {
				p.OnApproved()
			}
		}
		seq.advance(StepApproved)
	}

	seq.advance(StepActing)
	actionTx, err := p.SubmitAction(ctx)
	if err != nil {
		return nil, seq.fail(err)
	}

	if err := p.Confirm(ctx, actionTx); err != nil {
		return nil, seq.fail(err)
	}
	seq.advance(StepConfirmed)

	index, err := p.DeriveIndex(ctx)
	if err != nil {
		return nil, seq.fail(fmt.Errorf("derive market index: %w", err))
	}

	result := &CreateResult{
		SequenceID:  seq.id,
		ActionTx:    actionTx,
		MarketIndex: index,
	}

	seq.advance(StepPersisting)
	if err := p.Persist(ctx, index); err != nil {
		// The market exists on-chain; reporting the whole flow as
		// failed would be wrong. The upsert can be retried later.
		PersistWarningsTotal.Inc()
		result.PersistWarning = &types.MetadataPersistError{MarketIndex: index, Err: err}
		o.logger.Warn("metadata-persist-downgraded",
			zap.String("sequence-id", pending.SequenceID),
			zap.Uint64("market-index", index),
			zap.Error(err))
	}

	seq.advance(StepDone)
	SequencesCompletedTotal.WithLabelValues(seq.flow).Inc()
	return result, nil
}
