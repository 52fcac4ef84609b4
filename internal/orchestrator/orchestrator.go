// Package orchestrator sequences dependent on-chain operations. A later
// step is never submitted before the step it depends on is confirmed
// (not merely submitted), and a failure halts the sequence at its step:
// on-chain steps cannot be rolled back by a client, so the caller is
// told which step failed and what remains retryable.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step identifies a position in a sequence's state machine.
type Step string

const (
	StepNotStarted Step = "not-started"
	StepApproving  Step = "approving"
	StepApproved   Step = "approved"
	StepActing     Step = "acting"
	StepConfirmed  Step = "confirmed"
	StepPersisting Step = "persisting"
	StepDone       Step = "done"
)

// StepError reports which step a sequence failed at. The underlying
// error keeps its class (rejection, revert, timeout) for display.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sequence failed at step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orchestrator runs the two canonical sequences: spend-then-act and
// act-then-persist.
type Orchestrator struct {
	logger *zap.Logger
}

// New creates an orchestrator.
func New(logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Orchestrator{logger: logger}, nil
}

// sequence tracks one run of a flow through its steps, so every
// asynchronous state is distinctly observable rather than one boolean.
type sequence struct {
	id     string
	flow   string
	step   Step
	logger *zap.Logger
}

func (o *Orchestrator) newSequence(flow, action string) *sequence {
	s := &sequence{
		id:     uuid.New().String(),
		flow:   flow,
		step:   StepNotStarted,
		logger: o.logger,
	}
	if action != "" {
		s.logger = s.logger.With(zap.String("action", action))
	}
	SequencesStartedTotal.WithLabelValues(flow).Inc()
	return s
}

func (s *sequence) advance(step Step) {
	s.step = step
	s.logger.Info("sequence-step",
		zap.String("sequence-id", s.id),
		zap.String("flow", s.flow),
		zap.String("step", string(step)))
}

func (s *sequence) fail(err error) error {
	SequencesFailedTotal.WithLabelValues(s.flow, string(s.step)).Inc()
	s.logger.Warn("sequence-failed",
		zap.String("sequence-id", s.id),
		zap.String("flow", s.flow),
		zap.String("step", string(s.step)),
		zap.Error(err))
	return &StepError{Step: s.step, Err: err}
}

// SpendThenAct describes an approve-allowance-then-consume sequence.
// All hooks are supplied by the caller so the machine is testable
// without a chain.
type SpendThenAct struct {
	// Label names the consuming action for logs ("buy", "accept").
	Label string

	// Required is the allowance the action consumes.
	Required *big.Int

	// ApprovalAmount is what an approval, if needed, asks for: the
	// exact Required amount (the default) or the unlimited sentinel.
	// The machine hands it to SubmitApproval so the policy lives here,
	// not in every caller's hook.
	ApprovalAmount *big.Int

	// ReadAllowance re-checks the live allowance immediately before
	// deciding whether to approve. Never a cached value: the allowance
	// is shared across every market for the spender.
	ReadAllowance func(ctx context.Context) (*big.Int, error)

	// SubmitApproval submits an approval for amount, which is always
	// the resolved ApprovalAmount.
	SubmitApproval func(ctx context.Context, amount *big.Int) (common.Hash, error)

	SubmitAction func(ctx context.Context) (common.Hash, error)
	Confirm      func(ctx context.Context, tx common.Hash) error

	// OnApproved runs after an approval confirms, before the action is
	// submitted. Used to invalidate cached allowance reads everywhere.
	OnApproved func()
}

// SpendResult reports how a spend-then-act sequence completed.
type SpendResult struct {
	SequenceID      string
	ApprovalSkipped bool
	ApprovalTx      common.Hash
	ActionTx        common.Hash
}

// RunSpendThenAct executes the sequence. The approval is skipped when
// the live allowance already covers the required amount, and the action
// is not submitted until the approval (when needed) has confirmed.
func (o *Orchestrator) RunSpendThenAct(ctx context.Context, p *SpendThenAct) (*SpendResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	seq := o.newSequence("spend-then-act", p.Label)
	result := &SpendResult{SequenceID: seq.id}

	seq.advance(StepApproving)

	allowance, err := p.ReadAllowance(ctx)
	if err != nil {
		return nil, seq.fail(fmt.Errorf("read allowance: %w", err))
	}

	if allowance.Cmp(p.Required) >= 0 {
		// Already sufficient: a redundant approval is a wasted
		// transaction.
		result.ApprovalSkipped = true
		ApprovalsSkippedTotal.Inc()
		seq.logger.Debug("approval-skipped",
			zap.String("sequence-id", seq.id),
			zap.String("allowance", allowance.String()),
			zap.String("required", p.Required.String()))
	} else {
		approvalTx, err := p.SubmitApproval(ctx, p.ApprovalAmount)
		if err != nil {
			return nil, seq.fail(err)
		}
		result.ApprovalTx = approvalTx
		ApprovalsSubmittedTotal.Inc()

		// The action consumes this allowance, so it must not be
		// submitted until the approval is on-chain.
		if err := p.Confirm(ctx, approvalTx); err != nil {
			return nil, seq.fail(err)
		}

		if p.OnApproved != nil {
			p.OnApproved()
		}
	}
	seq.advance(StepApproved)

	seq.advance(StepActing)
	actionTx, err := p.SubmitAction(ctx)
	if err != nil {
		return nil, seq.fail(err)
	}
	result.ActionTx = actionTx

	if err := p.Confirm(ctx, actionTx); err != nil {
		return nil, seq.fail(err)
	}
	seq.advance(StepConfirmed)

	seq.advance(StepDone)
	SequencesCompletedTotal.WithLabelValues(seq.flow).Inc()
	return result, nil
}

func (p *SpendThenAct) validate() error {
	if p.Required == nil || p.ReadAllowance == nil || p.SubmitApproval == nil || p.SubmitAction == nil || p.Confirm == nil {
		return errors.New("spend-then-act: missing required field")
	}
	if p.ApprovalAmount == nil {
		p.ApprovalAmount = p.Required
	}
	return nil
}
