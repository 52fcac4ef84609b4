package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/pkg/types"
	"go.uber.org/zap"
)

// spendHarness wires a SpendThenAct with counting fakes so ordering and
// skip behavior are observable.
type spendHarness struct {
	allowance *big.Int

	approvalSubmits int
	approvalAmounts []*big.Int
	actionSubmits   int
	confirms        []common.Hash
	approvedHooks   int

	approvalErr error
	actionErr   error
	confirmErr  map[common.Hash]error
}

func (h *spendHarness) params(required int64) *SpendThenAct {
	return &SpendThenAct{
		Label:    "buy",
		Required: big.NewInt(required),
		ReadAllowance: func(ctx context.Context) (*big.Int, error) {
			return h.allowance, nil
		},
		SubmitApproval: func(ctx context.Context, amount *big.Int) (common.Hash, error) {
			h.approvalSubmits++
			h.approvalAmounts = append(h.approvalAmounts, amount)
			if h.approvalErr != nil {
				return common.Hash{}, h.approvalErr
			}
			return common.HexToHash("0xa1"), nil
		},
		SubmitAction: func(ctx context.Context) (common.Hash, error) {
			h.actionSubmits++
			if h.actionErr != nil {
				return common.Hash{}, h.actionErr
			}
			return common.HexToHash("0xb2"), nil
		},
		Confirm: func(ctx context.Context, tx common.Hash) error {
			h.confirms = append(h.confirms, tx)
			if err, ok := h.confirmErr[tx]; ok {
				return err
			}
			return nil
		},
		OnApproved: func() { h.approvedHooks++ },
	}
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return o
}

// Allowance-skip law: sufficient allowance means no approval transaction
// is emitted.
func TestSpendThenActSkipsSufficientAllowance(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{allowance: big.NewInt(100)}

	result, err := o.RunSpendThenAct(context.Background(), h.params(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.ApprovalSkipped {
		t.Error("approval should be reported skipped")
	}
	if h.approvalSubmits != 0 {
		t.Errorf("approval submitted %d times, want 0", h.approvalSubmits)
	}
	if h.actionSubmits != 1 {
		t.Errorf("action submitted %d times, want 1", h.actionSubmits)
	}
	if h.approvedHooks != 0 {
		t.Error("approved hook must not fire when approval is skipped")
	}
}

func TestSpendThenActExactAllowanceBoundary(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{allowance: big.NewInt(50)}

	result, err := o.RunSpendThenAct(context.Background(), h.params(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ApprovalSkipped {
		t.Error("allowance equal to required must skip the approval")
	}
}

// Ordering guarantee: the action is submitted only after the approval's
// confirmation, never after mere submission.
func TestSpendThenActConfirmsApprovalBeforeAction(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{allowance: big.NewInt(0)}

	result, err := o.RunSpendThenAct(context.Background(), h.params(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ApprovalSkipped {
		t.Fatal("approval should not be skipped with zero allowance")
	}
	if h.approvalSubmits != 1 || h.actionSubmits != 1 {
		t.Fatalf("submits: approval %d action %d", h.approvalSubmits, h.actionSubmits)
	}

	// The approval confirmation must come before the action's.
	if len(h.confirms) != 2 {
		t.Fatalf("confirm calls = %d, want 2", len(h.confirms))
	}
	if h.confirms[0] != result.ApprovalTx || h.confirms[1] != result.ActionTx {
		t.Errorf("confirm order = %v, want approval then action", h.confirms)
	}
	if h.approvedHooks != 1 {
		t.Errorf("approved hook fired %d times, want 1", h.approvedHooks)
	}
}

// The approval hook receives the resolved ApprovalAmount: the caller's
// explicit choice when set, otherwise the required amount.
func TestSpendThenActPassesApprovalAmount(t *testing.T) {
	tests := []struct {
		name           string
		approvalAmount *big.Int
		want           int64
	}{
		{name: "explicit-amount", approvalAmount: big.NewInt(999), want: 999},
		{name: "defaults-to-required", approvalAmount: nil, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(t)
			h := &spendHarness{allowance: big.NewInt(0)}

			p := h.params(50)
			p.ApprovalAmount = tt.approvalAmount
			if _, err := o.RunSpendThenAct(context.Background(), p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(h.approvalAmounts) != 1 {
				t.Fatalf("approval amounts = %v, want one entry", h.approvalAmounts)
			}
			if h.approvalAmounts[0].Int64() != tt.want {
				t.Errorf("approval amount = %s, want %d", h.approvalAmounts[0], tt.want)
			}
		})
	}
}

func TestSpendThenActHaltsWhenApprovalFails(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{
		allowance:   big.NewInt(0),
		approvalErr: types.ErrTransactionRejected,
	}

	_, err := o.RunSpendThenAct(context.Background(), h.params(50))
	if err == nil {
		t.Fatal("expected failure")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %T", err)
	}
	if stepErr.Step != StepApproving {
		t.Errorf("failing step = %s, want %s", stepErr.Step, StepApproving)
	}
	if !errors.Is(err, types.ErrTransactionRejected) {
		t.Error("underlying rejection class lost")
	}
	if h.actionSubmits != 0 {
		t.Error("action must not be submitted after an approval failure")
	}
}

func TestSpendThenActHaltsWhenApprovalConfirmationFails(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{
		allowance:  big.NewInt(0),
		confirmErr: map[common.Hash]error{common.HexToHash("0xa1"): types.ErrConfirmationTimeout},
	}

	_, err := o.RunSpendThenAct(context.Background(), h.params(50))
	if !errors.Is(err, types.ErrConfirmationTimeout) {
		t.Fatalf("expected confirmation timeout, got %v", err)
	}
	if h.actionSubmits != 0 {
		t.Error("action must not be submitted on an unconfirmed approval")
	}
	if h.approvedHooks != 0 {
		t.Error("approved hook must not fire on unconfirmed approval")
	}
}

func TestSpendThenActReportsActionStepFailure(t *testing.T) {
	o := newTestOrchestrator(t)
	h := &spendHarness{
		allowance: big.NewInt(100),
		actionErr: types.ErrStaleQuote,
	}

	_, err := o.RunSpendThenAct(context.Background(), h.params(50))

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %T", err)
	}
	if stepErr.Step != StepActing {
		t.Errorf("failing step = %s, want %s", stepErr.Step, StepActing)
	}
	if !errors.Is(err, types.ErrStaleQuote) {
		t.Error("stale quote class must survive wrapping")
	}
}

func TestSpendThenActRejectsIncompleteParams(t *testing.T) {
	o := newTestOrchestrator(t)

	_, err := o.RunSpendThenAct(context.Background(), &SpendThenAct{Required: big.NewInt(1)})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
