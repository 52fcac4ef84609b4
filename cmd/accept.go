package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/internal/orchestrator"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/spf13/cobra"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <index>",
	Short: "Accept an open challenge",
	Long: `Fund the open side of a challenge market. The required
counter-stake is read from the contract, so the submitted amount always
matches the market's own arithmetic.`,
	Args: cobra.ExactArgs(1),
	RunE: runAccept,
}

func init() {
	rootCmd.AddCommand(acceptCmd)
}

func runAccept(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := marketIndexArg(args)
	if err != nil {
		return err
	}

	s, err := newStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	market, err := s.openMarket(ctx, index)
	if err != nil {
		return err
	}

	v, err := s.views.Market(ctx, index, s.client.From())
	if err != nil {
		return err
	}
	if !lifecycle.Can(v.Snapshot, v.State, lifecycle.Viewer{Address: s.client.From(), Position: v.Position}, lifecycle.ActionAccept) {
		return fmt.Errorf("market %d is not open for acceptance (state %s)", index, v.State.String())
	}

	// The side and amount are fixed by the contract for challenges;
	// the quote is the required counter-stake.
	required, err := market.Quote(ctx, types.OutcomeUnresolved, nil)
	if err != nil {
		return fmt.Errorf("read required stake: %w", err)
	}

	fmt.Printf("=== Accept Challenge ===\n\n")
	fmt.Printf("Market:         %s\n", v.Title)
	fmt.Printf("Required stake: %s\n\n", formatTokenAmount(required))

	if err := confirmSubmission("Submit acceptance?"); err != nil {
		return err
	}

	spender := market.Address()
	result, err := s.orch.RunSpendThenAct(ctx, &orchestrator.SpendThenAct{
		Label:          "accept",
		Required:       required,
		ApprovalAmount: chain.MaxUint256,
		ReadAllowance: func(ctx context.Context) (*big.Int, error) {
			return s.token.Allowance(ctx, s.client.From(), spender)
		},
		SubmitApproval: func(ctx context.Context, amount *big.Int) (common.Hash, error) {
			return s.token.Approve(ctx, spender, amount)
		},
		SubmitAction: func(ctx context.Context) (common.Hash, error) {
			return market.Buy(ctx, types.OutcomeUnresolved, required)
		},
		Confirm: func(ctx context.Context, tx common.Hash) error {
			_, err := s.client.WaitForReceipt(ctx, tx)
			return err
		},
		OnApproved: func() {
			s.views.InvalidateAllowance(s.client.From(), spender)
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nChallenge accepted!\n")
	if result.ApprovalSkipped {
		fmt.Printf("  Approval: skipped (allowance sufficient)\n")
	} else {
		fmt.Printf("  Approval: %s\n", result.ApprovalTx.Hex())
	}
	fmt.Printf("  TX:       %s\n", result.ActionTx.Hex())

	return nil
}
