package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve <spender>",
	Short: "Approve a contract to spend your tokens",
	Long: `Approve a market or the factory to spend your settlement
tokens. Orchestrated flows approve on demand; this command exists for
pre-approving a spender explicitly.

Approves unlimited spending (max uint256) by default.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var approveAmount string

func init() {
	rootCmd.AddCommand(approveCmd)

	approveCmd.Flags().StringVarP(&approveAmount, "amount", "a", "unlimited", "Approval amount (unlimited, or a token amount)")
}

func runApprove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid spender address %q", args[0])
	}
	spender := common.HexToAddress(args[0])

	s, err := newStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	current, err := s.token.Allowance(ctx, s.client.From(), spender)
	if err != nil {
		return fmt.Errorf("check allowance: %w", err)
	}

	var amount *big.Int
	display := "unlimited (max uint256)"
	if approveAmount != "unlimited" {
		amount, err = parseTokenAmount(approveAmount)
		if err != nil {
			return err
		}
		display = formatTokenAmount(amount)
	} else {
		amount = chain.MaxUint256
	}

	fmt.Printf("=== Approve Spender ===\n\n")
	fmt.Printf("Spender:           %s\n", spender.Hex())
	fmt.Printf("Current allowance: %s\n", formatTokenAmount(current))
	fmt.Printf("Approving:         %s\n\n", display)

	if err := confirmSubmission("Submit approval?"); err != nil {
		return err
	}

	tx, err := s.token.Approve(ctx, spender, amount)
	if err != nil {
		return err
	}
	if _, err := s.client.WaitForReceipt(ctx, tx); err != nil {
		return err
	}
	s.views.InvalidateAllowance(s.client.From(), spender)

	fmt.Printf("\nApproval successful!\n")
	fmt.Printf("  TX: %s\n", tx.Hex())

	return nil
}
