package cmd

import (
	"context"
	"fmt"

	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/spf13/cobra"
)

var claimCmd = &cobra.Command{
	Use:   "claim <index>",
	Short: "Claim winnings or reclaim stake",
	Long: `Claim from a market you hold a position in: the payout of a
winning position in a resolved market, or your escrowed stake from a
challenge that closed without an opponent.`,
	Args: cobra.ExactArgs(1),
	RunE: runClaim,
}

func init() {
	rootCmd.AddCommand(claimCmd)
}

func runClaim(cmd *cobra.Command, args []string) error {
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
	if !lifecycle.Can(v.Snapshot, v.State, lifecycle.Viewer{Address: s.client.From(), Position: v.Position}, lifecycle.ActionClaim) {
		return fmt.Errorf("nothing to claim from market %d (state %s)", index, v.State.String())
	}

	fmt.Printf("=== Claim ===\n\n")
	fmt.Printf("Market: %s\n", v.Title)
	fmt.Printf("State:  %s\n", v.State.String())
	if v.State == types.StateResolved {
		payout := quote.PayoutIfWins(v.Position, v.Snapshot.Outcome)
		fmt.Printf("Payout: %s\n", formatTokenAmount(payout))
	}
	fmt.Printf("\n")

	if err := confirmSubmission("Submit claim?"); err != nil {
		return err
	}

	tx, err := market.Claim(ctx)
	if err != nil {
		return err
	}
	if _, err := s.client.WaitForReceipt(ctx, tx); err != nil {
		return err
	}

	fmt.Printf("\nClaim complete!\n")
	fmt.Printf("  TX: %s\n", tx.Hex())

	return nil
}
