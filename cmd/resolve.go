package cmd

import (
	"context"
	"fmt"

	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <index>",
	Short: "Resolve a closed market",
	Long: `Record the outcome of a closed market. Oracle-bound markets
verify the submitted outcome against their feed on-chain and revert a
mismatch; manual markets accept the resolver's outcome as given.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var resolveOutcome string

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveOutcome, "outcome", "", "Resolved outcome (yes, no)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := marketIndexArg(args)
	if err != nil {
		return err
	}
	outcome, err := parseSide(resolveOutcome)
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
	if !lifecycle.Can(v.Snapshot, v.State, lifecycle.Viewer{Address: s.client.From(), Position: v.Position}, lifecycle.ActionResolve) {
		return fmt.Errorf("market %d cannot be resolved (state %s)", index, v.State.String())
	}

	fmt.Printf("=== Resolve ===\n\n")
	fmt.Printf("Market:  %s\n", v.Title)
	fmt.Printf("Outcome: %s\n\n", outcome.String())

	if err := confirmSubmission("Submit resolution?"); err != nil {
		return err
	}

	tx, err := market.Resolve(ctx, outcome)
	if err != nil {
		return err
	}
	if _, err := s.client.WaitForReceipt(ctx, tx); err != nil {
		return err
	}

	fmt.Printf("\nMarket resolved!\n")
	fmt.Printf("  TX: %s\n", tx.Hex())

	return nil
}
