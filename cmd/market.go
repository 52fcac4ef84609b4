package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/spf13/cobra"
)

var marketCmd = &cobra.Command{
	Use:   "market <index>",
	Short: "Show one market in detail",
	Long: `Show a market's snapshot, derived state, prices (AMM markets),
your position and the actions currently available to you.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarket,
}

func init() {
	rootCmd.AddCommand(marketCmd)
}

func runMarket(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := marketIndexArg(args)
	if err != nil {
		return err
	}

	s, err := newStack(ctx, false)
	if err != nil {
		return err
	}
	defer s.close()

	v, err := s.views.Market(ctx, index, s.client.From())
	if err != nil {
		return fmt.Errorf("load market %d: %w", index, err)
	}

	snap := v.Snapshot
	fmt.Printf("=== %s ===\n\n", v.Title)
	fmt.Printf("Index:    %d\n", snap.Index)
	fmt.Printf("Address:  %s\n", snap.Address.Hex())
	fmt.Printf("Type:     %s\n", snap.Type.String())
	fmt.Printf("State:    %s\n", v.State.String())
	fmt.Printf("Creator:  %s\n", snap.Creator.Hex())
	fmt.Printf("Ends:     %s\n", snap.EndTime.Format(time.RFC3339))
	if snap.Outcome != types.OutcomeUnresolved {
		fmt.Printf("Outcome:  %s\n", snap.Outcome.String())
	}

	if snap.Type == types.MarketChallenge {
		fmt.Printf("\nStakes:\n")
		fmt.Printf("  Creator:  %s\n", formatTokenAmount(snap.CreatorStake))
		fmt.Printf("  Opponent: %s\n", formatTokenAmount(snap.OpponentStake))
	}

	if v.Prices != nil {
		fmt.Printf("\nPrices (read %s):\n", v.Prices.ReadAt.Format(time.RFC3339))
		fmt.Printf("  YES: %s\n", v.Prices.Yes.String())
		fmt.Printf("  NO:  %s\n", v.Prices.No.String())
	}

	if v.Position != nil && v.Position.Funded() {
		fmt.Printf("\nYour position:\n")
		fmt.Printf("  YES: %s\n", formatTokenAmount(v.Position.Yes))
		fmt.Printf("  NO:  %s\n", formatTokenAmount(v.Position.No))
		if v.Prices != nil {
			fmt.Printf("  Value at current prices: %s\n", formatTokenAmount(quote.PositionValue(v.Position, v.Prices)))
		}
		fmt.Printf("  Payout if YES: %s\n", formatTokenAmount(quote.PayoutIfWins(v.Position, types.OutcomeYes)))
		fmt.Printf("  Payout if NO:  %s\n", formatTokenAmount(quote.PayoutIfWins(v.Position, types.OutcomeNo)))
	}

	if len(v.Actions) > 0 {
		fmt.Printf("\nAvailable actions:")
		for _, action := range v.Actions {
			fmt.Printf(" %s", action)
		}
		fmt.Printf("\n")
	}

	return nil
}
