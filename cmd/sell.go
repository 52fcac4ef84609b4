package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/spf13/cobra"
)

var sellCmd = &cobra.Command{
	Use:   "sell <index>",
	Short: "Sell outcome shares in an AMM market",
	Long: `Sell YES or NO shares back to an AMM market. Selling consumes
no token allowance; the proceeds quote is read from the contract before
submission.`,
	Args: cobra.ExactArgs(1),
	RunE: runSell,
}

var (
	sellSide   string
	sellShares string
)

func init() {
	rootCmd.AddCommand(sellCmd)

	sellCmd.Flags().StringVar(&sellSide, "side", "yes", "Side to sell (yes, no)")
	sellCmd.Flags().StringVar(&sellShares, "shares", "", "Share count to sell")
}

func runSell(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := marketIndexArg(args)
	if err != nil {
		return err
	}
	side, err := parseSide(sellSide)
	if err != nil {
		return err
	}
	shares, ok := new(big.Int).SetString(sellShares, 10)
	if !ok || shares.Sign() <= 0 {
		return fmt.Errorf("invalid share count %q", sellShares)
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
	if !lifecycle.Can(v.Snapshot, v.State, lifecycle.Viewer{Address: s.client.From(), Position: v.Position}, lifecycle.ActionSell) {
		return fmt.Errorf("market %d is not tradeable (state %s)", index, v.State.String())
	}

	held := v.Position.Yes
	if side == types.OutcomeNo {
		held = v.Position.No
	}
	if held.Cmp(shares) < 0 {
		return fmt.Errorf("holding %s %s shares, cannot sell %s", held.String(), side.String(), shares.String())
	}

	quoter, ok := market.(chain.SellQuoter)
	if !ok {
		return fmt.Errorf("market %d does not quote sells", index)
	}
	proceeds, err := quoter.QuoteSell(ctx, side, shares)
	if err != nil {
		return fmt.Errorf("quote sell: %w", err)
	}

	fmt.Printf("=== Sell %s ===\n\n", side.String())
	fmt.Printf("Market:   %s\n", v.Title)
	fmt.Printf("Shares:   %s\n", shares.String())
	fmt.Printf("Proceeds: %s\n\n", formatTokenAmount(proceeds))

	if err := confirmSubmission("Submit sell?"); err != nil {
		return err
	}

	tx, err := market.Sell(ctx, side, shares)
	if err != nil {
		return err
	}
	if _, err := s.client.WaitForReceipt(ctx, tx); err != nil {
		return err
	}

	fmt.Printf("\nSell complete!\n")
	fmt.Printf("  TX: %s\n", tx.Hex())

	return nil
}
