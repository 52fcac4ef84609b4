package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/internal/orchestrator"
	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <index>",
	Short: "Buy outcome shares in an AMM market",
	Long: `Buy YES or NO shares in an AMM market.

--amount spends a token amount: the share count is estimated from the
displayed price, then the cost is re-quoted from the contract
immediately before submission. --shares buys an exact share count.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuy,
}

var (
	buySide   string
	buyAmount string
	buyShares string
)

func init() {
	rootCmd.AddCommand(buyCmd)

	buyCmd.Flags().StringVar(&buySide, "side", "yes", "Side to buy (yes, no)")
	buyCmd.Flags().StringVar(&buyAmount, "amount", "", "Token amount to spend (e.g. 4.0)")
	buyCmd.Flags().StringVar(&buyShares, "shares", "", "Exact share count to buy")
}

func runBuy(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	index, err := marketIndexArg(args)
	if err != nil {
		return err
	}
	side, err := parseSide(buySide)
	if err != nil {
		return err
	}
	if (buyAmount == "") == (buyShares == "") {
		return fmt.Errorf("pass exactly one of --amount or --shares")
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
	if !lifecycle.Can(v.Snapshot, v.State, lifecycle.Viewer{Address: s.client.From(), Position: v.Position}, lifecycle.ActionBuy) {
		return fmt.Errorf("market %d is not tradeable (state %s)", index, v.State.String())
	}

	var shares *big.Int
	if buyShares != "" {
		var ok bool
		shares, ok = new(big.Int).SetString(buyShares, 10)
		if !ok || shares.Sign() <= 0 {
			return fmt.Errorf("invalid share count %q", buyShares)
		}
	} else {
		amount, err := parseTokenAmount(buyAmount)
		if err != nil {
			return err
		}
		// The displayed price only estimates the share count; the
		// authoritative cost comes from the contract quote below.
		est, ok := quote.SharesForAmount(amount, v.Prices, side)
		if !ok {
			return fmt.Errorf("market price leaves nothing to buy on %s", side.String())
		}
		if err := ensureFreshEstimate(est, s.cfg.QuoteMaxAge); err != nil {
			return err
		}
		shares = est.Amount
		if shares.Sign() == 0 {
			return fmt.Errorf("amount %s buys zero shares at the current price", buyAmount)
		}
	}

	cost, err := market.Quote(ctx, side, shares)
	if err != nil {
		return fmt.Errorf("quote buy: %w", err)
	}

	fmt.Printf("=== Buy %s ===\n\n", side.String())
	fmt.Printf("Market: %s\n", v.Title)
	fmt.Printf("Shares: %s\n", shares.String())
	fmt.Printf("Cost:   %s\n\n", formatTokenAmount(cost))

	if err := confirmSubmission("Submit buy?"); err != nil {
		return err
	}

	spender := market.Address()
	result, err := s.orch.RunSpendThenAct(ctx, &orchestrator.SpendThenAct{
		Label:          "buy",
		Required:       cost,
		ApprovalAmount: chain.MaxUint256,
		ReadAllowance: func(ctx context.Context) (*big.Int, error) {
			return s.token.Allowance(ctx, s.client.From(), spender)
		},
		SubmitApproval: func(ctx context.Context, amount *big.Int) (common.Hash, error) {
			return s.token.Approve(ctx, spender, amount)
		},
		SubmitAction: func(ctx context.Context) (common.Hash, error) {
			return market.Buy(ctx, side, shares)
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

	fmt.Printf("\nBuy complete!\n")
	if result.ApprovalSkipped {
		fmt.Printf("  Approval: skipped (allowance sufficient)\n")
	} else {
		fmt.Printf("  Approval: %s\n", result.ApprovalTx.Hex())
	}
	fmt.Printf("  TX:       %s\n", result.ActionTx.Hex())

	return nil
}
