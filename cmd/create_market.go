package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/epoch"
	"github.com/kleoslabs/kleos/internal/orchestrator"
	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/spf13/cobra"
)

var createMarketCmd = &cobra.Command{
	Use:   "create-market",
	Short: "Create a new market",
	Long: `Create a new market and store its question in the metadata bridge.

Challenge markets escrow your stake at fixed odds and wait for an
opponent to fund the other side. AMM markets (cpmm, lmsr) are tradeable
immediately.

Binding a market to an oracle feed makes it resolvable from FTSO data:
the resolution epoch is computed from the market duration at submission
time, so changing --duration changes the target epoch.`,
	RunE: runCreateMarket,
}

var (
	createType      string
	createQuestion  string
	createDuration  time.Duration
	createOdds      string
	createSide      string
	createStake     string
	createFeedID    string
	createThreshold string
)

func init() {
	rootCmd.AddCommand(createMarketCmd)

	createMarketCmd.Flags().StringVarP(&createType, "type", "t", "challenge", "Market type (challenge, cpmm, lmsr)")
	createMarketCmd.Flags().StringVarP(&createQuestion, "question", "q", "", "Market question for the metadata bridge")
	createMarketCmd.Flags().DurationVarP(&createDuration, "duration", "d", 24*time.Hour, "Time until the market closes")
	createMarketCmd.Flags().StringVar(&createOdds, "odds", "1:1", "Challenge odds as creator:opponent (e.g. 1:2)")
	createMarketCmd.Flags().StringVar(&createSide, "side", "yes", "Challenge creator side (yes, no)")
	createMarketCmd.Flags().StringVar(&createStake, "stake", "", "Challenge creator stake in tokens (e.g. 10.5)")
	createMarketCmd.Flags().StringVar(&createFeedID, "feed", "", "Oracle feed ID (empty for manual resolution)")
	createMarketCmd.Flags().StringVar(&createThreshold, "threshold", "", "Oracle price threshold (e.g. 0.05)")
}

func parseMarketType(s string) (types.MarketType, error) {
	switch s {
	case "challenge":
		return types.MarketChallenge, nil
	case "cpmm":
		return types.MarketConstantProduct, nil
	case "lmsr":
		return types.MarketLMSR, nil
	default:
		return 0, fmt.Errorf("market type must be challenge, cpmm or lmsr, got %q", s)
	}
}

func runCreateMarket(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	marketType, err := parseMarketType(createType)
	if err != nil {
		return err
	}

	s, err := newStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	params := &chain.CreateParams{
		Type:            marketType,
		DurationSeconds: uint64(createDuration.Seconds()),
	}

	var required *big.Int
	if marketType == types.MarketChallenge {
		if createStake == "" {
			return fmt.Errorf("challenge markets need --stake")
		}
		stake, err := parseTokenAmount(createStake)
		if err != nil {
			return err
		}
		creatorRatio, opponentRatio, err := quote.ParseOdds(createOdds)
		if err != nil {
			return err
		}
		side, err := parseSide(createSide)
		if err != nil {
			return err
		}

		params.CreatorRatio = creatorRatio
		params.OpponentRatio = opponentRatio
		params.CreatorSide = side
		params.CreatorStake = stake
		required = stake

		counterStake := quote.CounterStake(stake, creatorRatio, opponentRatio)
		fmt.Printf("=== Create Challenge Market ===\n\n")
		fmt.Printf("Side:           %s\n", side.String())
		fmt.Printf("Odds:           %s\n", createOdds)
		fmt.Printf("Your stake:     %s\n", formatTokenAmount(stake))
		fmt.Printf("Opponent needs: %s\n", formatTokenAmount(counterStake))
	} else {
		fmt.Printf("=== Create %s Market ===\n\n", marketType.String())
	}
	fmt.Printf("Duration:       %s\n", createDuration)

	if createFeedID != "" {
		if createThreshold == "" {
			return fmt.Errorf("--feed needs --threshold")
		}
		threshold, err := epoch.ScaleThreshold(createThreshold, s.cfg.OracleDecimals)
		if err != nil {
			return fmt.Errorf("invalid threshold: %w", err)
		}

		// The epoch is computed from the duration at submission time,
		// never earlier: the resolution target must match the close
		// time actually submitted.
		epochID, err := epoch.Compute(time.Now().Unix(), int64(createDuration.Seconds()), int64(s.cfg.EpochLengthSeconds))
		if err != nil {
			return fmt.Errorf("compute epoch: %w", err)
		}

		params.Resolution = &types.ResolutionSpec{
			FeedID:    createFeedID,
			Threshold: threshold,
			Epoch:     epochID,
		}
		fmt.Printf("Oracle feed:    %s\n", createFeedID)
		fmt.Printf("Threshold:      %s (raw %s)\n", epoch.FormatThreshold(threshold, s.cfg.OracleDecimals), threshold.String())
		fmt.Printf("Epoch:          %d\n", epochID)
	} else {
		fmt.Printf("Resolution:     manual\n")
	}
	fmt.Printf("\n")

	if err := confirmSubmission("Submit market creation?"); err != nil {
		return err
	}

	p := &orchestrator.ActThenPersist{
		Label:    "create-market",
		Question: createQuestion,
		SubmitAction: func(ctx context.Context) (common.Hash, error) {
			return s.factory.Create(ctx, params)
		},
		Confirm: func(ctx context.Context, tx common.Hash) error {
			_, err := s.client.WaitForReceipt(ctx, tx)
			return err
		},
		DeriveIndex: func(ctx context.Context) (uint64, error) {
			count, err := s.factory.MarketCount(ctx)
			if err != nil {
				return 0, err
			}
			if count == 0 {
				return 0, fmt.Errorf("market count is zero after confirmed creation")
			}
			return count - 1, nil
		},
		Persist: func(ctx context.Context, index uint64) error {
			if createQuestion == "" {
				return nil
			}
			return s.meta.Upsert(ctx, index, createQuestion)
		},
	}

	if required != nil {
		spender := s.factory.Address()
		p.Required = required
		p.ApprovalAmount = chain.MaxUint256
		p.ReadAllowance = func(ctx context.Context) (*big.Int, error) {
			return s.token.Allowance(ctx, s.client.From(), spender)
		}
		p.SubmitApproval = func(ctx context.Context, amount *big.Int) (common.Hash, error) {
			return s.token.Approve(ctx, spender, amount)
		}
		p.OnApproved = func() {
			s.views.InvalidateAllowance(s.client.From(), spender)
		}
	}

	result, err := s.orch.RunActThenPersist(ctx, p)
	if err != nil {
		return err
	}

	fmt.Printf("\nMarket created!\n")
	fmt.Printf("  Index: %d\n", result.MarketIndex)
	fmt.Printf("  TX:    %s\n", result.ActionTx.Hex())
	if result.PersistWarning != nil {
		fmt.Printf("\nWarning: the market exists on-chain, but storing its question failed:\n")
		fmt.Printf("  %v\n", result.PersistWarning)
		fmt.Printf("It will display as \"Market %d\" until the metadata is stored.\n", result.MarketIndex+1)
	}

	return nil
}
