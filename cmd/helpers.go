package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/epoch"
	"github.com/kleoslabs/kleos/internal/metadata"
	"github.com/kleoslabs/kleos/internal/orchestrator"
	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/kleoslabs/kleos/internal/view"
	"github.com/kleoslabs/kleos/pkg/cache"
	"github.com/kleoslabs/kleos/pkg/config"
	"github.com/kleoslabs/kleos/pkg/types"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var assumeYes bool

// stack bundles the collaborators every command wires up the same way.
type stack struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *chain.Client
	factory *chain.Factory
	token   *chain.Token
	orch    *orchestrator.Orchestrator
	meta    *metadata.Client
	views   *view.Service
}

// newStack loads config and connects the chain client. Read-only
// commands pass needSigner=false and run without a private key.
func newStack(ctx context.Context, needSigner bool) (*stack, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if needSigner {
		if err := cfg.RequireSigner(); err != nil {
			return nil, err
		}
	} else if cfg.FactoryAddress == "" {
		return nil, fmt.Errorf("FACTORY_ADDRESS cannot be empty")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	client, err := chain.Dial(ctx, &chain.Config{
		RPCURL:         cfg.RPCURL,
		PrivateKey:     cfg.PrivateKey,
		ConfirmPoll:    cfg.ConfirmPollInterval,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect chain: %w", err)
	}

	factory := chain.NewFactory(client, common.HexToAddress(cfg.FactoryAddress))
	token := chain.NewToken(client, common.HexToAddress(cfg.TokenAddress))

	orch, err := orchestrator.New(logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	meta, err := metadata.NewClient(cfg.MetadataURL)
	if err != nil {
		client.Close()
		return nil, err
	}

	viewCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		MaxEntries: 1_000,
		Logger:     logger,
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("build cache: %w", err)
	}

	views, err := view.New(&view.Config{
		Factory: factory,
		Token:   token,
		Titles:  meta,
		OpenMarket: func(address common.Address, index uint64, kind types.MarketType) (chain.Market, error) {
			return chain.NewMarket(client, address, index, kind)
		},
		Cache:  viewCache,
		Logger: logger,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	return &stack{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		factory: factory,
		token:   token,
		orch:    orch,
		meta:    meta,
		views:   views,
	}, nil
}

func (s *stack) close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// openMarket binds the market at an index under its factory type tag.
func (s *stack) openMarket(ctx context.Context, index uint64) (chain.Market, error) {
	address, err := s.factory.MarketAt(ctx, index)
	if err != nil {
		return nil, err
	}
	kind, err := s.factory.TypeOf(ctx, address)
	if err != nil {
		return nil, err
	}
	return chain.NewMarket(s.client, address, index, kind)
}

// confirmSubmission asks before submitting a transaction. Declining
// maps to the rejected-by-user failure class, the same as a wallet
// rejection.
func confirmSubmission(prompt string) error {
	if assumeYes {
		return nil
	}

	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return types.ErrTransactionRejected
	}
	return nil
}

// parseTokenAmount converts a user-entered decimal token amount (e.g.
// "10.5") to smallest units without passing through floats.
func parseTokenAmount(s string) (*big.Int, error) {
	amount, err := epoch.ScaleThreshold(s, types.TokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", s)
	}
	return amount, nil
}

// formatTokenAmount renders smallest units as a decimal token amount.
func formatTokenAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return epoch.FormatThreshold(amount, types.TokenDecimals)
}

// ensureFreshEstimate rejects a trade built on an estimate whose
// underlying price read has aged past maxAge.
func ensureFreshEstimate(est *quote.Estimate, maxAge time.Duration) error {
	if est.Stale(time.Now(), maxAge) {
		return fmt.Errorf("price read from %s is older than %s: %w",
			est.BasedOn.Format(time.RFC3339), maxAge, types.ErrStaleQuote)
	}
	return nil
}

// parseSide maps "yes"/"no" to an outcome.
func parseSide(s string) (types.Outcome, error) {
	switch strings.ToLower(s) {
	case "yes":
		return types.OutcomeYes, nil
	case "no":
		return types.OutcomeNo, nil
	default:
		return types.OutcomeUnresolved, fmt.Errorf("side must be yes or no, got %q", s)
	}
}

// marketIndexArg parses the positional market index argument.
func marketIndexArg(args []string) (uint64, error) {
	index, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid market index %q", args[0])
	}
	return index, nil
}
