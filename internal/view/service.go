// Package view assembles what a caller sees for a market: the on-chain
// snapshot, the derived lifecycle state, AMM prices where they exist,
// the viewer's position and allowed actions, and the display title from
// the metadata bridge. State is always derived at read time from the
// snapshot and the clock, never stored.
package view

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/pkg/cache"
	"github.com/kleoslabs/kleos/pkg/types"
	"go.uber.org/zap"
)

// factoryReader is the factory surface the service needs.
type factoryReader interface {
	MarketCount(ctx context.Context) (uint64, error)
	MarketAt(ctx context.Context, index uint64) (common.Address, error)
	TypeOf(ctx context.Context, market common.Address) (types.MarketType, error)
}

// allowanceReader reads live token allowances.
type allowanceReader interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

// titleSource resolves display titles from the metadata bridge.
type titleSource interface {
	DisplayTitle(ctx context.Context, index uint64) string
	List(ctx context.Context) (map[uint64]string, error)
}

// marketOpener binds a market contract by address and type tag.
type marketOpener func(address common.Address, index uint64, kind types.MarketType) (chain.Market, error)

// MarketView is the assembled read model for one market.
type MarketView struct {
	Snapshot *types.MarketSnapshot
	State    types.MarketState
	Title    string

	// Prices is set for AMM markets only.
	Prices *types.PricePoint

	// Position and Actions are set when a viewer address is supplied.
	Position *types.Position
	Actions  []lifecycle.Action
}

// Config holds the service's collaborators.
type Config struct {
	Factory    factoryReader
	Token      allowanceReader
	Titles     titleSource
	OpenMarket marketOpener
	Cache      cache.Cache
	Logger     *zap.Logger

	// AllowanceTTL bounds how long a cached allowance read is served.
	AllowanceTTL time.Duration
}

// Service serves market read models.
type Service struct {
	factory    factoryReader
	token      allowanceReader
	titles     titleSource
	openMarket marketOpener
	cache      cache.Cache
	logger     *zap.Logger

	allowanceTTL time.Duration
}

// New creates a view service.
func New(cfg *Config) (*Service, error) {
	if cfg.Factory == nil || cfg.Titles == nil || cfg.OpenMarket == nil {
		return nil, fmt.Errorf("view: missing required collaborator")
	}
	ttl := cfg.AllowanceTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		factory:      cfg.Factory,
		token:        cfg.Token,
		titles:       cfg.Titles,
		openMarket:   cfg.OpenMarket,
		cache:        cfg.Cache,
		logger:       logger,
		allowanceTTL: ttl,
	}, nil
}

// Market assembles the view for one market index. A zero viewer address
// skips position and action resolution.
func (s *Service) Market(ctx context.Context, index uint64, viewer common.Address) (*MarketView, error) {
	market, err := s.open(ctx, index)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, market, index, viewer, nil)
}

// Markets assembles the full listing in creation order. Titles come
// from one bridge round trip; a bridge failure degrades every title to
// its placeholder rather than hiding markets.
func (s *Service) Markets(ctx context.Context, viewer common.Address) ([]*MarketView, error) {
	count, err := s.factory.MarketCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count markets: %w", err)
	}

	titles, err := s.titles.List(ctx)
	if err != nil {
		s.logger.Warn("metadata-listing-degraded", zap.Error(err))
		titles = nil
	}

	views := make([]*MarketView, 0, count)
	for index := uint64(0); index < count; index++ {
		market, err := s.open(ctx, index)
		if err != nil {
			return nil, err
		}
		view, err := s.assemble(ctx, market, index, viewer, titles)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) assemble(ctx context.Context, market chain.Market, index uint64, viewer common.Address, titles map[uint64]string) (*MarketView, error) {
	snapshot, err := market.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot market %d: %w", index, err)
	}

	now := time.Now()
	view := &MarketView{
		Snapshot: snapshot,
		State:    lifecycle.Derive(snapshot, now),
		Title:    s.title(ctx, index, titles),
	}

	if reader, ok := market.(chain.PriceReader); ok {
		prices, err := reader.Prices(ctx)
		if err != nil {
			return nil, fmt.Errorf("read prices market %d: %w", index, err)
		}
		view.Prices = prices
	}

	if viewer != (common.Address{}) {
		position, err := market.Position(ctx, viewer)
		if err != nil {
			return nil, fmt.Errorf("read position market %d: %w", index, err)
		}
		view.Position = position
		view.Actions = lifecycle.AllowedActions(snapshot, view.State, lifecycle.Viewer{
			Address:  viewer,
			Position: position,
		})
	}

	return view, nil
}

func (s *Service) title(ctx context.Context, index uint64, titles map[uint64]string) string {
	if titles != nil {
		if question, ok := titles[index]; ok && question != "" {
			return question
		}
		// The listing round trip succeeded but holds no record for
		// this market.
		return placeholderTitle(index)
	}
	return s.titles.DisplayTitle(ctx, index)
}

func placeholderTitle(index uint64) string {
	return fmt.Sprintf("Market %d", index+1)
}

func (s *Service) open(ctx context.Context, index uint64) (chain.Market, error) {
	address, err := s.factory.MarketAt(ctx, index)
	if err != nil {
		return nil, err
	}
	kind, err := s.factory.TypeOf(ctx, address)
	if err != nil {
		return nil, err
	}
	return s.openMarket(address, index, kind)
}

// Allowance returns the owner's token allowance toward a spender,
// served from cache within the TTL. Orchestrated flows never consult
// this: they re-read the live allowance at decision time.
func (s *Service) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	key := allowanceKey(owner, spender)
	if cached, ok := cache.Lookup[*big.Int](s.cache, key); ok {
		return cached, nil
	}

	allowance, err := s.token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, allowance, s.allowanceTTL)
	}
	return allowance, nil
}

// InvalidateAllowance drops the cached allowance for an owner and
// spender. Hooked to the orchestrator's post-approval callback so every
// later display read reflects the new allowance.
func (s *Service) InvalidateAllowance(owner, spender common.Address) {
	if s.cache != nil {
		s.cache.Delete(allowanceKey(owner, spender))
	}
}

func allowanceKey(owner, spender common.Address) string {
	return fmt.Sprintf("allowance:%s:%s", owner.Hex(), spender.Hex())
}
