package view

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/internal/chain"
	"github.com/kleoslabs/kleos/internal/lifecycle"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMarket struct {
	address  common.Address
	kind     types.MarketType
	snapshot *types.MarketSnapshot
	position *types.Position
	prices   *types.PricePoint
}

func (f *fakeMarket) Address() common.Address { return f.address }
func (f *fakeMarket) Kind() types.MarketType  { return f.kind }

func (f *fakeMarket) Snapshot(ctx context.Context) (*types.MarketSnapshot, error) {
	return f.snapshot, nil
}

func (f *fakeMarket) Position(ctx context.Context, owner common.Address) (*types.Position, error) {
	if f.position != nil {
		return f.position, nil
	}
	return &types.Position{Yes: big.NewInt(0), No: big.NewInt(0)}, nil
}

func (f *fakeMarket) Quote(ctx context.Context, side types.Outcome, amount *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeMarket) Buy(ctx context.Context, side types.Outcome, amount *big.Int) (common.Hash, error) {
	return common.Hash{}, nil
}

func (f *fakeMarket) Sell(ctx context.Context, side types.Outcome, amount *big.Int) (common.Hash, error) {
	return common.Hash{}, nil
}

func (f *fakeMarket) Claim(ctx context.Context) (common.Hash, error) {
	return common.Hash{}, nil
}

func (f *fakeMarket) Resolve(ctx context.Context, outcome types.Outcome) (common.Hash, error) {
	return common.Hash{}, nil
}

// fakeAMM adds the price read surface.
type fakeAMM struct{ fakeMarket }

func (f *fakeAMM) Prices(ctx context.Context) (*types.PricePoint, error) {
	return f.prices, nil
}

type fakeFactory struct {
	markets []chain.Market
}

func (f *fakeFactory) MarketCount(ctx context.Context) (uint64, error) {
	return uint64(len(f.markets)), nil
}

func (f *fakeFactory) MarketAt(ctx context.Context, index uint64) (common.Address, error) {
	return f.markets[index].Address(), nil
}

func (f *fakeFactory) TypeOf(ctx context.Context, market common.Address) (types.MarketType, error) {
	for _, m := range f.markets {
		if m.Address() == market {
			return m.Kind(), nil
		}
	}
	return 0, errors.New("unknown market")
}

func (f *fakeFactory) opener() marketOpener {
	return func(address common.Address, index uint64, kind types.MarketType) (chain.Market, error) {
		return f.markets[index], nil
	}
}

type fakeTitles struct {
	records map[uint64]string
	listErr error
}

func (f *fakeTitles) DisplayTitle(ctx context.Context, index uint64) string {
	if q, ok := f.records[index]; ok && q != "" {
		return q
	}
	return placeholderTitle(index)
}

func (f *fakeTitles) List(ctx context.Context) (map[uint64]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

type fakeToken struct {
	mu        sync.Mutex
	allowance *big.Int
	reads     int
}

func (f *fakeToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.allowance, nil
}

// mapCache is a deterministic in-memory cache for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newMapCache() *mapCache { return &mapCache{data: map[string]interface{}{}} }

func (c *mapCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key string, value interface{}, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return true
}

func (c *mapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *mapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]interface{}{}
}

func (c *mapCache) Close() {}

func challengeSnapshot(index uint64, creator common.Address, endTime time.Time) *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Address:       common.BigToAddress(big.NewInt(int64(index + 100))),
		Index:         index,
		Type:          types.MarketChallenge,
		Creator:       creator,
		EndTime:       endTime,
		Outcome:       types.OutcomeUnresolved,
		CreatorStake:  big.NewInt(10_000_000),
		OpponentStake: big.NewInt(0),
		ReadAt:        time.Now(),
	}
}

func newTestService(t *testing.T, factory *fakeFactory, titles *fakeTitles, token *fakeToken, c *mapCache) *Service {
	t.Helper()
	cfg := &Config{
		Factory:    factory,
		Titles:     titles,
		OpenMarket: factory.opener(),
		Logger:     zap.NewNop(),
	}
	if token != nil {
		cfg.Token = token
	}
	if c != nil {
		cfg.Cache = c
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	return svc
}

func TestMarketAssemblesChallengeView(t *testing.T) {
	creator := common.BigToAddress(big.NewInt(1))
	snap := challengeSnapshot(0, creator, time.Now().Add(time.Hour))
	factory := &fakeFactory{markets: []chain.Market{
		&fakeMarket{address: snap.Address, kind: types.MarketChallenge, snapshot: snap},
	}}
	titles := &fakeTitles{records: map[uint64]string{0: "Will FLR close above $0.05?"}}
	svc := newTestService(t, factory, titles, nil, nil)

	viewer := common.BigToAddress(big.NewInt(2))
	view, err := svc.Market(context.Background(), 0, viewer)
	require.NoError(t, err)

	assert.Equal(t, types.StateWaitingForOpponent, view.State)
	assert.Equal(t, "Will FLR close above $0.05?", view.Title)
	assert.Nil(t, view.Prices)
	assert.Contains(t, view.Actions, lifecycle.ActionAccept)
}

func TestMarketIncludesAMMPrices(t *testing.T) {
	creator := common.BigToAddress(big.NewInt(1))
	amm := &fakeAMM{fakeMarket: fakeMarket{
		address: common.BigToAddress(big.NewInt(100)),
		kind:    types.MarketConstantProduct,
		snapshot: &types.MarketSnapshot{
			Address: common.BigToAddress(big.NewInt(100)),
			Index:   0,
			Type:    types.MarketConstantProduct,
			Creator: creator,
			EndTime: time.Now().Add(time.Hour),
			Outcome: types.OutcomeUnresolved,
			ReadAt:  time.Now(),
		},
		prices: &types.PricePoint{
			Yes:    big.NewInt(400_000_000_000_000_000),
			No:     big.NewInt(600_000_000_000_000_000),
			ReadAt: time.Now(),
		},
	}}
	factory := &fakeFactory{markets: []chain.Market{amm}}
	svc := newTestService(t, factory, &fakeTitles{records: map[uint64]string{}}, nil, nil)

	view, err := svc.Market(context.Background(), 0, common.Address{})
	require.NoError(t, err)

	require.NotNil(t, view.Prices)
	assert.Equal(t, types.StateActive, view.State)
	assert.Nil(t, view.Actions, "no viewer, no actions")
}

func TestMarketsListingFallsBackOnBridgeFailure(t *testing.T) {
	creator := common.BigToAddress(big.NewInt(1))
	snap := challengeSnapshot(0, creator, time.Now().Add(time.Hour))
	factory := &fakeFactory{markets: []chain.Market{
		&fakeMarket{address: snap.Address, kind: types.MarketChallenge, snapshot: snap},
	}}
	titles := &fakeTitles{listErr: errors.New("bridge down")}
	svc := newTestService(t, factory, titles, nil, nil)

	views, err := svc.Markets(context.Background(), common.Address{})
	require.NoError(t, err, "a dead bridge must not hide on-chain markets")
	require.Len(t, views, 1)
	assert.Equal(t, "Market 1", views[0].Title)
}

func TestMarketsListingUsesStoredTitles(t *testing.T) {
	creator := common.BigToAddress(big.NewInt(1))
	snapA := challengeSnapshot(0, creator, time.Now().Add(time.Hour))
	snapB := challengeSnapshot(1, creator, time.Now().Add(time.Hour))
	factory := &fakeFactory{markets: []chain.Market{
		&fakeMarket{address: snapA.Address, kind: types.MarketChallenge, snapshot: snapA},
		&fakeMarket{address: snapB.Address, kind: types.MarketChallenge, snapshot: snapB},
	}}
	titles := &fakeTitles{records: map[uint64]string{0: "stored question"}}
	svc := newTestService(t, factory, titles, nil, nil)

	views, err := svc.Markets(context.Background(), common.Address{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "stored question", views[0].Title)
	assert.Equal(t, "Market 2", views[1].Title)
}

func TestAllowanceCaching(t *testing.T) {
	factory := &fakeFactory{}
	token := &fakeToken{allowance: big.NewInt(500)}
	c := newMapCache()
	svc := newTestService(t, &fakeFactory{markets: factory.markets}, &fakeTitles{}, token, c)

	owner := common.BigToAddress(big.NewInt(1))
	spender := common.BigToAddress(big.NewInt(2))

	for i := 0; i < 3; i++ {
		allowance, err := svc.Allowance(context.Background(), owner, spender)
		require.NoError(t, err)
		assert.Equal(t, int64(500), allowance.Int64())
	}
	assert.Equal(t, 1, token.reads, "repeat reads must hit the cache")

	// Invalidation forces the next read back to the chain.
	svc.InvalidateAllowance(owner, spender)
	_, err := svc.Allowance(context.Background(), owner, spender)
	require.NoError(t, err)
	assert.Equal(t, 2, token.reads)
}

func TestAllowanceCacheKeyedByOwnerAndSpender(t *testing.T) {
	token := &fakeToken{allowance: big.NewInt(7)}
	c := newMapCache()
	svc := newTestService(t, &fakeFactory{}, &fakeTitles{}, token, c)

	owner := common.BigToAddress(big.NewInt(1))
	_, err := svc.Allowance(context.Background(), owner, common.BigToAddress(big.NewInt(2)))
	require.NoError(t, err)
	_, err = svc.Allowance(context.Background(), owner, common.BigToAddress(big.NewInt(3)))
	require.NoError(t, err)

	assert.Equal(t, 2, token.reads, "distinct spenders must not share a cache entry")
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}
