package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/pkg/types"
)

const factoryABIJSON = `[
	{"inputs":[{"name":"duration","type":"uint256"},{"name":"creatorRatio","type":"uint256"},{"name":"opponentRatio","type":"uint256"},{"name":"creatorSide","type":"uint8"},{"name":"creatorStake","type":"uint256"},{"name":"feedId","type":"bytes32"},{"name":"threshold","type":"uint256"},{"name":"epoch","type":"uint256"}],"name":"createChallengeMarket","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"inputs":[{"name":"marketType","type":"uint8"},{"name":"duration","type":"uint256"},{"name":"feedId","type":"bytes32"},{"name":"threshold","type":"uint256"},{"name":"epoch","type":"uint256"}],"name":"createAmmMarket","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"marketCount","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"markets","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getAllMarkets","outputs":[{"name":"","type":"address[]"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"market","type":"address"}],"name":"marketTypes","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var factoryABI = mustParseABI(factoryABIJSON)

// Factory binds the market factory contract. The factory stores an
// explicit type tag per market at creation; the client reads the tag
// instead of probing market contracts to guess their variant.
type Factory struct {
	client  *Client
	address common.Address
}

// NewFactory binds the factory contract.
func NewFactory(client *Client, address common.Address) *Factory {
	return &Factory{client: client, address: address}
}

// Address returns the factory contract address.
func (f *Factory) Address() common.Address {
	return f.address
}

// MarketCount reads the number of markets the factory has deployed.
// After a creation confirms, the new market's index is count-1 as read
// here, never a pre-submission guess: concurrent creations shift indexes.
func (f *Factory) MarketCount(ctx context.Context) (uint64, error) {
	out, err := f.client.call(ctx, f.address, factoryABI, "marketCount")
	if err != nil {
		return 0, fmt.Errorf("get market count: %w", err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

// MarketAt reads the market address at the given index.
func (f *Factory) MarketAt(ctx context.Context, index uint64) (common.Address, error) {
	out, err := f.client.call(ctx, f.address, factoryABI, "markets", new(big.Int).SetUint64(index))
	if err != nil {
		return common.Address{}, fmt.Errorf("get market %d: %w", index, err)
	}
	return out[0].(common.Address), nil
}

// AllMarkets reads every deployed market address in creation order.
func (f *Factory) AllMarkets(ctx context.Context) ([]common.Address, error) {
	out, err := f.client.call(ctx, f.address, factoryABI, "getAllMarkets")
	if err != nil {
		return nil, fmt.Errorf("get all markets: %w", err)
	}
	return out[0].([]common.Address), nil
}

// TypeOf reads the factory's type tag for a market.
func (f *Factory) TypeOf(ctx context.Context, market common.Address) (types.MarketType, error) {
	out, err := f.client.call(ctx, f.address, factoryABI, "marketTypes", market)
	if err != nil {
		return 0, fmt.Errorf("get market type: %w", err)
	}
	return types.MarketType(out[0].(uint8)), nil
}

// CreateParams describes a market creation. Resolution is optional: a
// zero FeedID leaves the market on manual resolution.
type CreateParams struct {
	Type            types.MarketType
	DurationSeconds uint64

	// Challenge only.
	CreatorRatio  uint64
	OpponentRatio uint64
	CreatorSide   types.Outcome
	CreatorStake  *big.Int

	// Optional oracle binding.
	Resolution *types.ResolutionSpec
}

// Create submits the creation transaction for the given parameters.
func (f *Factory) Create(ctx context.Context, p *CreateParams) (common.Hash, error) {
	var feedID [32]byte
	threshold := big.NewInt(0)
	epoch := big.NewInt(0)
	if p.Resolution != nil {
		copy(feedID[:], p.Resolution.FeedID)
		threshold = p.Resolution.Threshold
		epoch = new(big.Int).SetUint64(p.Resolution.Epoch)
	}

	duration := new(big.Int).SetUint64(p.DurationSeconds)

	if p.Type == types.MarketChallenge {
		return f.client.send(ctx, f.address, factoryABI, "createChallengeMarket", gasLimitCreate,
			duration,
			new(big.Int).SetUint64(p.CreatorRatio),
			new(big.Int).SetUint64(p.OpponentRatio),
			uint8(p.CreatorSide),
			p.CreatorStake,
			feedID, threshold, epoch)
	}

	return f.client.send(ctx, f.address, factoryABI, "createAmmMarket", gasLimitCreate,
		uint8(p.Type), duration, feedID, threshold, epoch)
}
