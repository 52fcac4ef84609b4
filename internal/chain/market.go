package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/pkg/types"
)

// Market is the capability set every market variant implements. The
// variant is selected from the factory's type tag; semantics differ:
//
//   - Challenge: Quote returns the counter-stake required to accept,
//     Buy funds the open side, Sell is unavailable.
//   - AMM (constant-product, LMSR): Quote returns the authoritative cost
//     of a share amount, Buy/Sell trade shares against the pool.
//
// Claim pays out a resolved position, or reclaims stake from an
// unfulfilled challenge. Resolve records the outcome after close.
type Market interface {
	Address() common.Address
	Kind() types.MarketType
	Snapshot(ctx context.Context) (*types.MarketSnapshot, error)
	Position(ctx context.Context, owner common.Address) (*types.Position, error)
	Quote(ctx context.Context, side types.Outcome, amount *big.Int) (*big.Int, error)
	Buy(ctx context.Context, side types.Outcome, amount *big.Int) (common.Hash, error)
	Sell(ctx context.Context, side types.Outcome, amount *big.Int) (common.Hash, error)
	Claim(ctx context.Context) (common.Hash, error)
	Resolve(ctx context.Context, outcome types.Outcome) (common.Hash, error)
}

// PriceReader is the extra read surface of AMM markets.
type PriceReader interface {
	Prices(ctx context.Context) (*types.PricePoint, error)
}

// SellQuoter quotes the proceeds of selling shares. Only AMM markets
// implement it; challenge markets have no sell.
type SellQuoter interface {
	QuoteSell(ctx context.Context, side types.Outcome, shares *big.Int) (*big.Int, error)
}

// NewMarket binds a market contract under its factory type tag.
func NewMarket(client *Client, address common.Address, index uint64, kind types.MarketType) (Market, error) {
	switch kind {
	case types.MarketChallenge:
		return &challengeMarket{client: client, address: address, index: index}, nil
	case types.MarketConstantProduct, types.MarketLMSR:
		return &ammMarket{client: client, address: address, index: index, kind: kind}, nil
	default:
		return nil, fmt.Errorf("unknown market type %d", kind)
	}
}

const challengeABIJSON = `[
	{"constant":true,"inputs":[],"name":"creator","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"opponent","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"creatorSide","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"creatorStake","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"opponentStake","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"requiredOpponentStake","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"endTime","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"outcome","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"amount","type":"uint256"}],"name":"accept","outputs":[],"type":"function"},
	{"constant":false,"inputs":[],"name":"claim","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"result","type":"uint8"}],"name":"resolve","outputs":[],"type":"function"}
]`

var challengeABI = mustParseABI(challengeABIJSON)

type challengeMarket struct {
	client  *Client
	address common.Address
	index   uint64
}

func (m *challengeMarket) Address() common.Address { return m.address }
func (m *challengeMarket) Kind() types.MarketType  { return types.MarketChallenge }

func (m *challengeMarket) Snapshot(ctx context.Context) (*types.MarketSnapshot, error) {
	creator, err := m.client.call(ctx, m.address, challengeABI, "creator")
	if err != nil {
		return nil, err
	}
	endTime, err := m.readUint(ctx, "endTime")
	if err != nil {
		return nil, err
	}
	outcome, err := m.readUint8(ctx, "outcome")
	if err != nil {
		return nil, err
	}
	creatorStake, err := m.readUint(ctx, "creatorStake")
	if err != nil {
		return nil, err
	}
	opponentStake, err := m.readUint(ctx, "opponentStake")
	if err != nil {
		return nil, err
	}

	return &types.MarketSnapshot{
		Address:       m.address,
		Index:         m.index,
		Type:          types.MarketChallenge,
		Creator:       creator[0].(common.Address),
		EndTime:       time.Unix(endTime.Int64(), 0),
		Outcome:       types.Outcome(outcome),
		CreatorStake:  creatorStake,
		OpponentStake: opponentStake,
		ReadAt:        time.Now(),
	}, nil
}

// Position reports the owner's stake per side. The challenge contract
// tracks two parties, each bound to one side at funding time.
func (m *challengeMarket) Position(ctx context.Context, owner common.Address) (*types.Position, error) {
	creator, err := m.client.call(ctx, m.address, challengeABI, "creator")
	if err != nil {
		return nil, err
	}
	opponent, err := m.client.call(ctx, m.address, challengeABI, "opponent")
	if err != nil {
		return nil, err
	}
	creatorSide, err := m.readUint8(ctx, "creatorSide")
	if err != nil {
		return nil, err
	}

	pos := &types.Position{Yes: big.NewInt(0), No: big.NewInt(0)}

	assign := func(stake *big.Int, side types.Outcome) {
		if side == types.OutcomeYes {
			pos.Yes = stake
		} else {
			pos.No = stake
		}
	}

	if owner == creator[0].(common.Address) {
		stake, err := m.readUint(ctx, "creatorStake")
		if err != nil {
			return nil, err
		}
		assign(stake, types.Outcome(creatorSide))
	}
	if owner == opponent[0].(common.Address) {
		stake, err := m.readUint(ctx, "opponentStake")
		if err != nil {
			return nil, err
		}
		assign(stake, opposite(types.Outcome(creatorSide)))
	}

	return pos, nil
}

// Quote returns the counter-stake required to accept the challenge, read
// from the contract so the submitted amount matches its own arithmetic.
func (m *challengeMarket) Quote(ctx context.Context, _ types.Outcome, _ *big.Int) (*big.Int, error) {
	return m.readUint(ctx, "requiredOpponentStake")
}

// Buy funds the open side of the challenge with the given stake. The
// side is fixed by the contract (opposite the creator's); the argument
// is accepted for interface symmetry but not transmitted.
func (m *challengeMarket) Buy(ctx context.Context, _ types.Outcome, amount *big.Int) (common.Hash, error) {
	return m.client.send(ctx, m.address, challengeABI, "accept", gasLimitTrade, amount)
}

func (m *challengeMarket) Sell(_ context.Context, _ types.Outcome, _ *big.Int) (common.Hash, error) {
	return common.Hash{}, fmt.Errorf("challenge markets have no sell: %w", types.ErrActionUnavailable)
}

func (m *challengeMarket) Claim(ctx context.Context) (common.Hash, error) {
	return m.client.send(ctx, m.address, challengeABI, "claim", gasLimitTrade)
}

func (m *challengeMarket) Resolve(ctx context.Context, outcome types.Outcome) (common.Hash, error) {
	return m.client.send(ctx, m.address, challengeABI, "resolve", gasLimitTrade, uint8(outcome))
}

func (m *challengeMarket) readUint(ctx context.Context, method string) (*big.Int, error) {
	out, err := m.client.call(ctx, m.address, challengeABI, method)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (m *challengeMarket) readUint8(ctx context.Context, method string) (uint8, error) {
	out, err := m.client.call(ctx, m.address, challengeABI, method)
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

func opposite(side types.Outcome) types.Outcome {
	if side == types.OutcomeYes {
		return types.OutcomeNo
	}
	return types.OutcomeYes
}

const ammABIJSON = `[
	{"constant":true,"inputs":[],"name":"creator","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"endTime","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"outcome","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"priceYes","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"priceNo","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"yesShares","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"noShares","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"quoteBuyYes","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"quoteBuyNo","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"quoteSellYes","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"shares","type":"uint256"}],"name":"quoteSellNo","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"shares","type":"uint256"}],"name":"buyYes","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"shares","type":"uint256"}],"name":"buyNo","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"shares","type":"uint256"}],"name":"sellYes","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"shares","type":"uint256"}],"name":"sellNo","outputs":[],"type":"function"},
	{"constant":false,"inputs":[],"name":"claim","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"result","type":"uint8"}],"name":"resolve","outputs":[],"type":"function"}
]`

var ammABI = mustParseABI(ammABIJSON)

type ammMarket struct {
	client  *Client
	address common.Address
	index   uint64
	kind    types.MarketType
}

func (m *ammMarket) Address() common.Address { return m.address }
func (m *ammMarket) Kind() types.MarketType  { return m.kind }

func (m *ammMarket) Snapshot(ctx context.Context) (*types.MarketSnapshot, error) {
	creator, err := m.client.call(ctx, m.address, ammABI, "creator")
	if err != nil {
		return nil, err
	}
	endTime, err := m.readUint(ctx, "endTime")
	if err != nil {
		return nil, err
	}
	out, err := m.client.call(ctx, m.address, ammABI, "outcome")
	if err != nil {
		return nil, err
	}

	return &types.MarketSnapshot{
		Address: m.address,
		Index:   m.index,
		Type:    m.kind,
		Creator: creator[0].(common.Address),
		EndTime: time.Unix(endTime.Int64(), 0),
		Outcome: types.Outcome(out[0].(uint8)),
		ReadAt:  time.Now(),
	}, nil
}

// Prices reads both side prices. The pair is a point-in-time quote: the
// sides need not sum to one, and any trade must re-quote before submit.
func (m *ammMarket) Prices(ctx context.Context) (*types.PricePoint, error) {
	yes, err := m.readUint(ctx, "priceYes")
	if err != nil {
		return nil, err
	}
	no, err := m.readUint(ctx, "priceNo")
	if err != nil {
		return nil, err
	}
	return &types.PricePoint{Yes: yes, No: no, ReadAt: time.Now()}, nil
}

func (m *ammMarket) Position(ctx context.Context, owner common.Address) (*types.Position, error) {
	yes, err := m.readUintArg(ctx, "yesShares", owner)
	if err != nil {
		return nil, err
	}
	no, err := m.readUintArg(ctx, "noShares", owner)
	if err != nil {
		return nil, err
	}
	return &types.Position{Yes: yes, No: no}, nil
}

// Quote returns the authoritative settlement-token cost of buying the
// given share amount, straight from the contract's own pricing.
func (m *ammMarket) Quote(ctx context.Context, side types.Outcome, shares *big.Int) (*big.Int, error) {
	return m.readUintArg(ctx, sideMethod("quoteBuy", side), shares)
}

// QuoteSell returns the authoritative proceeds of selling shares.
func (m *ammMarket) QuoteSell(ctx context.Context, side types.Outcome, shares *big.Int) (*big.Int, error) {
	return m.readUintArg(ctx, sideMethod("quoteSell", side), shares)
}

func (m *ammMarket) Buy(ctx context.Context, side types.Outcome, shares *big.Int) (common.Hash, error) {
	return m.client.send(ctx, m.address, ammABI, sideMethod("buy", side), gasLimitTrade, shares)
}

func (m *ammMarket) Sell(ctx context.Context, side types.Outcome, shares *big.Int) (common.Hash, error) {
	return m.client.send(ctx, m.address, ammABI, sideMethod("sell", side), gasLimitTrade, shares)
}

func (m *ammMarket) Claim(ctx context.Context) (common.Hash, error) {
	return m.client.send(ctx, m.address, ammABI, "claim", gasLimitTrade)
}

func (m *ammMarket) Resolve(ctx context.Context, outcome types.Outcome) (common.Hash, error) {
	return m.client.send(ctx, m.address, ammABI, "resolve", gasLimitTrade, uint8(outcome))
}

func (m *ammMarket) readUint(ctx context.Context, method string) (*big.Int, error) {
	out, err := m.client.call(ctx, m.address, ammABI, method)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (m *ammMarket) readUintArg(ctx context.Context, method string, arg interface{}) (*big.Int, error) {
	out, err := m.client.call(ctx, m.address, ammABI, method, arg)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func sideMethod(prefix string, side types.Outcome) string {
	if side == types.OutcomeYes {
		return prefix + "Yes"
	}
	return prefix + "No"
}
