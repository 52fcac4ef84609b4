package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MarketType identifies which settlement contract backs a market.
// The tag is stored by the factory at creation time; the client never
// probes a contract to guess its type.
type MarketType uint8

const (
	// MarketChallenge is a two-party escrowed challenge that activates
	// once both sides are funded.
	MarketChallenge MarketType = iota

	// MarketConstantProduct is a constant-product AMM.
	MarketConstantProduct

	// MarketLMSR is a logarithmic market scoring rule AMM.
	MarketLMSR
)

func (t MarketType) String() string {
	switch t {
	case MarketChallenge:
		return "challenge"
	case MarketConstantProduct:
		return "constant-product"
	case MarketLMSR:
		return "lmsr"
	default:
		return "unknown"
	}
}

// IsAMM reports whether the market prices trades from pool state.
func (t MarketType) IsAMM() bool {
	return t == MarketConstantProduct || t == MarketLMSR
}

// Outcome is the resolved result of a market.
// Wire encoding matches the contracts: 0 unresolved, 1 yes, 2 no.
type Outcome uint8

const (
	OutcomeUnresolved Outcome = iota
	OutcomeYes
	OutcomeNo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "YES"
	case OutcomeNo:
		return "NO"
	default:
		return "UNRESOLVED"
	}
}

// MarketState is the derived lifecycle state of a market. It is never
// stored; it is recomputed from fresh contract reads and the live clock.
type MarketState uint8

const (
	StateWaitingForOpponent MarketState = iota
	StateActive
	StateClosed
	StateResolved
	StateUnfulfilled
)

func (s MarketState) String() string {
	switch s {
	case StateWaitingForOpponent:
		return "waiting-for-opponent"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateResolved:
		return "resolved"
	case StateUnfulfilled:
		return "unfulfilled"
	default:
		return "unknown"
	}
}

// TokenDecimals is the settlement token's decimal count. Stakes, shares
// and quotes are carried in the token's integer smallest unit.
const TokenDecimals = 6

// PriceScale is the fixed-point scale of AMM price reads: a price of
// 1.0 is 1e18.
var PriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MarketSnapshot is a point-in-time read of a market's on-chain fields.
// Every field may lag the chain; consumers must re-read before acting
// on anything that moves (prices, pools, allowance).
type MarketSnapshot struct {
	Address common.Address
	Index   uint64
	Type    MarketType
	Creator common.Address
	EndTime time.Time
	Outcome Outcome

	// Challenge pools. Nil for AMM markets.
	CreatorStake  *big.Int
	OpponentStake *big.Int

	ReadAt time.Time
}

// PricePoint is a pair of AMM price reads scaled by PriceScale. The two
// sides are not guaranteed to sum to one and are quotes, not guarantees.
type PricePoint struct {
	Yes    *big.Int
	No     *big.Int
	ReadAt time.Time
}

// Side returns the price for the given outcome side.
func (p *PricePoint) Side(side Outcome) *big.Int {
	if side == OutcomeYes {
		return p.Yes
	}
	return p.No
}

// Position is a participant's stake in a market, per side, in the
// settlement token's smallest unit.
type Position struct {
	Yes *big.Int
	No  *big.Int
}

// Funded reports whether the participant has nonzero stake on either side.
func (p *Position) Funded() bool {
	if p == nil {
		return false
	}
	return (p.Yes != nil && p.Yes.Sign() > 0) || (p.No != nil && p.No.Sign() > 0)
}

// OddsSpec is a challenge market's creator:opponent stake ratio plus the
// creator's chosen side.
type OddsSpec struct {
	Creator  uint64
	Opponent uint64
	Side     Outcome
}

// ResolutionSpec binds a market to an oracle feed for resolution: the
// feed, the price threshold in the oracle's fixed-point convention, and
// the epoch covering the market's end time.
type ResolutionSpec struct {
	FeedID    string
	Threshold *big.Int
	Epoch     uint64
}

// PendingMetadata correlates a submitted creation transaction with its
// descriptive text until the on-chain index is known. It lives only for
// the duration of the creation sequence.
type PendingMetadata struct {
	SequenceID string
	Question   string
}
