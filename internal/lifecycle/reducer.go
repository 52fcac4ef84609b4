// Package lifecycle derives a market's discrete state and the actions
// valid in that state from raw contract reads. States are computed, never
// stored: callers re-derive after every confirmed transaction instead of
// mutating local state optimistically.
package lifecycle

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kleoslabs/kleos/pkg/types"
)

// Action is an operation the UI may offer. The reducer is the single
// authority on which actions exist in a given state; anything it does not
// list must not be offered.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionBuy     Action = "buy"
	ActionSell    Action = "sell"
	ActionClaim   Action = "claim"
	ActionResolve Action = "resolve"
)

// Viewer identifies the participant the action set is computed for.
type Viewer struct {
	Address  common.Address
	Position *types.Position
}

// Derive maps a snapshot and the live clock to a lifecycle state. It is a
// pure function of its inputs; the same snapshot and clock always produce
// the same state regardless of call order.
//
// The clock is passed in rather than read here because the caller must
// use a live time source: a page or process can stay open across the end
// boundary, and a time cached at load would keep a closed market active.
func Derive(s *types.MarketSnapshot, now time.Time) types.MarketState {
	if s.Outcome != types.OutcomeUnresolved {
		return types.StateResolved
	}

	closed := now.After(s.EndTime)

	if s.Type.IsAMM() {
		// AMM markets are live from creation; they never wait for a
		// counterparty.
		if closed {
			return types.StateClosed
		}
		return types.StateActive
	}

	funded := bothSidesFunded(s)
	if closed {
		if !funded {
			return types.StateUnfulfilled
		}
		return types.StateClosed
	}
	if !funded {
		return types.StateWaitingForOpponent
	}
	return types.StateActive
}

func bothSidesFunded(s *types.MarketSnapshot) bool {
	return s.CreatorStake != nil && s.CreatorStake.Sign() > 0 &&
		s.OpponentStake != nil && s.OpponentStake.Sign() > 0
}

// AllowedActions returns exactly the operations valid for the viewer in
// the derived state:
//
//   - accept: WaitingForOpponent, challenge markets, non-creator only
//   - buy/sell: Active, AMM markets only
//   - resolve: Closed with the outcome still unresolved
//   - claim: Resolved for a funded participant, or Unfulfilled for any
//     participant who funded a side and may reclaim their stake
func AllowedActions(s *types.MarketSnapshot, state types.MarketState, v Viewer) []Action {
	var actions []Action

	switch state {
	case types.StateWaitingForOpponent:
		if s.Type == types.MarketChallenge && v.Address != s.Creator {
			actions = append(actions, ActionAccept)
		}

	case types.StateActive:
		if s.Type.IsAMM() {
			actions = append(actions, ActionBuy, ActionSell)
		}

	case types.StateClosed:
		if s.Outcome == types.OutcomeUnresolved {
			actions = append(actions, ActionResolve)
		}

	case types.StateResolved:
		if winningPosition(s.Outcome, v.Position) {
			actions = append(actions, ActionClaim)
		}

	case types.StateUnfulfilled:
		if v.Position.Funded() {
			actions = append(actions, ActionClaim)
		}
	}

	return actions
}

func winningPosition(outcome types.Outcome, pos *types.Position) bool {
	if pos == nil {
		return false
	}
	switch outcome {
	case types.OutcomeYes:
		return pos.Yes != nil && pos.Yes.Sign() > 0
	case types.OutcomeNo:
		return pos.No != nil && pos.No.Sign() > 0
	default:
		return false
	}
}

// Can reports whether a single action is in the allowed set. Handlers
// gate every submission on this rather than trusting their own state.
func Can(s *types.MarketSnapshot, state types.MarketState, v Viewer, action Action) bool {
	for _, a := range AllowedActions(s, state, v) {
		if a == action {
			return true
		}
	}
	return false
}
