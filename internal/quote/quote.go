// Package quote holds the pure pricing helpers: odds parsing, required
// counter-stakes, AMM share estimates and payout projections. Nothing in
// here touches the network; everything operates on supplied reads.
package quote

import (
	"math/big"
	"time"

	"github.com/kleoslabs/kleos/pkg/types"
)

// Estimate is a client-side share or proceeds estimate derived from a
// point-in-time price read. It is subject to slippage: the authoritative
// cost must be re-queried from the contract's quote function immediately
// before submission.
type Estimate struct {
	Amount  *big.Int
	BasedOn time.Time
}

// Stale reports whether the estimate's underlying price read is older
// than maxAge and must not be used to submit a trade.
func (e *Estimate) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.BasedOn) > maxAge
}

// SharesForAmount estimates the shares receivable for spending usdcAmount
// (token smallest unit) at the given side price of a price point.
//
// Zero or negative amounts yield a zero estimate rather than an error so
// incremental typing in a form never faults. A price of exactly 0 or 1
// has no meaningful quote; ok is false and no estimate is returned.
func SharesForAmount(usdcAmount *big.Int, price *types.PricePoint, side types.Outcome) (est *Estimate, ok bool) {
	if price == nil {
		return nil, false
	}

	p := price.Side(side)
	if p == nil || p.Sign() <= 0 || p.Cmp(types.PriceScale) >= 0 {
		return nil, false
	}

	if usdcAmount == nil || usdcAmount.Sign() <= 0 {
		return &Estimate{Amount: big.NewInt(0), BasedOn: price.ReadAt}, true
	}

	// shares = amount * scale / price, staying in integer smallest units.
	shares := new(big.Int).Mul(usdcAmount, types.PriceScale)
	shares.Quo(shares, p)

	return &Estimate{Amount: shares, BasedOn: price.ReadAt}, true
}

// ProceedsForShares estimates the settlement-token proceeds of selling
// shares at the given side price. Same zero/unavailable semantics as
// SharesForAmount.
func ProceedsForShares(shares *big.Int, price *types.PricePoint, side types.Outcome) (est *Estimate, ok bool) {
	if price == nil {
		return nil, false
	}

	p := price.Side(side)
	if p == nil || p.Sign() <= 0 || p.Cmp(types.PriceScale) >= 0 {
		return nil, false
	}

	if shares == nil || shares.Sign() <= 0 {
		return &Estimate{Amount: big.NewInt(0), BasedOn: price.ReadAt}, true
	}

	proceeds := new(big.Int).Mul(shares, p)
	proceeds.Quo(proceeds, types.PriceScale)

	return &Estimate{Amount: proceeds, BasedOn: price.ReadAt}, true
}

// PayoutIfWins projects the claimable payout for a position should the
// given side win. Each winning share pays out one settlement-token unit,
// so the payout equals the share count on that side.
func PayoutIfWins(pos *types.Position, side types.Outcome) *big.Int {
	if pos == nil {
		return big.NewInt(0)
	}

	var held *big.Int
	if side == types.OutcomeYes {
		held = pos.Yes
	} else {
		held = pos.No
	}

	if held == nil || held.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Set(held)
}

// PositionValue values a position at current prices: the sum over both
// sides of shares * price. Used for the holdings display only.
func PositionValue(pos *types.Position, price *types.PricePoint) *big.Int {
	total := big.NewInt(0)
	if pos == nil || price == nil {
		return total
	}

	for _, side := range []types.Outcome{types.OutcomeYes, types.OutcomeNo} {
		est, ok := ProceedsForShares(PayoutIfWins(pos, side), price, side)
		if ok {
			total.Add(total, est.Amount)
		}
	}
	return total
}
