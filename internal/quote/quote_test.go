package quote

import (
	"math/big"
	"testing"
	"time"

	"github.com/kleoslabs/kleos/pkg/types"
)

func pricePoint(yes, no float64) *types.PricePoint {
	scale := func(p float64) *big.Int {
		f := new(big.Float).Mul(big.NewFloat(p), new(big.Float).SetInt(types.PriceScale))
		out, _ := f.Int(nil)
		return out
	}
	return &types.PricePoint{Yes: scale(yes), No: scale(no), ReadAt: time.Now()}
}

func TestSharesForAmount(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		priceYes   float64
		priceNo    float64
		side       types.Outcome
		wantOK     bool
		wantShares int64
	}{
		{
			// 4 units at priceYes 0.40 buys an estimated 10 shares.
			name:       "four-usdc-at-forty-cents",
			amount:     4_000_000,
			priceYes:   0.40,
			priceNo:    0.60,
			side:       types.OutcomeYes,
			wantOK:     true,
			wantShares: 10_000_000,
		},
		{
			name:       "no-side-uses-no-price",
			amount:     3_000_000,
			priceYes:   0.40,
			priceNo:    0.60,
			side:       types.OutcomeNo,
			wantOK:     true,
			wantShares: 5_000_000,
		},
		{
			// Incremental typing: empty or zero input quotes zero, not error.
			name:       "zero-amount-quotes-zero",
			amount:     0,
			priceYes:   0.40,
			priceNo:    0.60,
			side:       types.OutcomeYes,
			wantOK:     true,
			wantShares: 0,
		},
		{
			name:       "negative-amount-quotes-zero",
			amount:     -5,
			priceYes:   0.40,
			priceNo:    0.60,
			side:       types.OutcomeYes,
			wantOK:     true,
			wantShares: 0,
		},
		{
			name:     "price-zero-unavailable",
			amount:   1_000_000,
			priceYes: 0,
			priceNo:  1,
			side:     types.OutcomeYes,
			wantOK:   false,
		},
		{
			name:     "price-one-unavailable",
			amount:   1_000_000,
			priceYes: 1,
			priceNo:  0,
			side:     types.OutcomeYes,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, ok := SharesForAmount(big.NewInt(tt.amount), pricePoint(tt.priceYes, tt.priceNo), tt.side)

			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if est.Amount.Int64() != tt.wantShares {
				t.Errorf("shares = %d, want %d", est.Amount.Int64(), tt.wantShares)
			}
		})
	}
}

func TestSharesForAmountNilPrice(t *testing.T) {
	if _, ok := SharesForAmount(big.NewInt(1), nil, types.OutcomeYes); ok {
		t.Error("expected unavailable estimate for nil price point")
	}
}

func TestProceedsForShares(t *testing.T) {
	// Selling 10 shares at 0.40 returns an estimated 4 units.
	est, ok := ProceedsForShares(big.NewInt(10_000_000), pricePoint(0.40, 0.60), types.OutcomeYes)
	if !ok {
		t.Fatal("expected estimate")
	}
	if est.Amount.Int64() != 4_000_000 {
		t.Errorf("proceeds = %d, want 4000000", est.Amount.Int64())
	}

	est, ok = ProceedsForShares(big.NewInt(0), pricePoint(0.40, 0.60), types.OutcomeYes)
	if !ok || est.Amount.Sign() != 0 {
		t.Error("zero shares should quote zero proceeds")
	}
}

func TestEstimateStaleness(t *testing.T) {
	now := time.Now()
	est := &Estimate{Amount: big.NewInt(1), BasedOn: now.Add(-2 * time.Second)}

	if est.Stale(now, 5*time.Second) {
		t.Error("estimate within max age flagged stale")
	}
	if !est.Stale(now, time.Second) {
		t.Error("estimate past max age not flagged stale")
	}
}

func TestPayoutIfWins(t *testing.T) {
	pos := &types.Position{Yes: big.NewInt(7_000_000), No: big.NewInt(2_000_000)}

	if got := PayoutIfWins(pos, types.OutcomeYes); got.Int64() != 7_000_000 {
		t.Errorf("yes payout = %d, want 7000000", got.Int64())
	}
	if got := PayoutIfWins(pos, types.OutcomeNo); got.Int64() != 2_000_000 {
		t.Errorf("no payout = %d, want 2000000", got.Int64())
	}
	if got := PayoutIfWins(nil, types.OutcomeYes); got.Sign() != 0 {
		t.Error("nil position should pay zero")
	}
}

func TestPositionValue(t *testing.T) {
	pos := &types.Position{Yes: big.NewInt(10_000_000), No: big.NewInt(5_000_000)}

	// 10 * 0.40 + 5 * 0.60 = 7 units.
	got := PositionValue(pos, pricePoint(0.40, 0.60))
	if got.Int64() != 7_000_000 {
		t.Errorf("position value = %d, want 7000000", got.Int64())
	}
}
