package quote

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/kleoslabs/kleos/pkg/types"
)

// ParseOdds parses a challenge ratio of the form "a:b" where a and b are
// positive integers (creator:opponent). Malformed input is rejected, never
// silently defaulted.
func ParseOdds(s string) (creator, opponent uint64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, &types.InvalidOddsSpecError{Input: s, Reason: "expected exactly one ':'"}
	}

	creator, err = parseRatioSide(s, parts[0])
	if err != nil {
		return 0, 0, err
	}

	opponent, err = parseRatioSide(s, parts[1])
	if err != nil {
		return 0, 0, err
	}

	return creator, opponent, nil
}

func parseRatioSide(input, side string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(side), 10, 64)
	if err != nil {
		return 0, &types.InvalidOddsSpecError{Input: input, Reason: "ratio sides must be positive integers"}
	}
	if v == 0 {
		return 0, &types.InvalidOddsSpecError{Input: input, Reason: "ratio sides must be positive"}
	}
	return v, nil
}

// CounterStake computes the opponent stake a challenge requires:
// creatorStake * opponent / creator, in the settlement token's integer
// smallest unit. The submitted amount always comes from this integer
// arithmetic; any floating display rounding stays in the presentation
// layer.
func CounterStake(creatorStake *big.Int, creator, opponent uint64) *big.Int {
	if creatorStake == nil || creatorStake.Sign() <= 0 {
		return big.NewInt(0)
	}

	out := new(big.Int).Mul(creatorStake, new(big.Int).SetUint64(opponent))
	return out.Quo(out, new(big.Int).SetUint64(creator))
}

// CounterStakeFromSpec parses the ratio string and computes the required
// counter-stake in one step.
func CounterStakeFromSpec(creatorStake *big.Int, odds string) (*big.Int, error) {
	a, b, err := ParseOdds(odds)
	if err != nil {
		return nil, err
	}
	return CounterStake(creatorStake, a, b), nil
}
