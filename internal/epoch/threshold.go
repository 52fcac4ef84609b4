package epoch

import (
	"fmt"
	"math/big"
	"strings"
)

// ScaleThreshold converts a user-entered decimal price (e.g. "1.2345")
// into the oracle's fixed-point integer encoding with the given decimal
// count. The conversion is exact string arithmetic; no float is involved,
// because a mis-scaled threshold resolves the market against the wrong
// price band.
//
// Input with more fractional digits than the oracle carries is rejected
// rather than silently truncated.
func ScaleThreshold(price string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(price)
	if s == "" {
		return nil, fmt.Errorf("threshold cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("threshold cannot be negative: %q", price)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("threshold %q has %d fractional digits, oracle carries %d", price, len(frac), decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("threshold %q is not a decimal number", price)
	}
	return out, nil
}

// FormatThreshold renders a fixed-point oracle value back as a decimal
// string. ScaleThreshold(FormatThreshold(v)) == v for all non-negative v.
func FormatThreshold(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}

	s := value.String()
	if decimals == 0 {
		return s
	}

	if len(s) <= int(decimals) {
		s = strings.Repeat("0", int(decimals)-len(s)+1) + s
	}

	cut := len(s) - int(decimals)
	whole, frac := s[:cut], s[cut:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
