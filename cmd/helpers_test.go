package cmd

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/kleoslabs/kleos/internal/quote"
	"github.com/kleoslabs/kleos/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "whole-tokens", input: "10", want: "10000000"},
		{name: "fractional", input: "10.5", want: "10500000"},
		{name: "smallest-unit", input: "0.000001", want: "1"},
		{name: "too-many-decimals", input: "0.0000001", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "not-a-number", input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := parseTokenAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amount.String())
		})
	}
}

func TestFormatTokenAmountRoundTrip(t *testing.T) {
	for _, input := range []string{"10", "10.5", "0.000001", "1234.56789"} {
		amount, err := parseTokenAmount(input)
		require.NoError(t, err)
		assert.Equal(t, input, formatTokenAmount(amount), "round trip of %s", input)
	}
}

func TestEnsureFreshEstimate(t *testing.T) {
	est := &quote.Estimate{Amount: big.NewInt(100), BasedOn: time.Now().Add(-time.Minute)}

	assert.NoError(t, ensureFreshEstimate(est, 5*time.Minute))

	err := ensureFreshEstimate(est, 30*time.Second)
	assert.True(t, errors.Is(err, types.ErrStaleQuote))
}

func TestParseSide(t *testing.T) {
	side, err := parseSide("yes")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeYes, side)

	side, err = parseSide("NO")
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeNo, side)

	_, err = parseSide("maybe")
	assert.Error(t, err)
}

func TestParseMarketType(t *testing.T) {
	tests := []struct {
		input   string
		want    types.MarketType
		wantErr bool
	}{
		{input: "challenge", want: types.MarketChallenge},
		{input: "cpmm", want: types.MarketConstantProduct},
		{input: "lmsr", want: types.MarketLMSR},
		{input: "parimutuel", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMarketType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarketIndexArg(t *testing.T) {
	index, err := marketIndexArg([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), index)

	_, err = marketIndexArg([]string{"-1"})
	assert.Error(t, err)

	_, err = marketIndexArg([]string{"abc"})
	assert.Error(t, err)
}
