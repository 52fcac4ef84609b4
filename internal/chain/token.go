package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint256 is the unlimited-allowance sentinel.
var MaxUint256, _ = new(big.Int).SetString(
	"115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"mint","outputs":[],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

// Token is the settlement token: a 6-decimal stable asset with a test
// faucet mint.
type Token struct {
	client  *Client
	address common.Address
}

// NewToken binds the settlement token contract.
func NewToken(client *Client, address common.Address) *Token {
	return &Token{client: client, address: address}
}

// Address returns the token contract address.
func (t *Token) Address() common.Address {
	return t.address
}

// Balance reads the owner's token balance in smallest units.
func (t *Token) Balance(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := t.client.call(ctx, t.address, erc20ABI, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return out[0].(*big.Int), nil
}

// Allowance reads the spender's current allowance from owner. The
// allowance is shared mutable state across all markets for a spender;
// callers that cache it must invalidate on any approval.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := t.client.call(ctx, t.address, erc20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("get allowance: %w", err)
	}
	return out[0].(*big.Int), nil
}

// Approve submits an allowance approval for the spender. Pass MaxUint256
// for unlimited allowance.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	return t.client.send(ctx, t.address, erc20ABI, "approve", gasLimitApprove, spender, amount)
}

// Mint calls the test token's faucet. Only available on test deployments.
func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	return t.client.send(ctx, t.address, erc20ABI, "mint", gasLimitApprove, to, amount)
}
