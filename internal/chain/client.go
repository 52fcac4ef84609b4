// Package chain is the contract read/write surface: the settlement
// token, the market factory and the three market variants, consumed over
// JSON-RPC. Writes are signed locally and confirmation waits are bounded.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/kleoslabs/kleos/pkg/types"
	"go.uber.org/zap"
)

const (
	gasLimitApprove = uint64(100_000)
	gasLimitTrade   = uint64(300_000)
	gasLimitCreate  = uint64(1_500_000)
)

// Client wraps an RPC connection with a signing key and bounded
// confirmation waits.
type Client struct {
	eth            *ethclient.Client
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	logger         *zap.Logger
	confirmPoll    time.Duration
	confirmTimeout time.Duration
}

// Config holds chain client configuration.
type Config struct {
	RPCURL         string
	PrivateKey     string // hex, optional for read-only use
	ConfirmPoll    time.Duration
	ConfirmTimeout time.Duration
	Logger         *zap.Logger
}

// Dial connects to the RPC endpoint and prepares the signer.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("get chain ID: %w", err)
	}

	c := &Client{
		eth:            eth,
		chainID:        chainID,
		logger:         cfg.Logger,
		confirmPoll:    cfg.ConfirmPoll,
		confirmTimeout: cfg.ConfirmTimeout,
	}
	if c.confirmPoll <= 0 {
		c.confirmPoll = 2 * time.Second
	}
	if c.confirmTimeout <= 0 {
		c.confirmTimeout = 2 * time.Minute
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	cfg.Logger.Info("chain-client-connected",
		zap.String("chain-id", chainID.String()),
		zap.String("from", c.from.Hex()))

	return c, nil
}

// From returns the signer address. Zero address in read-only mode.
func (c *Client) From() common.Address {
	return c.from
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call executes a read against a contract and unpacks the results.
func (c *Client) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	start := time.Now()
	defer func() {
		ContractReadDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	result, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := parsed.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// send signs and submits a transaction carrying data to the target
// contract. It returns as soon as the node accepts the transaction;
// confirmation is a separate, explicitly awaited step.
func (c *Client) send(ctx context.Context, to common.Address, parsed abi.ABI, method string, gasLimit uint64, args ...interface{}) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, errors.New("no signing key configured")
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get gas price: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	err = c.eth.SendTransaction(ctx, signedTx)
	if err != nil {
		return common.Hash{}, classifySendError(method, err)
	}

	TransactionsSubmittedTotal.WithLabelValues(method).Inc()
	c.logger.Info("transaction-submitted",
		zap.String("method", method),
		zap.String("tx", signedTx.Hash().Hex()),
		zap.Uint64("nonce", nonce))

	return signedTx.Hash(), nil
}

// WaitForReceipt blocks until the transaction is mined or the configured
// confirmation bound elapses. A mined-but-reverted transaction is an
// error; an elapsed bound surfaces as ErrConfirmationTimeout so the
// caller can show a stuck state instead of hanging.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	start := time.Now()
	deadline := start.Add(c.confirmTimeout)

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			ConfirmationDurationSeconds.Observe(time.Since(start).Seconds())

			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				TransactionsRevertedTotal.Inc()
				return receipt, &types.RevertedError{TxHash: txHash.Hex()}
			}

			c.logger.Info("transaction-confirmed",
				zap.String("tx", txHash.Hex()),
				zap.Uint64("block", receipt.BlockNumber.Uint64()),
				zap.Uint64("gas-used", receipt.GasUsed))
			return receipt, nil
		}

		if time.Now().After(deadline) {
			c.logger.Warn("confirmation-timeout",
				zap.String("tx", txHash.Hex()),
				zap.Duration("waited", time.Since(start)))
			return nil, types.ErrConfirmationTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.confirmPoll):
		}
	}
}

// classifySendError maps node errors onto the engine's failure classes.
// A slippage-guard revert is distinct from a generic failure so the UI
// can tell the user to re-quote rather than give up.
func classifySendError(method string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "stale quote") || strings.Contains(msg, "slippage"):
		return fmt.Errorf("%s: %w", method, types.ErrStaleQuote)
	case strings.Contains(msg, "user denied") || strings.Contains(msg, "rejected by user"):
		return fmt.Errorf("%s: %w", method, types.ErrTransactionRejected)
	default:
		return fmt.Errorf("send %s: %w", method, err)
	}
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}
