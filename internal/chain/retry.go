package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"arbsend/internal/txbuilder"
	"arbsend/internal/util"
)

// RetryClient retries idempotent reads against the wrapped client.
// SendTransaction and EstimateGas pass straight through: a resend can
// duplicate a broadcast, and estimation already has a fallback.
type RetryClient struct {
	inner   txbuilder.ChainClient
	policy  util.Policy
	timeout time.Duration
}

// NewRetryClient wraps inner. timeout bounds each attempt; zero relies on ctx.
func NewRetryClient(inner txbuilder.ChainClient, policy util.Policy, timeout time.Duration) *RetryClient {
	return &RetryClient{inner: inner, policy: policy, timeout: timeout}
}

func (c *RetryClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.policy.Do(ctx, func() error {
		ctxTimeout, cancel := withTimeout(ctx, c.timeout)
		defer cancel()
		v, err := c.inner.ChainID(ctxTimeout)
		if err != nil {
			return err
		}
		id = v
		return nil
	})
	return id, err
}

func (c *RetryClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var balance *big.Int
	err := c.policy.Do(ctx, func() error {
		ctxTimeout, cancel := withTimeout(ctx, c.timeout)
		defer cancel()
		v, err := c.inner.BalanceAt(ctxTimeout, account, blockNumber)
		if err != nil {
			return err
		}
		balance = v
		return nil
	})
	return balance, err
}

func (c *RetryClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.policy.Do(ctx, func() error {
		ctxTimeout, cancel := withTimeout(ctx, c.timeout)
		defer cancel()
		v, err := c.inner.PendingNonceAt(ctxTimeout, account)
		if err != nil {
			return err
		}
		nonce = v
		return nil
	})
	return nonce, err
}

func (c *RetryClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.policy.Do(ctx, func() error {
		ctxTimeout, cancel := withTimeout(ctx, c.timeout)
		defer cancel()
		v, err := c.inner.SuggestGasPrice(ctxTimeout)
		if err != nil {
			return err
		}
		price = v
		return nil
	})
	return price, err
}

func (c *RetryClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	ctxTimeout, cancel := withTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.EstimateGas(ctxTimeout, msg)
}

func (c *RetryClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.inner.SendTransaction(ctx, tx)
}

// TransactionReceipt does not retry ethereum.NotFound; the confirmation poll
// owns that loop.
func (c *RetryClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.policy.Do(ctx, func() error {
		ctxTimeout, cancel := withTimeout(ctx, c.timeout)
		defer cancel()
		r, err := c.inner.TransactionReceipt(ctxTimeout, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return util.Permanent(err)
		}
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	return receipt, err
}
