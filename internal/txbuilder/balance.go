package txbuilder

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Cost is the worst-case spend of a transfer against the sender's balance.
type Cost struct {
	Value   *big.Int
	MaxFee  *big.Int
	Total   *big.Int
	Balance *big.Int
}

type BalanceChecker struct {
	client ChainClient
}

func NewBalanceChecker(client ChainClient) *BalanceChecker {
	return &BalanceChecker{client: client}
}

// Check fails with *InsufficientFundsError when balance < value + gasPrice*gasLimit.
func (c *BalanceChecker) Check(ctx context.Context, from common.Address, value, gasPrice *big.Int, gasLimit uint64) (*Cost, error) {
	if value == nil || gasPrice == nil {
		return nil, invalid("cost", "value and gas price are required")
	}
	maxFee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	total := new(big.Int).Add(value, maxFee)

	balance, err := c.Balance(ctx, from)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(total) < 0 {
		return nil, newInsufficientFunds(balance, total)
	}
	return &Cost{
		Value:   new(big.Int).Set(value),
		MaxFee:  maxFee,
		Total:   total,
		Balance: balance,
	}, nil
}

// Balance returns the latest balance of addr in wei.
func (c *BalanceChecker) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	if c.client == nil {
		return nil, errors.New("balance checker client is nil")
	}
	balance, err := c.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, &NetworkError{Op: "get balance", Err: err}
	}
	if balance == nil || balance.Sign() < 0 {
		return nil, &NetworkError{Op: "get balance", Err: errors.New("malformed balance")}
	}
	return balance, nil
}
