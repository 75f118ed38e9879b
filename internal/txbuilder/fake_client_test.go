package txbuilder

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type fakeClient struct {
	mu sync.Mutex

	chainID     *big.Int
	balance     *big.Int
	balanceErr  error
	gasPrice    *big.Int
	gasPriceErr error
	estimate    uint64
	estimateErr error
	nonce       uint64
	nonceErr    error

	nonceCalls    int
	estimateCalls []ethereum.CallMsg
}

func (f *fakeClient) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeClient) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.nonce, nil
}

func (f *fakeClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	if f.gasPriceErr != nil {
		return nil, f.gasPriceErr
	}
	return f.gasPrice, nil
}

func (f *fakeClient) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimateCalls = append(f.estimateCalls, msg)
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimate, nil
}

func (f *fakeClient) SendTransaction(context.Context, *types.Transaction) error {
	return errors.New("not used")
}

func (f *fakeClient) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}
