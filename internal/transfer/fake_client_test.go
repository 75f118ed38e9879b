package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type fakeChain struct {
	mu sync.Mutex

	balance     *big.Int
	gasPrice    *big.Int
	gasPriceErr error
	estimate    uint64
	estimateErr error
	nonce       uint64
	sendErr     error

	// receipt is called on every TransactionReceipt lookup.
	receipt func(call int, hash common.Hash) (*types.Receipt, error)

	networkCalls int
	nonceCalls   int
	receiptCalls int
	sent         []*types.Transaction
}

func (f *fakeChain) touch() {
	f.mu.Lock()
	f.networkCalls++
	f.mu.Unlock()
}

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) {
	f.touch()
	return big.NewInt(421614), nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	f.touch()
	return f.balance, nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	return f.nonce, nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.touch()
	if f.gasPriceErr != nil {
		return nil, f.gasPriceErr
	}
	return f.gasPrice, nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	f.touch()
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimate, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.touch()
	f.mu.Lock()
	f.receiptCalls++
	call := f.receiptCalls
	f.mu.Unlock()
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt(call, hash)
}

func minedWithStatus(status uint64) func(int, common.Hash) (*types.Receipt, error) {
	return func(call int, hash common.Hash) (*types.Receipt, error) {
		if call < 2 {
			return nil, ethereum.NotFound
		}
		return &types.Receipt{
			TxHash:      hash,
			Status:      status,
			BlockNumber: big.NewInt(1234),
			GasUsed:     21000,
		}, nil
	}
}

type testSigner struct {
	key  []byte
	addr common.Address
}

func newTestSigner() testSigner {
	key, _ := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	return testSigner{key: crypto.FromECDSA(key), addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s testSigner) Address() common.Address { return s.addr }

func (s testSigner) SignDigest(digest common.Hash) ([]byte, error) {
	key, err := crypto.ToECDSA(s.key)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest[:], key)
}
