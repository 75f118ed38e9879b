package txbuilder

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type NonceProvider interface {
	Next(ctx context.Context, addr common.Address) (uint64, error)
	Reset(addr common.Address)
}

// ChainNonceSource asks the endpoint for the pending transaction count on
// every call. Two in-flight transfers from one account can get the same value.
type ChainNonceSource struct {
	client ChainClient
}

func NewChainNonceSource(client ChainClient) *ChainNonceSource {
	return &ChainNonceSource{client: client}
}

func (s *ChainNonceSource) Next(ctx context.Context, addr common.Address) (uint64, error) {
	if s.client == nil {
		return 0, errors.New("nonce source client is nil")
	}
	nonce, err := s.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, &NetworkError{Op: "get nonce", Err: err}
	}
	return nonce, nil
}

func (s *ChainNonceSource) Reset(common.Address) {}

// NonceManager hands out nonces per account, seeding from the endpoint on
// first use and after Reset.
type NonceManager struct {
	client ChainClient
	mu     sync.Mutex
	next   map[common.Address]uint64
}

func NewNonceManager(client ChainClient) *NonceManager {
	return &NonceManager{client: client, next: make(map[common.Address]uint64)}
}

func (m *NonceManager) Next(ctx context.Context, addr common.Address) (uint64, error) {
	if m.client == nil {
		return 0, errors.New("nonce manager client is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.next[addr]; ok {
		m.next[addr] = n + 1
		return n, nil
	}
	nonce, err := m.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, &NetworkError{Op: "get nonce", Err: err}
	}
	m.next[addr] = nonce + 1
	return nonce, nil
}

func (m *NonceManager) Reset(addr common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.next, addr)
}
