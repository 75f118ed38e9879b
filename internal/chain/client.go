package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const userAgent = "arbsend"

// Dial connects to an HTTP JSON-RPC endpoint. requestTimeout bounds every
// single request at the transport level; zero leaves it unbounded.
func Dial(url string, requestTimeout time.Duration, logger *slog.Logger) (*rpc.Client, *ethclient.Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil, errors.New("rpc url is required")
	}
	httpClient := &http.Client{
		Timeout: requestTimeout,
	}
	rpcClient, err := rpc.DialHTTPWithClient(url, httpClient)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", url, err)
	}
	rpcClient.SetHeader("User-Agent", userAgent)
	if logger != nil {
		logger.Debug("rpc http client ready", "url", url)
	}
	return rpcClient, ethclient.NewClient(rpcClient), nil
}

type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ChainIDMismatchError means the endpoint serves a different network than the
// one signatures would be bound to.
type ChainIDMismatchError struct {
	Want uint64
	Got  *big.Int
}

func (e *ChainIDMismatchError) Error() string {
	return fmt.Sprintf("endpoint chain id %s does not match configured %d", e.Got, e.Want)
}

// VerifyChainID fails unless the endpoint reports want.
func VerifyChainID(ctx context.Context, client ChainIDReader, want uint64) error {
	got, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if got == nil || !got.IsUint64() || got.Uint64() != want {
		return &ChainIDMismatchError{Want: want, Got: got}
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
