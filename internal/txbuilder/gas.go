package txbuilder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// Gas limits get a fixed 20% buffer over the estimate.
const (
	gasLimitBufferNum   = 120
	gasLimitBufferDenom = 100
)

// GasEstimator derives a gas limit for a plain value transfer. Messages never
// carry calldata, which is what makes the intrinsic-cost fallback safe.
type GasEstimator struct {
	client ChainClient
	logger *slog.Logger
}

func NewGasEstimator(client ChainClient, logger *slog.Logger) *GasEstimator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GasEstimator{client: client, logger: logger}
}

func (e *GasEstimator) Estimate(ctx context.Context, from, to common.Address, value *big.Int) (uint64, error) {
	if e.client == nil {
		return 0, errors.New("gas estimator client is nil")
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
	}
	gas, err := e.client.EstimateGas(ctx, msg)
	if err != nil || gas == 0 {
		if err == nil {
			err = errors.New("zero estimate")
		}
		e.logger.Warn("gas estimate unavailable, using intrinsic transfer cost",
			"error", &EstimateGasError{Err: err, CallMsg: msg},
			"fallback", params.TxGas)
		gas = params.TxGas
	}
	return applyGasBuffer(gas), nil
}

// applyGasBuffer computes gas*120/100 without overflowing uint64.
func applyGasBuffer(gas uint64) uint64 {
	q, r := gas/gasLimitBufferDenom, gas%gasLimitBufferDenom
	return q*gasLimitBufferNum + r*gasLimitBufferNum/gasLimitBufferDenom
}
