package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"arbsend/internal/txbuilder"
)

const defaultPollInterval = 2 * time.Second

// Submitter broadcasts signed transfers and waits for their receipts.
type Submitter struct {
	client       txbuilder.ChainClient
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewSubmitter(client txbuilder.ChainClient, pollInterval time.Duration, logger *slog.Logger) *Submitter {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Submitter{client: client, pollInterval: pollInterval, logger: logger}
}

// Broadcast hands the signed transaction to the node's pending pool. A nil
// error means acceptance, not inclusion.
func (s *Submitter) Broadcast(ctx context.Context, signed *txbuilder.SignedTransaction) error {
	if signed == nil || signed.Tx == nil {
		return errors.New("signed transaction is nil")
	}
	if err := s.client.SendTransaction(ctx, signed.Tx); err != nil {
		return &txbuilder.SubmissionError{TxHash: signed.Hash, Err: err}
	}
	s.logger.Info("transaction broadcast", "tx_hash", signed.Hash.Hex(), "nonce", signed.Tx.Nonce())
	return nil
}

// Wait polls for the receipt of hash. A timeout <= 0 leaves the bound to ctx.
// Anything other than "not found yet" ends the wait with
// *txbuilder.ConfirmationIndeterminateError; the transaction stays valid.
func (s *Submitter) Wait(ctx context.Context, hash common.Hash, timeout time.Duration) (*Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		receipt, err := s.Lookup(ctx, hash)
		if err != nil {
			return nil, &txbuilder.ConfirmationIndeterminateError{TxHash: hash, Err: err}
		}
		if receipt != nil {
			return receipt, nil
		}
		s.logger.Debug("receipt not available yet", "tx_hash", hash.Hex(), "attempt", attempt)
		select {
		case <-ctx.Done():
			return nil, &txbuilder.ConfirmationIndeterminateError{TxHash: hash, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// Lookup fetches the receipt once; (nil, nil) means not mined yet.
func (s *Submitter) Lookup(ctx context.Context, hash common.Hash) (*Receipt, error) {
	receipt, err := s.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &txbuilder.NetworkError{Op: "get receipt", Err: err}
	}
	if receipt == nil {
		return nil, nil
	}
	return receiptFrom(receipt), nil
}
