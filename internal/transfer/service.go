package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arbsend/internal/journal"
	"arbsend/internal/txbuilder"
)

// Recorder persists broadcast transfers. *journal.Store satisfies it.
type Recorder interface {
	Record(e journal.Entry) error
}

type Options struct {
	ChainID *big.Int
	// Nonces defaults to a ChainNonceSource querying the endpoint each time.
	Nonces       txbuilder.NonceProvider
	PollInterval time.Duration
	Logger       *slog.Logger
	Recorder     Recorder
}

// Service runs the transfer pipeline: price, estimate, nonce, balance, sign,
// broadcast, confirm. One call is one sequential flow.
type Service struct {
	pricer    *txbuilder.GasPricer
	estimator *txbuilder.GasEstimator
	nonces    txbuilder.NonceProvider
	balances  *txbuilder.BalanceChecker
	builder   *txbuilder.Builder
	submitter *Submitter
	recorder  Recorder
	logger    *slog.Logger
}

func NewService(client txbuilder.ChainClient, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	nonces := opts.Nonces
	if nonces == nil {
		nonces = txbuilder.NewChainNonceSource(client)
	}
	return &Service{
		pricer:    txbuilder.NewGasPricer(client),
		estimator: txbuilder.NewGasEstimator(client, logger),
		nonces:    nonces,
		balances:  txbuilder.NewBalanceChecker(client),
		builder:   txbuilder.NewBuilder(opts.ChainID),
		submitter: NewSubmitter(client, opts.PollInterval, logger),
		recorder:  opts.Recorder,
		logger:    logger,
	}
}

func (s *Service) ChainID() *big.Int {
	if s.builder.ChainID == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(s.builder.ChainID)
}

// Balance returns the latest balance of addr in wei.
func (s *Service) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return s.balances.Balance(ctx, addr)
}

// Quote prices a plain transfer at current network conditions.
func (s *Service) Quote(ctx context.Context) (*txbuilder.FeeQuote, error) {
	return s.pricer.Quote(ctx)
}

// Status looks up the receipt of a previously broadcast transfer.
func (s *Service) Status(ctx context.Context, hash common.Hash) (*Receipt, error) {
	return s.submitter.Lookup(ctx, hash)
}

// Transfer sends req.Amount from signer's account to req.To.
//
// Errors before StateSigned leave no on-chain trace. A *StageError at
// StateBroadcast wraps *txbuilder.SubmissionError. A mined transaction that
// reverted is reported as StateFailed with a nil error. When the receipt
// cannot be obtained the Result is StateUnconfirmed and the error wraps
// *txbuilder.ConfirmationIndeterminateError.
func (s *Service) Transfer(ctx context.Context, signer txbuilder.Signer, req Request) (*Result, error) {
	if signer == nil {
		return nil, &StageError{Stage: StateUnbuilt, Err: errors.New("signer is required")}
	}
	to, err := txbuilder.ParseAddress(req.To)
	if err != nil {
		return nil, &StageError{Stage: StateUnbuilt, Err: err}
	}
	value, err := req.value()
	if err != nil {
		return nil, &StageError{Stage: StateUnbuilt, Err: err}
	}
	from := signer.Address()
	res := &Result{State: StateUnbuilt, From: from, To: to, Value: value}
	log := s.logger.With("from", from.Hex(), "to", to.Hex())

	gasPrice, err := s.pricer.Price(ctx)
	if err != nil {
		return res, &StageError{Stage: StatePriced, Err: err}
	}
	res.GasPrice, res.State = gasPrice, StatePriced

	gasLimit, err := s.estimator.Estimate(ctx, from, to, value)
	if err != nil {
		return res, &StageError{Stage: StateLimitEstimated, Err: err}
	}
	res.GasLimit, res.State = gasLimit, StateLimitEstimated

	nonce, err := s.nonces.Next(ctx, from)
	if err != nil {
		return res, &StageError{Stage: StateNonceAssigned, Err: err}
	}
	res.Nonce, res.State = nonce, StateNonceAssigned

	signed, err := s.prepare(ctx, signer, res, req.Approve)
	if err != nil {
		s.nonces.Reset(from)
		return res, err
	}
	res.TxHash, res.State = signed.Hash, StateSigned
	log = log.With("tx_hash", signed.Hash.Hex(), "nonce", nonce)
	log.Debug("transfer signed", "gas_price", gasPrice.String(), "gas_limit", gasLimit)

	if err := s.submitter.Broadcast(ctx, signed); err != nil {
		s.nonces.Reset(from)
		log.Warn("broadcast rejected", "error", err)
		return res, &StageError{Stage: StateBroadcast, Err: err}
	}
	res.State = StateBroadcast
	s.record(res)

	if req.NoWait {
		return res, nil
	}

	receipt, err := s.submitter.Wait(ctx, signed.Hash, req.ConfirmTimeout)
	if err != nil {
		res.State = StateUnconfirmed
		s.record(res)
		log.Warn("confirmation indeterminate", "error", err)
		return res, &StageError{Stage: StateConfirmed, Err: err}
	}
	res.Receipt = receipt
	if receipt.Success() {
		res.State = StateConfirmed
	} else {
		res.State = StateFailed
	}
	s.record(res)
	log.Info("transfer finished", "state", res.State, "block", receipt.BlockNumber, "gas_used", receipt.GasUsed)
	return res, nil
}

// prepare verifies funds, asks for approval and signs. Nothing it does is
// visible on-chain.
func (s *Service) prepare(ctx context.Context, signer txbuilder.Signer, res *Result, approve func(Plan) bool) (*txbuilder.SignedTransaction, error) {
	cost, err := s.balances.Check(ctx, res.From, res.Value, res.GasPrice, res.GasLimit)
	if err != nil {
		return nil, &StageError{Stage: StateBalanceVerified, Err: err}
	}
	res.MaxFee, res.State = cost.MaxFee, StateBalanceVerified

	if approve != nil {
		plan := Plan{
			From:     res.From,
			To:       res.To,
			Value:    new(big.Int).Set(res.Value),
			Nonce:    res.Nonce,
			GasPrice: new(big.Int).Set(res.GasPrice),
			GasLimit: res.GasLimit,
			Cost:     cost,
		}
		if !approve(plan) {
			return nil, &StageError{Stage: StateSigned, Err: ErrDeclined}
		}
	}

	tx, err := s.builder.BuildTransfer(txbuilder.TransferParams{
		From:     res.From,
		To:       res.To,
		Value:    res.Value,
		GasPrice: res.GasPrice,
		GasLimit: res.GasLimit,
		Nonce:    res.Nonce,
	})
	if err != nil {
		return nil, &StageError{Stage: StateSigned, Err: err}
	}
	signed, err := s.builder.Sign(tx, signer)
	if err != nil {
		return nil, &StageError{Stage: StateSigned, Err: err}
	}
	return signed, nil
}

func (s *Service) record(res *Result) {
	if s.recorder == nil {
		return
	}
	e := journal.Entry{
		TxHash:   res.TxHash.Hex(),
		ChainID:  s.ChainID().Uint64(),
		From:     res.From.Hex(),
		To:       res.To.Hex(),
		ValueWei: res.Value.String(),
		Nonce:    res.Nonce,
		State:    string(res.State),
	}
	if res.Receipt != nil && res.Receipt.BlockNumber != nil {
		e.Block = res.Receipt.BlockNumber.Uint64()
	}
	if err := s.recorder.Record(e); err != nil {
		s.logger.Warn("journal write failed", "tx_hash", e.TxHash, "error", err)
	}
}
