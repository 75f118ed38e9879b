package txbuilder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// ValidationError reports malformed input detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "invalid input"
	}
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NetworkError wraps a failed or malformed endpoint response. Op names the
// query that failed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil || e.Err == nil {
		return "network request failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InsufficientFundsError is terminal: the sender cannot cover value + max fee.
type InsufficientFundsError struct {
	Balance   *big.Int
	TotalCost *big.Int
	Shortfall *big.Int
}

func newInsufficientFunds(balance, total *big.Int) *InsufficientFundsError {
	return &InsufficientFundsError{
		Balance:   new(big.Int).Set(balance),
		TotalCost: new(big.Int).Set(total),
		Shortfall: new(big.Int).Sub(total, balance),
	}
}

func (e *InsufficientFundsError) Error() string {
	if e == nil {
		return "insufficient funds"
	}
	return fmt.Sprintf("insufficient funds: balance %s ETH, required %s ETH, short %s ETH",
		FormatEther(e.Balance), FormatEther(e.TotalCost), FormatEther(e.Shortfall))
}

// SubmissionError means the endpoint refused the signed transaction.
type SubmissionError struct {
	TxHash common.Hash
	Err    error
}

func (e *SubmissionError) Error() string {
	if e == nil || e.Err == nil {
		return "broadcast rejected"
	}
	return "broadcast rejected: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfirmationIndeterminateError means the broadcast was accepted but no
// receipt could be obtained. The transaction may still be mined.
type ConfirmationIndeterminateError struct {
	TxHash common.Hash
	Err    error
}

func (e *ConfirmationIndeterminateError) Error() string {
	if e == nil {
		return "confirmation indeterminate"
	}
	if e.Err == nil {
		return "confirmation indeterminate for " + e.TxHash.Hex()
	}
	return fmt.Sprintf("confirmation indeterminate for %s: %v", e.TxHash.Hex(), e.Err)
}

func (e *ConfirmationIndeterminateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type EstimateGasError struct {
	Err     error
	CallMsg ethereum.CallMsg
}

func (e *EstimateGasError) Error() string {
	if e == nil {
		return "estimate gas failed"
	}
	if e.Err == nil {
		return "estimate gas failed"
	}
	return "estimate gas failed: " + e.Err.Error()
}

func (e *EstimateGasError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
