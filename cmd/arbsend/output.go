package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"arbsend/internal/chain"
	"arbsend/internal/transfer"
	"arbsend/internal/txbuilder"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
)

func eth(v *big.Int) string {
	return txbuilder.FormatEther(v) + " ETH"
}

func gwei(v *big.Int) string {
	return txbuilder.FormatGwei(v) + " gwei"
}

func field(w io.Writer, label string, format string, args ...interface{}) {
	labelColor.Fprintf(w, "  %-14s", label+":")
	fmt.Fprintf(w, format+"\n", args...)
}

func printPlan(w io.Writer, p transfer.Plan) {
	fmt.Fprintln(w, "Transfer plan")
	field(w, "From", "%s", p.From.Hex())
	field(w, "To", "%s", p.To.Hex())
	field(w, "Amount", "%s (%s wei)", eth(p.Value), p.Value)
	field(w, "Nonce", "%d", p.Nonce)
	field(w, "Gas price", "%s (%s wei)", gwei(p.GasPrice), p.GasPrice)
	field(w, "Gas limit", "%d", p.GasLimit)
	if p.Cost != nil {
		field(w, "Max fee", "%s", eth(p.Cost.MaxFee))
		field(w, "Total", "%s", eth(p.Cost.Total))
		field(w, "Balance", "%s", eth(p.Cost.Balance))
	}
}

func printResult(w io.Writer, res *transfer.Result, txURL string) {
	if res == nil || res.TxHash == (common.Hash{}) {
		return
	}
	field(w, "Tx hash", "%s", res.TxHash.Hex())
	if txURL != "" {
		field(w, "Explorer", "%s", txURL)
	}
	switch res.State {
	case transfer.StateConfirmed:
		field(w, "Status", "%s", okColor.Sprint("confirmed"))
	case transfer.StateFailed:
		field(w, "Status", "%s", errColor.Sprint("reverted"))
	case transfer.StateUnconfirmed:
		field(w, "Status", "%s", warnColor.Sprint("unconfirmed, may still be mined"))
	default:
		field(w, "Status", "%s", string(res.State))
	}
	printReceipt(w, res.Receipt)
}

func printReceipt(w io.Writer, r *transfer.Receipt) {
	if r == nil {
		return
	}
	if r.BlockNumber != nil {
		field(w, "Block", "%s", r.BlockNumber)
	}
	field(w, "Gas used", "%d", r.GasUsed)
	if r.EffectiveGasPrice != nil {
		field(w, "Paid price", "%s", gwei(r.EffectiveGasPrice))
		fee := new(big.Int).Mul(r.EffectiveGasPrice, new(big.Int).SetUint64(r.GasUsed))
		field(w, "Fee", "%s", eth(fee))
	}
}

// printError renders the error taxonomy for a terminal.
func printError(w io.Writer, err error) {
	var (
		verr     *txbuilder.ValidationError
		ferr     *txbuilder.InsufficientFundsError
		nerr     *txbuilder.NetworkError
		serr     *txbuilder.SubmissionError
		cerr     *txbuilder.ConfirmationIndeterminateError
		mismatch *chain.ChainIDMismatchError
	)
	switch {
	case errors.Is(err, transfer.ErrDeclined):
		warnColor.Fprintln(w, "Transfer cancelled, nothing was signed.")
	case errors.As(err, &ferr):
		errColor.Fprintln(w, "Insufficient funds")
		field(w, "Balance", "%s", eth(ferr.Balance))
		field(w, "Required", "%s", eth(ferr.TotalCost))
		field(w, "Short by", "%s", eth(ferr.Shortfall))
	case errors.As(err, &cerr):
		warnColor.Fprintln(w, "Broadcast accepted but confirmation is unknown.")
		field(w, "Tx hash", "%s", cerr.TxHash.Hex())
		fmt.Fprintln(w, "  Check it with `arbsend status` before sending again.")
		if cerr.Err != nil && !errors.Is(cerr.Err, context.DeadlineExceeded) {
			field(w, "Cause", "%v", cerr.Err)
		}
	case errors.As(err, &serr):
		errColor.Fprintln(w, "Node rejected the transaction")
		field(w, "Reason", "%v", serr.Err)
	case errors.As(err, &verr):
		errColor.Fprintf(w, "Invalid input: ")
		fmt.Fprintln(w, verr.Error())
	case errors.As(err, &mismatch):
		errColor.Fprintln(w, "Wrong network")
		fmt.Fprintf(w, "  %v\n", mismatch)
	case errors.As(err, &nerr):
		errColor.Fprintf(w, "Network error during %s: ", nerr.Op)
		fmt.Fprintln(w, nerr.Err)
	default:
		errColor.Fprintf(w, "Error: ")
		fmt.Fprintln(w, err)
	}
}
