package transfer

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"arbsend/internal/txbuilder"
)

// State is the position of one submission in the pipeline. Transitions are
// strictly sequential; Confirmed, Failed and Unconfirmed are terminal.
type State string

const (
	StateUnbuilt         State = "unbuilt"
	StatePriced          State = "priced"
	StateLimitEstimated  State = "limit_estimated"
	StateNonceAssigned   State = "nonce_assigned"
	StateBalanceVerified State = "balance_verified"
	StateSigned          State = "signed"
	StateBroadcast       State = "broadcast"
	StateConfirmed       State = "confirmed"
	StateFailed          State = "failed"
	StateUnconfirmed     State = "unconfirmed"
)

// OnChain reports whether the transaction may already be visible to the network.
func (s State) OnChain() bool {
	switch s {
	case StateBroadcast, StateConfirmed, StateFailed, StateUnconfirmed:
		return true
	}
	return false
}

var stageNames = map[State]string{
	StateUnbuilt:         "validate request",
	StatePriced:          "price gas",
	StateLimitEstimated:  "estimate gas limit",
	StateNonceAssigned:   "assign nonce",
	StateBalanceVerified: "verify balance",
	StateSigned:          "sign",
	StateBroadcast:       "broadcast",
	StateConfirmed:       "await confirmation",
}

// ErrDeclined is returned when Request.Approve rejects the plan.
var ErrDeclined = errors.New("transfer declined before signing")

// StageError names the pipeline step that failed. Stage is the state the
// pipeline was trying to reach.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	name, ok := stageNames[e.Stage]
	if !ok {
		name = string(e.Stage)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Request struct {
	To        string `json:"to"`
	Amount    string `json:"amount,omitempty"`
	AmountWei string `json:"amount_wei,omitempty"`
	NoWait    bool   `json:"no_wait,omitempty"`

	// ConfirmTimeout bounds the receipt wait; zero waits until ctx is done.
	ConfirmTimeout time.Duration `json:"-"`

	// Approve, when set, sees the priced plan before anything is signed.
	Approve func(Plan) bool `json:"-"`
}

func (r Request) value() (*big.Int, error) {
	if r.AmountWei != "" {
		return txbuilder.ParseWei(r.AmountWei)
	}
	if r.Amount == "" {
		return nil, &txbuilder.ValidationError{Field: "amount", Reason: "is required"}
	}
	return txbuilder.ParseEther(r.Amount)
}

// Plan is a fully priced transfer that has not been signed yet.
type Plan struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	Cost     *txbuilder.Cost
}

type Receipt struct {
	TxHash            common.Hash `json:"tx_hash"`
	BlockNumber       *big.Int    `json:"block_number,omitempty"`
	GasUsed           uint64      `json:"gas_used"`
	EffectiveGasPrice *big.Int    `json:"effective_gas_price,omitempty"`
	Status            uint64      `json:"status"`
}

func (r *Receipt) Success() bool {
	return r != nil && r.Status == types.ReceiptStatusSuccessful
}

func receiptFrom(r *types.Receipt) *Receipt {
	out := &Receipt{
		TxHash:  r.TxHash,
		GasUsed: r.GasUsed,
		Status:  r.Status,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = new(big.Int).Set(r.BlockNumber)
	}
	if r.EffectiveGasPrice != nil {
		out.EffectiveGasPrice = new(big.Int).Set(r.EffectiveGasPrice)
	}
	return out
}

type Result struct {
	State    State          `json:"state"`
	TxHash   common.Hash    `json:"tx_hash,omitempty"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Value    *big.Int       `json:"value"`
	Nonce    uint64         `json:"nonce"`
	GasPrice *big.Int       `json:"gas_price,omitempty"`
	GasLimit uint64         `json:"gas_limit,omitempty"`
	MaxFee   *big.Int       `json:"max_fee,omitempty"`
	Receipt  *Receipt       `json:"receipt,omitempty"`
}
