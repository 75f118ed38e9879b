package txbuilder

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer is a capability that can sign a 32-byte transaction digest for one
// account. Implementations own the key material.
type Signer interface {
	Address() common.Address
	SignDigest(digest common.Hash) ([]byte, error)
}

// TransferParams is everything needed to assemble a legacy value transfer.
type TransferParams struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
	Nonce    uint64
}

// SignedTransaction is a network-ready transfer. Raw is the canonical
// encoding submitted via eth_sendRawTransaction.
type SignedTransaction struct {
	Tx   *types.Transaction
	Raw  []byte
	Hash common.Hash
	From common.Address
}

type Builder struct {
	ChainID *big.Int
}

func NewBuilder(chainID *big.Int) *Builder {
	b := &Builder{}
	if chainID != nil {
		b.ChainID = new(big.Int).Set(chainID)
	}
	return b
}

func (b *Builder) BuildTransfer(p TransferParams) (*types.Transaction, error) {
	if b.ChainID == nil || b.ChainID.Sign() <= 0 {
		return nil, invalid("chain id", "must be positive")
	}
	if p.To == (common.Address{}) {
		return nil, invalid("to", "zero address is not a valid destination")
	}
	if p.Value == nil {
		return nil, invalid("value", "is required")
	}
	if p.Value.Sign() < 0 {
		return nil, invalid("value", "must be non-negative")
	}
	if p.GasPrice == nil {
		return nil, invalid("gas price", "is required")
	}
	if p.GasPrice.Sign() < 0 {
		return nil, invalid("gas price", "must be non-negative")
	}
	if p.GasLimit == 0 {
		return nil, invalid("gas limit", "is required")
	}
	to := p.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    p.Nonce,
		GasPrice: new(big.Int).Set(p.GasPrice),
		Gas:      p.GasLimit,
		To:       &to,
		Value:    new(big.Int).Set(p.Value),
	}), nil
}

// Sign binds tx to the builder's chain id with an EIP-155 signature.
func (b *Builder) Sign(tx *types.Transaction, signer Signer) (*SignedTransaction, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	if signer == nil {
		return nil, errors.New("signer is nil")
	}
	if b.ChainID == nil || b.ChainID.Sign() <= 0 {
		return nil, invalid("chain id", "must be positive")
	}
	s := types.NewEIP155Signer(b.ChainID)
	sig, err := signer.SignDigest(s.Hash(tx))
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	signed, err := tx.WithSignature(s, sig)
	if err != nil {
		return nil, fmt.Errorf("attach signature: %w", err)
	}
	from, err := types.Sender(s, signed)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %w", err)
	}
	if from != signer.Address() {
		return nil, fmt.Errorf("signature recovers %s, expected %s", from.Hex(), signer.Address().Hex())
	}
	if err := sameTransfer(tx, signed); err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return &SignedTransaction{
		Tx:   signed,
		Raw:  raw,
		Hash: signed.Hash(),
		From: from,
	}, nil
}

func sameTransfer(a, b *types.Transaction) error {
	switch {
	case a.Nonce() != b.Nonce():
		return errors.New("signing altered nonce")
	case a.Value().Cmp(b.Value()) != 0:
		return errors.New("signing altered value")
	case a.Gas() != b.Gas() || a.GasPrice().Cmp(b.GasPrice()) != 0:
		return errors.New("signing altered gas")
	case a.To() == nil || b.To() == nil || *a.To() != *b.To():
		return errors.New("signing altered recipient")
	}
	return nil
}

// ParseAddress accepts a 0x-prefixed hex account and rejects the zero address.
func ParseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, invalid("address", "is required")
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, invalid("address", fmt.Sprintf("%q is not a hex address", value))
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, invalid("address", "zero address is not a valid destination")
	}
	return addr, nil
}

// ParseHash accepts a 0x-prefixed 32-byte transaction hash.
func ParseHash(value string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(value))
	if err != nil {
		return common.Hash{}, invalid("tx hash", err.Error())
	}
	if len(b) != common.HashLength {
		return common.Hash{}, invalid("tx hash", fmt.Sprintf("want %d bytes, got %d", common.HashLength, len(b)))
	}
	return common.BytesToHash(b), nil
}
