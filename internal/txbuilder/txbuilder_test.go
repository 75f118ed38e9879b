package txbuilder

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type keySigner struct {
	key *ecdsa.PrivateKey
}

func (k keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(k.key.PublicKey)
}

func (k keySigner) SignDigest(digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest[:], k.key)
}

type wrongSigner struct {
	keySigner
	claimed common.Address
}

func (w wrongSigner) Address() common.Address {
	return w.claimed
}

func newKeySigner(t *testing.T) keySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	return keySigner{key: key}
}

func TestBuildAndSignPreservesFields(t *testing.T) {
	to := common.HexToAddress("0x6FC35791B6D73Fc90951aF166134fFDBa4E933E9")
	signer := newKeySigner(t)
	builder := NewBuilder(big.NewInt(421614))

	params := TransferParams{
		From:     signer.Address(),
		To:       to,
		Value:    big.NewInt(10_000_000_000_000),
		GasPrice: big.NewInt(110_000_000),
		GasLimit: 25200,
		Nonce:    7,
	}
	tx, err := builder.BuildTransfer(params)
	if err != nil {
		t.Fatalf("BuildTransfer error: %v", err)
	}
	if tx.Type() != types.LegacyTxType {
		t.Fatalf("unexpected tx type: %d", tx.Type())
	}
	if len(tx.Data()) != 0 {
		t.Fatalf("transfer must not carry data, got %x", tx.Data())
	}

	signed, err := builder.Sign(tx, signer)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	var decoded types.Transaction
	if err := decoded.UnmarshalBinary(signed.Raw); err != nil {
		t.Fatalf("UnmarshalBinary error: %v", err)
	}
	if *decoded.To() != to {
		t.Fatalf("unexpected to: %s", decoded.To().Hex())
	}
	if decoded.Value().Cmp(params.Value) != 0 {
		t.Fatalf("unexpected value: %s", decoded.Value())
	}
	if decoded.Nonce() != 7 {
		t.Fatalf("unexpected nonce: %d", decoded.Nonce())
	}
	if decoded.Gas() != 25200 || decoded.GasPrice().Cmp(params.GasPrice) != 0 {
		t.Fatalf("unexpected gas: %d @ %s", decoded.Gas(), decoded.GasPrice())
	}
	if decoded.ChainId().Cmp(big.NewInt(421614)) != 0 {
		t.Fatalf("unexpected chain id: %s", decoded.ChainId())
	}
	if decoded.Hash() != signed.Hash {
		t.Fatalf("hash mismatch\nexpected=%s\nactual=%s", signed.Hash.Hex(), decoded.Hash().Hex())
	}
	if signed.From != signer.Address() {
		t.Fatalf("unexpected sender: %s", signed.From.Hex())
	}
}

func TestBuildTransferRejectsZeroAddress(t *testing.T) {
	builder := NewBuilder(big.NewInt(421614))
	_, err := builder.BuildTransfer(TransferParams{
		Value:    big.NewInt(1),
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "to" {
		t.Fatalf("unexpected field: %s", verr.Field)
	}
}

func TestBuildTransferValidation(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	cases := []struct {
		name    string
		chainID *big.Int
		params  TransferParams
	}{
		{"missing chain id", nil, TransferParams{To: to, Value: big.NewInt(1), GasPrice: big.NewInt(1), GasLimit: 21000}},
		{"nil value", big.NewInt(1), TransferParams{To: to, GasPrice: big.NewInt(1), GasLimit: 21000}},
		{"negative value", big.NewInt(1), TransferParams{To: to, Value: big.NewInt(-1), GasPrice: big.NewInt(1), GasLimit: 21000}},
		{"nil gas price", big.NewInt(1), TransferParams{To: to, Value: big.NewInt(1), GasLimit: 21000}},
		{"zero gas limit", big.NewInt(1), TransferParams{To: to, Value: big.NewInt(1), GasPrice: big.NewInt(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder(tc.chainID).BuildTransfer(tc.params)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSignRejectsMismatchedSigner(t *testing.T) {
	builder := NewBuilder(big.NewInt(421614))
	tx, err := builder.BuildTransfer(TransferParams{
		To:       common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:    big.NewInt(1),
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
	})
	if err != nil {
		t.Fatalf("BuildTransfer error: %v", err)
	}
	signer := wrongSigner{keySigner: newKeySigner(t), claimed: common.HexToAddress("0x3333333333333333333333333333333333333333")}
	if _, err := builder.Sign(tx, signer); err == nil {
		t.Fatalf("expected sender mismatch error")
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x6FC35791B6D73Fc90951aF166134fFDBa4E933E9 ")
	if err != nil {
		t.Fatalf("ParseAddress error: %v", err)
	}
	if addr != common.HexToAddress("0x6FC35791B6D73Fc90951aF166134fFDBa4E933E9") {
		t.Fatalf("unexpected address: %s", addr.Hex())
	}
	for _, in := range []string{"", "0x1234", "not-an-address", "0x0000000000000000000000000000000000000000"} {
		var verr *ValidationError
		if _, err := ParseAddress(in); !errors.As(err, &verr) {
			t.Fatalf("ParseAddress(%q): expected ValidationError, got %v", in, err)
		}
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.23", 6)
	if err != nil {
		t.Fatalf("ParseUnits error: %v", err)
	}
	if v.String() != "1230000" {
		t.Fatalf("unexpected value: %s", v.String())
	}

	v, err = ParseEther("0.00001")
	if err != nil {
		t.Fatalf("ParseEther error: %v", err)
	}
	if v.String() != "10000000000000" {
		t.Fatalf("unexpected value: %s", v.String())
	}

	for _, in := range []string{"", "-1", "1.2.3", "abc", "1e5", ".", "0.0000000000000000001"} {
		if _, err := ParseEther(in); err == nil {
			t.Fatalf("ParseEther(%q): expected error", in)
		}
	}
}

func TestParseHash(t *testing.T) {
	const in = "0x8c3a6f0e70a5d1c6c0f54f7bd9f1a1c2b6e0b4d3f2e1a0b9c8d7e6f5a4b3c2d1"
	h, err := ParseHash(" " + in + " ")
	if err != nil {
		t.Fatalf("ParseHash error: %v", err)
	}
	if h.Hex() != in {
		t.Fatalf("unexpected hash: %s", h.Hex())
	}
	for _, in := range []string{"", "0x", "8c3a", "0x1234", in + "00"} {
		var verr *ValidationError
		if _, err := ParseHash(in); !errors.As(err, &verr) {
			t.Fatalf("ParseHash(%q): expected ValidationError, got %v", in, err)
		}
	}
}
