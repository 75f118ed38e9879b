package keys

import (
	"crypto/ecdsa"
	"errors"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeystoreSigner decrypts the key for each signature and drops it afterwards.
type KeystoreSigner struct {
	ks         *keystore.KeyStore
	acct       accounts.Account
	passphrase string
}

func (s *KeystoreSigner) Address() common.Address {
	return s.acct.Address
}

func (s *KeystoreSigner) SignDigest(digest common.Hash) ([]byte, error) {
	return s.ks.SignHashWithPassphrase(s.acct, s.passphrase, digest[:])
}

func (s *KeystoreSigner) String() string {
	return "keystore:" + s.acct.Address.Hex()
}

// PrivateKeySigner holds a raw secp256k1 key in memory.
type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// the parse error can echo key material
		return nil, errors.New("private key is not valid hex secp256k1")
	}
	return &PrivateKeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// PrivateKeySignerFromEnv reads the key from the named environment variable.
func PrivateKeySignerFromEnv(name string) (*PrivateKeySigner, error) {
	if name == "" {
		return nil, errors.New("private key env var name is empty")
	}
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, errors.New(name + " is not set")
	}
	return NewPrivateKeySigner(v)
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.addr
}

func (s *PrivateKeySigner) SignDigest(digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest[:], s.key)
}

// String never includes the key.
func (s *PrivateKeySigner) String() string {
	return "key:" + s.addr.Hex()
}
