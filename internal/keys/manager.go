package keys

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrAccountNotFound = errors.New("account not found")

// Manager wraps an encrypted keystore directory. The passphrase unlocks
// individual signatures; accounts are never left unlocked.
type Manager struct {
	ks         *keystore.KeyStore
	passphrase string
	dir        string
}

func NewManager(dir string, passphrase string) (*Manager, error) {
	return NewManagerWithScrypt(dir, passphrase, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewManagerWithScrypt lets tests trade key-derivation strength for speed.
func NewManagerWithScrypt(dir string, passphrase string, scryptN, scryptP int) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("keystore dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	ks := keystore.NewKeyStore(dir, scryptN, scryptP)
	return &Manager{ks: ks, passphrase: passphrase, dir: dir}, nil
}

func (m *Manager) CreateAccount() (common.Address, error) {
	if m.passphrase == "" {
		return common.Address{}, errors.New("keystore passphrase is empty")
	}
	acct, err := m.ks.NewAccount(m.passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Address, nil
}

// ImportPrivateKey encrypts a raw hex key into the keystore.
func (m *Manager) ImportPrivateKey(hexKey string) (common.Address, error) {
	if m.passphrase == "" {
		return common.Address{}, errors.New("keystore passphrase is empty")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, errors.New("private key is not valid hex secp256k1")
	}
	acct, err := m.ks.ImportECDSA(key, m.passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Address, nil
}

func (m *Manager) Accounts() []common.Address {
	acctList := m.ks.Accounts()
	out := make([]common.Address, 0, len(acctList))
	for _, acct := range acctList {
		out = append(out, acct.Address)
	}
	return out
}

func (m *Manager) FindAccount(addr common.Address) (accounts.Account, error) {
	for _, acct := range m.ks.Accounts() {
		if acct.Address == addr {
			return acct, nil
		}
	}
	return accounts.Account{}, ErrAccountNotFound
}

// Signer returns a signing capability for addr. With the zero address and a
// single account in the keystore, that account is used.
func (m *Manager) Signer(addr common.Address) (*KeystoreSigner, error) {
	if m.passphrase == "" {
		return nil, errors.New("keystore passphrase is empty")
	}
	if addr == (common.Address{}) {
		list := m.ks.Accounts()
		switch len(list) {
		case 0:
			return nil, ErrAccountNotFound
		case 1:
			return &KeystoreSigner{ks: m.ks, acct: list[0], passphrase: m.passphrase}, nil
		default:
			return nil, errors.New("keystore holds several accounts, keystore.address must pick one")
		}
	}
	acct, err := m.FindAccount(addr)
	if err != nil {
		return nil, err
	}
	return &KeystoreSigner{ks: m.ks, acct: acct, passphrase: m.passphrase}, nil
}

func (m *Manager) KeystoreDir() string {
	return filepath.Clean(m.dir)
}

func (m *Manager) PassphraseSet() bool {
	return m.passphrase != ""
}
