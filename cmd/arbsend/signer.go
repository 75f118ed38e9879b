package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"

	"arbsend/internal/config"
	"arbsend/internal/keys"
	"arbsend/internal/txbuilder"
)

var errNoSigner = errors.New("no signer configured")

// loadSigner picks the raw key from the environment first, then the keystore.
// With interactive set, a missing keystore passphrase is prompted for.
func loadSigner(cfg *config.Config, interactive bool, prompt io.Writer) (txbuilder.Signer, error) {
	if v := lookupEnv(cfg.Signer.PrivateKeyEnv); v != "" {
		s, err := keys.NewPrivateKeySigner(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Signer.PrivateKeyEnv, err)
		}
		return s, nil
	}
	if _, err := os.Stat(cfg.KeyStore.Dir); err != nil {
		return nil, fmt.Errorf("%w: set %s or create a keystore account with `arbsend account new`", errNoSigner, cfg.Signer.PrivateKeyEnv)
	}
	var addr common.Address
	if cfg.KeyStore.Address != "" {
		parsed, err := txbuilder.ParseAddress(cfg.KeyStore.Address)
		if err != nil {
			return nil, fmt.Errorf("keystore.address: %w", err)
		}
		addr = parsed
	}
	listing, err := keysManagerForListing(cfg)
	if err != nil {
		return nil, err
	}
	if len(listing.Accounts()) == 0 {
		return nil, fmt.Errorf("%w: no accounts in %s", errNoSigner, listing.KeystoreDir())
	}
	passphrase, err := keystorePassphrase(cfg, interactive, prompt)
	if err != nil {
		return nil, err
	}
	m, err := keys.NewManager(cfg.KeyStore.Dir, passphrase)
	if err != nil {
		return nil, err
	}
	s, err := m.Signer(addr)
	if errors.Is(err, keys.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s is not in %s", errNoSigner, addr.Hex(), m.KeystoreDir())
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func keystorePassphrase(cfg *config.Config, interactive bool, prompt io.Writer) (string, error) {
	if v := os.Getenv(cfg.KeyStore.PassphraseEnv); v != "" {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if !interactive || !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: %s is not set", errNoSigner, cfg.KeyStore.PassphraseEnv)
	}
	fmt.Fprint(prompt, "Keystore passphrase: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("empty passphrase")
	}
	return string(b), nil
}

func newKeysManager(cfg *config.Config, prompt io.Writer) (*keys.Manager, error) {
	passphrase, err := keystorePassphrase(cfg, true, prompt)
	if err != nil {
		return nil, err
	}
	return keys.NewManager(cfg.KeyStore.Dir, passphrase)
}

func keysManagerForListing(cfg *config.Config) (*keys.Manager, error) {
	return keys.NewManager(cfg.KeyStore.Dir, "")
}

func lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}
