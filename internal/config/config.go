package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	if value.Value == "" {
		d.Duration = 0
		return nil
	}
	if value.Tag == "!!int" {
		var v int64
		if err := value.Decode(&v); err != nil {
			return err
		}
		d.Duration = time.Duration(v) * time.Millisecond
		return nil
	}
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = dur
	return nil
}

// Network holds the per-chain defaults.
type Network struct {
	ChainID     uint64
	RPC         string
	ExplorerURL string
}

const DefaultChain = "arbitrum-sepolia"

var Networks = map[string]Network{
	"arbitrum-sepolia": {ChainID: 421614, RPC: "https://arbitrum-sepolia-rpc.publicnode.com", ExplorerURL: "https://sepolia.arbiscan.io"},
	"sepolia":          {ChainID: 11155111, RPC: "https://ethereum-sepolia-rpc.publicnode.com", ExplorerURL: "https://sepolia.etherscan.io"},
	"base":             {ChainID: 8453, RPC: "https://mainnet.base.org", ExplorerURL: "https://basescan.org"},
}

type Config struct {
	Chain       string `yaml:"chain"`
	ChainID     uint64 `yaml:"chain_id"`
	ExplorerURL string `yaml:"explorer_url"`

	RPC struct {
		HTTP           string   `yaml:"http"`
		RequestTimeout Duration `yaml:"request_timeout"`
	} `yaml:"rpc"`

	// Retry applies to read-only calls only. Max is zero unless configured.
	Retry struct {
		Max     int      `yaml:"max"`
		Backoff Duration `yaml:"backoff"`
	} `yaml:"retry"`

	Confirm struct {
		PollInterval Duration `yaml:"poll_interval"`
		Timeout      Duration `yaml:"timeout"`
	} `yaml:"confirm"`

	Tx struct {
		SequenceNonces bool `yaml:"sequence_nonces"`
	} `yaml:"tx"`

	Signer struct {
		PrivateKeyEnv string `yaml:"private_key_env"`
	} `yaml:"signer"`

	KeyStore struct {
		Dir           string `yaml:"dir"`
		Address       string `yaml:"address"`
		PassphraseEnv string `yaml:"passphrase_env"`
	} `yaml:"keystore"`

	API struct {
		Listen    string `yaml:"listen"`
		AuthToken string `yaml:"auth_token"`
	} `yaml:"api"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// LoadOrDefault treats a missing file as an empty one.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(nil)
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Parse(nil)
	}
	return cfg, err
}

func Parse(b []byte) (*Config, error) {
	var cfg Config
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Chain == "" {
		c.Chain = DefaultChain
	}
	c.Chain = strings.ToLower(strings.TrimSpace(c.Chain))
	if n, ok := Networks[c.Chain]; ok {
		if c.ChainID == 0 {
			c.ChainID = n.ChainID
		}
		if c.RPC.HTTP == "" {
			c.RPC.HTTP = n.RPC
		}
		if c.ExplorerURL == "" {
			c.ExplorerURL = n.ExplorerURL
		}
	}
	c.ExplorerURL = strings.TrimRight(c.ExplorerURL, "/")
	if c.RPC.RequestTimeout.Duration == 0 {
		c.RPC.RequestTimeout = Duration{Duration: 15 * time.Second}
	}
	if c.Retry.Backoff.Duration == 0 {
		c.Retry.Backoff = Duration{Duration: 500 * time.Millisecond}
	}
	if c.Confirm.PollInterval.Duration == 0 {
		c.Confirm.PollInterval = Duration{Duration: 2 * time.Second}
	}
	if c.Confirm.Timeout.Duration == 0 {
		c.Confirm.Timeout = Duration{Duration: 2 * time.Minute}
	}
	if c.Signer.PrivateKeyEnv == "" {
		c.Signer.PrivateKeyEnv = "ARBSEND_PRIVATE_KEY"
	}
	if c.KeyStore.Dir == "" {
		c.KeyStore.Dir = "data/keystore"
	}
	if c.KeyStore.PassphraseEnv == "" {
		c.KeyStore.PassphraseEnv = "ARBSEND_KEYSTORE_PASSPHRASE"
	}
	if c.API.Listen == "" {
		c.API.Listen = "127.0.0.1:8080"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal.json"
	}
}

func (c *Config) validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("chain_id is required for chain %q", c.Chain)
	}
	if c.RPC.HTTP == "" {
		return fmt.Errorf("rpc.http is required for chain %q", c.Chain)
	}
	if c.Retry.Max < 0 {
		return fmt.Errorf("retry.max must be >= 0")
	}
	if c.Confirm.Timeout.Duration < 0 {
		return fmt.Errorf("confirm.timeout must be >= 0")
	}
	return nil
}

// TxURL links a transaction hash in the block explorer, or returns "" when
// no explorer is known.
func (c *Config) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/tx/" + hash
}

func (c *Config) AddressURL(addr string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/address/" + addr
}
