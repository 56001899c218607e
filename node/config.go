// Package node wires the coordination engine together: configuration, the
// per-chain component sets, the multi-chain router, and the context that
// registers every listener, subscriber, and RPC server on the schedulers.
package node

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/listener"
	"github.com/randcast-network/randcast-node/retry"
)

// Environment variables consulted when the matching config field holds the
// sentinel value "env" (spec.md §6).
const (
	EnvMnemonic         = "ARPA_NODE_HD_ACCOUNT_MNEMONIC"
	EnvKeystorePassword = "ARPA_NODE_ACCOUNT_KEYSTORE_PASSWORD"
	EnvPrivateKey       = "ARPA_NODE_ACCOUNT_PRIVATE_KEY"
	EnvManagementToken  = "ARPA_NODE_MANAGEMENT_SERVER_TOKEN"
)

const envSentinel = "env"

// Config is the node's TOML-file configuration.
type Config struct {
	NodeCommitterRPCEndpoint  string `toml:"node_committer_rpc_endpoint"`
	NodeAdvertisedEndpoint    string `toml:"node_advertised_committer_rpc_endpoint"`
	NodeManagementRPCEndpoint string `toml:"node_management_rpc_endpoint"`
	NodeManagementRPCToken    string `toml:"node_management_rpc_token"`
	MetricsEndpoint           string `toml:"node_statistics_http_endpoint"`

	DataPath string `toml:"data_path"`

	Account Account `toml:"account"`

	MainChain     ChainConfig   `toml:"main_chain"`
	RelayedChains []ChainConfig `toml:"relayed_chains"`

	TimeLimits TimeLimits `toml:"time_limits"`
}

// ChainConfig describes one chain the node participates on.
type ChainConfig struct {
	ChainID           uint32 `toml:"chain_id"`
	ProviderEndpoint  string `toml:"provider_endpoint"`
	ControllerAddress string `toml:"controller_address"`
	AdapterAddress    string `toml:"adapter_address"`
}

// Account selects exactly one of the three key-material sources. Fields
// holding "env" defer to the corresponding environment variable.
type Account struct {
	PrivateKey string    `toml:"private_key"`
	Keystore   *Keystore `toml:"keystore"`
	HDWallet   *HDWallet `toml:"hdwallet"`
}

// Keystore points at an encrypted geth keystore file.
type Keystore struct {
	Path     string `toml:"path"`
	Password string `toml:"password"`
}

// HDWallet derives the signing key from a BIP-39 mnemonic.
type HDWallet struct {
	Mnemonic       string `toml:"mnemonic"`
	DerivationPath string `toml:"derivation_path"`
	Index          uint32 `toml:"index"`
	Passphrase     string `toml:"passphrase"`
}

// TimeLimits collects every interval, window, and retry knob.
type TimeLimits struct {
	ListenerIntervalMillis        uint64      `toml:"listener_interval_millis"`
	ListenerUseJitter             bool        `toml:"listener_use_jitter"`
	DKGTimeoutDuration            uint64      `toml:"dkg_timeout_duration"`
	DKGWaitForPhaseIntervalMillis uint64      `toml:"dkg_wait_for_phase_interval_millis"`
	RandomnessTaskExclusiveWindow uint64      `toml:"randomness_task_exclusive_window"`
	ContractTransactionRetry      RetryConfig `toml:"contract_transaction_retry_descriptor"`
	CommitPartialSignatureRetry   RetryConfig `toml:"commit_partial_signature_retry_descriptor"`
}

// RetryConfig is the TOML shape of spec.md §4.6's
// ExponentialBackoffRetryDescriptor.
type RetryConfig struct {
	BaseMillis  uint64  `toml:"base"`
	Factor      float64 `toml:"factor"`
	MaxAttempts int     `toml:"max_attempts"`
	UseJitter   bool    `toml:"use_jitter"`
}

// Descriptor converts to the retry package's runtime form.
func (r RetryConfig) Descriptor() retry.Descriptor {
	return retry.Descriptor{
		Base:        time.Duration(r.BaseMillis) * time.Millisecond,
		Factor:      r.Factor,
		MaxAttempts: r.MaxAttempts,
		UseJitter:   r.UseJitter,
	}
}

// ListenerConfig converts to the listener package's tick configuration.
func (t TimeLimits) ListenerConfig() listener.Config {
	return listener.Config{
		Interval:  time.Duration(t.ListenerIntervalMillis) * time.Millisecond,
		UseJitter: t.ListenerUseJitter,
	}
}

// DKGPhaseInterval is how long the DKG board waits between coordinator polls.
func (t TimeLimits) DKGPhaseInterval() time.Duration {
	return time.Duration(t.DKGWaitForPhaseIntervalMillis) * time.Millisecond
}

// Load reads, defaults, env-resolves, and validates a config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.resolveEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.NodeAdvertisedEndpoint == "" {
		c.NodeAdvertisedEndpoint = c.NodeCommitterRPCEndpoint
	}
	if c.DataPath == "" {
		c.DataPath = "./data"
	}
	t := &c.TimeLimits
	if t.ListenerIntervalMillis == 0 {
		t.ListenerIntervalMillis = 1000
	}
	if t.DKGTimeoutDuration == 0 {
		t.DKGTimeoutDuration = 40
	}
	if t.DKGWaitForPhaseIntervalMillis == 0 {
		t.DKGWaitForPhaseIntervalMillis = 10000
	}
	if t.RandomnessTaskExclusiveWindow == 0 {
		t.RandomnessTaskExclusiveWindow = 10
	}
	if t.ContractTransactionRetry.Factor == 0 {
		t.ContractTransactionRetry = RetryConfig{BaseMillis: 500, Factor: 2, MaxAttempts: 5, UseJitter: true}
	}
	if t.CommitPartialSignatureRetry.Factor == 0 {
		t.CommitPartialSignatureRetry = RetryConfig{BaseMillis: 1000, Factor: 2, MaxAttempts: 5, UseJitter: true}
	}
}

// resolveEnv swaps the "env" sentinel for the corresponding environment
// variable on the four fields spec.md §6 names.
func (c *Config) resolveEnv() error {
	resolve := func(field *string, envVar string) error {
		if *field != envSentinel {
			return nil
		}
		v, ok := os.LookupEnv(envVar)
		if !ok {
			return fmt.Errorf("config requested %s from environment, but it is unset", envVar)
		}
		*field = v
		return nil
	}

	if err := resolve(&c.NodeManagementRPCToken, EnvManagementToken); err != nil {
		return err
	}
	if err := resolve(&c.Account.PrivateKey, EnvPrivateKey); err != nil {
		return err
	}
	if c.Account.Keystore != nil {
		if err := resolve(&c.Account.Keystore.Password, EnvKeystorePassword); err != nil {
			return err
		}
	}
	if c.Account.HDWallet != nil {
		if err := resolve(&c.Account.HDWallet.Mnemonic, EnvMnemonic); err != nil {
			return err
		}
	}
	return nil
}

// Validate enforces the fatal-at-startup configuration checks (spec.md §7).
func (c *Config) Validate() error {
	if c.NodeCommitterRPCEndpoint == "" {
		return fmt.Errorf("%w: node_committer_rpc_endpoint", errs.ErrBadRPCEndpoint)
	}
	if c.Account.PrivateKey == "" && c.Account.Keystore == nil && c.Account.HDWallet == nil {
		return errs.ErrLackOfAccount
	}

	chains := append([]ChainConfig{c.MainChain}, c.RelayedChains...)
	seen := make(map[uint32]bool, len(chains))
	for _, cc := range chains {
		if cc.ProviderEndpoint == "" {
			return fmt.Errorf("%w: chain %d provider_endpoint", errs.ErrBadRPCEndpoint, cc.ChainID)
		}
		if !common.IsHexAddress(cc.ControllerAddress) && cc.ChainID == c.MainChain.ChainID {
			return fmt.Errorf("%w: chain %d controller_address %q", errs.ErrBadContractAddr, cc.ChainID, cc.ControllerAddress)
		}
		if !common.IsHexAddress(cc.AdapterAddress) {
			return fmt.Errorf("%w: chain %d adapter_address %q", errs.ErrBadContractAddr, cc.ChainID, cc.AdapterAddress)
		}
		if seen[cc.ChainID] {
			return fmt.Errorf("duplicate chain_id %d in configuration", cc.ChainID)
		}
		seen[cc.ChainID] = true
	}
	return nil
}
