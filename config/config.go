// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the operator configuration for a ledger
// deployment. The file seeds genesis; once a ledger exists, runtime-mutable
// values such as the treasury and lock duration live in the ledger state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bitfsorg/libvest-go/ledger"
	"github.com/bitfsorg/libvest-go/wallet"
)

const (
	// ConfigFile is the configuration file name inside the data directory.
	ConfigFile = "config.yaml"

	// StoreFile is the bbolt database name inside the data directory.
	StoreFile = "ledger.db"

	// WalletDir is the wallet directory name inside the data directory.
	WalletDir = "wallet"

	configHeader = "# libvest configuration\n"
)

// Config is the operator configuration.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	Network     string `yaml:"network"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	DNSUpstream string `yaml:"dns_upstream"`

	Token TokenConfig `yaml:"token"`

	// Genesis inputs. Addresses are hex; InitialSupply is a decimal amount
	// in whole tokens, e.g. "1000000.5".
	Deployer         string        `yaml:"deployer"`
	Treasury         string        `yaml:"treasury"`
	TrustedForwarder string        `yaml:"trusted_forwarder"`
	InitialSupply    string        `yaml:"initial_supply"`
	LockDuration     time.Duration `yaml:"lock_duration"`
}

// TokenConfig identifies the token and the signing domain of its permits.
type TokenConfig struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Decimals uint8  `yaml:"decimals"`
	// ChainID defaults to the network's chain ID when zero.
	ChainID uint64 `yaml:"chain_id"`
	// VerifyingContract defaults to the deployer address when empty.
	VerifyingContract string `yaml:"verifying_contract"`
}

// DefaultDataDir returns ~/.vest, or .vest in the working directory when
// the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vest"
	}
	return filepath.Join(home, ".vest")
}

// ConfigPath returns the configuration file path for dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// DefaultConfig returns a configuration with every optional field set.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Network:     wallet.MainNet.Name,
		LogLevel:    "info",
		DNSUpstream: "8.8.8.8:53",
		Token: TokenConfig{
			Name:     "Vest",
			Version:  "1",
			Decimals: ledger.DefaultDecimals,
		},
		InitialSupply: "0",
		LockDuration:  ledger.DefaultLockDuration,
	}
}

// StorePath returns the bbolt database path.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, StoreFile)
}

// WalletPath returns the wallet directory.
func (c Config) WalletPath() string {
	return filepath.Join(c.DataDir, WalletDir)
}

// LoadConfig reads the YAML file at path over DefaultConfig, so keys the
// file omits keep their defaults. Unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Domain returns the permit signing domain for this deployment.
func (c Config) Domain() (ledger.Domain, error) {
	d := ledger.Domain{Name: c.Token.Name, Version: c.Token.Version, ChainID: c.Token.ChainID}
	if d.ChainID == 0 {
		net, err := wallet.GetNetwork(c.Network)
		if err != nil {
			return d, fmt.Errorf("%w: %q", ErrInvalidNetwork, c.Network)
		}
		d.ChainID = net.ChainID
	}
	vc := c.Token.VerifyingContract
	if vc == "" {
		vc = c.Deployer
	}
	if vc == "" {
		return d, fmt.Errorf("%w: verifying_contract or deployer", ErrMissingGenesis)
	}
	addr, err := ledger.ParseAddress(vc)
	if err != nil {
		return d, fmt.Errorf("%w: verifying_contract: %w", ErrInvalidAddress, err)
	}
	d.VerifyingContract = addr
	return d, nil
}

// Genesis turns the genesis inputs into a ledger.Genesis.
func (c Config) Genesis() (ledger.Genesis, error) {
	var g ledger.Genesis
	if c.Deployer == "" {
		return g, fmt.Errorf("%w: deployer", ErrMissingGenesis)
	}
	if c.Treasury == "" {
		return g, fmt.Errorf("%w: treasury", ErrMissingGenesis)
	}
	var err error
	if g.Deployer, err = ledger.ParseAddress(c.Deployer); err != nil {
		return g, fmt.Errorf("%w: deployer: %w", ErrInvalidAddress, err)
	}
	if g.Treasury, err = ledger.ParseAddress(c.Treasury); err != nil {
		return g, fmt.Errorf("%w: treasury: %w", ErrInvalidAddress, err)
	}
	if g.InitialSupply, err = ledger.ParseAmount(c.InitialSupply, c.Token.Decimals); err != nil {
		return g, fmt.Errorf("%w: %w", ErrInvalidSupply, err)
	}
	if g.Domain, err = c.Domain(); err != nil {
		return g, err
	}
	g.LockDuration = c.LockDuration
	g.Decimals = c.Token.Decimals
	return g, nil
}

// Forwarder returns the trusted forwarder, or the zero address when unset.
func (c Config) Forwarder() (ledger.Address, error) {
	if c.TrustedForwarder == "" {
		return ledger.ZeroAddress, nil
	}
	addr, err := ledger.ParseAddress(c.TrustedForwarder)
	if err != nil {
		return addr, fmt.Errorf("%w: trusted_forwarder: %w", ErrInvalidAddress, err)
	}
	return addr, nil
}
