// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/libvest-go/ledger"
	"github.com/bitfsorg/libvest-go/wallet"
)

// maxDecimals keeps one whole token representable in a uint64.
const maxDecimals = 18

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid. Genesis
// addresses may be empty here; Genesis reports them when they are needed.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}
	if _, err := wallet.GetNetwork(cfg.Network); err != nil {
		return ErrInvalidNetwork
	}
	if _, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}
	if cfg.DNSUpstream != "" {
		if _, _, err := net.SplitHostPort(cfg.DNSUpstream); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidUpstream, err)
		}
	}

	if cfg.Token.Name == "" || cfg.Token.Version == "" {
		return fmt.Errorf("%w: name and version are required", ErrInvalidToken)
	}
	if cfg.Token.Decimals > maxDecimals {
		return fmt.Errorf("%w: decimals %d > %d", ErrInvalidToken, cfg.Token.Decimals, maxDecimals)
	}
	if cfg.LockDuration < time.Second {
		return ErrInvalidLockDuration
	}

	for _, f := range []struct{ name, value string }{
		{"deployer", cfg.Deployer},
		{"treasury", cfg.Treasury},
		{"trusted_forwarder", cfg.TrustedForwarder},
		{"verifying_contract", cfg.Token.VerifyingContract},
	} {
		if f.value == "" {
			continue
		}
		if _, err := ledger.ParseAddress(f.value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidAddress, f.name, err)
		}
	}
	if _, err := ledger.ParseAmount(cfg.InitialSupply, cfg.Token.Decimals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSupply, err)
	}
	return nil
}

// Level returns the configured logrus level.
func (c Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}
