// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfig indicates the configuration file could not be parsed.
	ErrInvalidConfig = errors.New("config: invalid configuration file")

	// ErrInvalidToken indicates the token section is incomplete or out of range.
	ErrInvalidToken = errors.New("config: invalid token settings")

	// ErrInvalidLockDuration indicates the lock duration is below one second.
	ErrInvalidLockDuration = errors.New("config: lock duration must be at least 1s")

	// ErrInvalidAddress indicates an address field does not parse.
	ErrInvalidAddress = errors.New("config: invalid address")

	// ErrInvalidSupply indicates the initial supply does not parse.
	ErrInvalidSupply = errors.New("config: invalid initial supply")

	// ErrInvalidUpstream indicates the DNS upstream is not host:port.
	ErrInvalidUpstream = errors.New("config: invalid DNS upstream")

	// ErrMissingGenesis indicates a field genesis needs is empty.
	ErrMissingGenesis = errors.New("config: genesis setting missing")
)
