// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidPayout indicates an unknown payout backend.
	ErrInvalidPayout = errors.New("config: invalid payout (must be \"ledger\", \"bsv\", or \"evm\")")

	// ErrInvalidFeeRate indicates a zero BSV fee rate.
	ErrInvalidFeeRate = errors.New("config: fee rate must be at least 1 sat/KB")

	// ErrMissingRPCURL indicates an EVM payout without an RPC endpoint.
	ErrMissingRPCURL = errors.New("config: rpc_url is required for evm payouts")

	// ErrInvalidSweep indicates a negative keeper interval.
	ErrInvalidSweep = errors.New("config: sweep interval must not be negative")

	// ErrInvalidResolver indicates paymail_resolver is neither "system" nor host:port.
	ErrInvalidResolver = errors.New("config: invalid paymail resolver address")
)
