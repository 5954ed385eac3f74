// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"net"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validPayouts = map[string]bool{
	PayoutLedger: true,
	PayoutBSV:    true,
	PayoutEVM:    true,
}

// ValidateConfig returns the first invalid setting in cfg, or nil.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if !validPayouts[strings.ToLower(cfg.Payout)] {
		return ErrInvalidPayout
	}

	switch strings.ToLower(cfg.Payout) {
	case PayoutBSV:
		if cfg.FeeRate == 0 {
			return ErrInvalidFeeRate
		}
	case PayoutEVM:
		if cfg.RPCURL == "" {
			return ErrMissingRPCURL
		}
	}

	if cfg.SweepEvery < 0 {
		return ErrInvalidSweep
	}

	if cfg.PaymailResolver != "" && cfg.PaymailResolver != ResolverSystem {
		if _, _, err := net.SplitHostPort(cfg.PaymailResolver); err != nil {
			return ErrInvalidResolver
		}
	}
	return nil
}
