// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and validates the heirloom node configuration, a
// flat key = value file stored in the data directory.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Payout backends.
const (
	PayoutLedger = "ledger"
	PayoutBSV    = "bsv"
	PayoutEVM    = "evm"
)

// ResolverSystem selects the operating system's DNS resolver.
const ResolverSystem = "system"


// Config holds the node configuration.
type Config struct {
	DataDir  string
	Network  string
	LogLevel string
	LogFile  string // empty means stderr

	Payout      string
	RPCURL      string
	RPCUser     string
	RPCPassword string
	FeeRate     uint64        // sat/KB for BSV payouts
	ChainID     uint64        // EVM chain id; 0 asks the node
	SweepEvery  time.Duration // keeper interval; 0 disables the sweep
	Rescan      bool          // rescan the chain when importing the custody address

	// PaymailResolver is "system" or the host:port of a DNSSEC-validating
	// resolver used for beneficiary handle lookups.
	PaymailResolver string
}

// DefaultDataDir returns ~/.heirloom, or .heirloom in the working
// directory when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heirloom"
	}
	return filepath.Join(home, ".heirloom")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		Network:    "mainnet",
		LogLevel:   "info",
		Payout:     PayoutLedger,
		FeeRate:    1,
		SweepEvery: 10 * time.Minute,

		PaymailResolver: ResolverSystem,
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads path on top of DefaultConfig. Blank lines and lines
// starting with # are skipped; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "network":
		c.Network = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	case "payout":
		c.Payout = value
	case "rpc_url":
		c.RPCURL = value
	case "rpc_user":
		c.RPCUser = value
	case "rpc_password":
		c.RPCPassword = value
	case "feerate":
		c.FeeRate, err = strconv.ParseUint(value, 10, 64)
	case "chainid":
		c.ChainID, err = strconv.ParseUint(value, 10, 64)
	case "sweep":
		c.SweepEvery, err = time.ParseDuration(value)
	case "rescan":
		c.Rescan, err = strconv.ParseBool(value)
	case "paymail_resolver":
		c.PaymailResolver = value
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories. The file is
// owner-only since it may carry RPC credentials.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Heirloom Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	b.WriteString("\n# Payouts\n")
	fmt.Fprintf(&b, "payout = %s\n", cfg.Payout)
	fmt.Fprintf(&b, "rpc_url = %s\n", cfg.RPCURL)
	fmt.Fprintf(&b, "rpc_user = %s\n", cfg.RPCUser)
	fmt.Fprintf(&b, "rpc_password = %s\n", cfg.RPCPassword)
	fmt.Fprintf(&b, "feerate = %d\n", cfg.FeeRate)
	fmt.Fprintf(&b, "chainid = %d\n", cfg.ChainID)
	fmt.Fprintf(&b, "sweep = %s\n", cfg.SweepEvery)
	fmt.Fprintf(&b, "rescan = %t\n", cfg.Rescan)
	b.WriteString("\n# Beneficiary handles\n")
	fmt.Fprintf(&b, "paymail_resolver = %s\n", cfg.PaymailResolver)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
