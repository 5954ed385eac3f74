package custody

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SealedSeedFile is the sealed seed's file name inside a data directory.
const SealedSeedFile = "custody.enc"

// WriteSealedSeed seals seed under password and writes it to path with
// owner-only permissions. An existing file is never overwritten.
func WriteSealedSeed(path string, seed []byte, password string) error {
	sealed, err := EncryptSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("custody: create seed dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrSeedExists, path)
	}
	if err != nil {
		return fmt.Errorf("custody: create seed file: %w", err)
	}
	if _, err := f.Write(sealed); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("custody: write seed file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("custody: close seed file: %w", err)
	}
	return nil
}

// ReadSealedSeed reads and opens the seed at path.
func ReadSealedSeed(path, password string) ([]byte, error) {
	sealed, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSeedNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("custody: read seed file: %w", err)
	}
	return DecryptSeed(sealed, password)
}

// OpenWallet reads the sealed seed at path and builds a Wallet from it.
func OpenWallet(path, password string, network *NetworkConfig) (*Wallet, error) {
	seed, err := ReadSealedSeed(path, password)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, network)
}
