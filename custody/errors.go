package custody

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("custody: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("custody: entropy bits must be 128 or 256")

	// ErrDecryptionFailed indicates wrong password or corrupted seed data.
	ErrDecryptionFailed = errors.New("custody: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("custody: seed checksum mismatch")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("custody: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("custody: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("custody: key derivation failed")

	// ErrIndexOutOfRange indicates a chain or address index in the hardened range.
	ErrIndexOutOfRange = errors.New("custody: index exceeds non-hardened maximum (2^31-1)")

	// ErrSeedNotFound indicates no sealed seed file exists at the given path.
	ErrSeedNotFound = errors.New("custody: sealed seed not found")

	// ErrSeedExists indicates a sealed seed file would be overwritten.
	ErrSeedExists = errors.New("custody: sealed seed already exists")
)
