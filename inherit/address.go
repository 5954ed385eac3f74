package inherit

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/script"
)

// AddressSize is the length of an identity in bytes.
const AddressSize = 20

// Address identifies an owner or beneficiary: a P2PKH public key hash on
// BSV, or an account address on EVM chains. The zero value is invalid.
type Address [AddressSize]byte

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String renders the address as 0x-prefixed hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// AddressFromBytes copies a 20-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress accepts 40 hex characters (optionally 0x-prefixed) or a
// Base58Check BSV address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h) == 2*AddressSize {
		if raw, err := hex.DecodeString(h); err == nil {
			return AddressFromBytes(raw)
		}
	}

	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return AddressFromBytes([]byte(addr.PublicKeyHash))
}

// MustParseAddress is like ParseAddress but panics on error. Intended for
// tests and static configuration.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
