package custody

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/heirloom-go/inherit"
)

const (
	// BIP44 path constants.
	PurposeBIP44  = 44
	CoinTypeBSV   = 236
	PayoutAccount = 0

	// Chain indices.
	ExternalChain = 0
	InternalChain = 1

	// BIP32 limits.
	MaxChildIndex = 1<<31 - 1
	Hardened      = 0x80000000
)

// Wallet derives custody keys from a BIP39 seed.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"`
	network    *NetworkConfig
}

// NewWallet creates a Wallet from a BIP39 seed. A nil network means mainnet.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	masterKey, err := bip32.NewMaster(seed, network.chainParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey, network: network}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// DeriveKey derives m/44'/236'/0'/chain/index.
func (w *Wallet) DeriveKey(chain, index uint32) (*KeyPair, error) {
	if chain > MaxChildIndex || index > MaxChildIndex {
		return nil, ErrIndexOutOfRange
	}

	key := w.masterKey
	for i, child := range []uint32{
		PurposeBIP44 + Hardened,
		CoinTypeBSV + Hardened,
		PayoutAccount + Hardened,
		chain,
		index,
	} {
		next, err := key.Child(child)
		if err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, i+1, err)
		}
		key = next
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}
	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  privKey.PubKey(),
		Path:       fmt.Sprintf("m/44'/236'/0'/%d/%d", chain, index),
		network:    w.network,
	}, nil
}

// PayoutKey returns the key whose outputs fund payouts. Change returns to
// the same key so a single address holds all custody funds.
func (w *Wallet) PayoutKey() (*KeyPair, error) {
	return w.DeriveKey(ExternalChain, 0)
}

func (kp *KeyPair) address() (*script.Address, error) {
	mainnet := kp.network == nil || kp.network.Mainnet
	addr, err := script.NewAddressFromPublicKey(kp.PublicKey, mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %w", ErrDerivationFailed, err)
	}
	return addr, nil
}

// Address returns the key's public key hash as a registry identity.
func (kp *KeyPair) Address() (inherit.Address, error) {
	addr, err := kp.address()
	if err != nil {
		return inherit.Address{}, err
	}
	return inherit.AddressFromBytes([]byte(addr.PublicKeyHash))
}

// P2PKHAddress returns the Base58Check address for the key's network.
func (kp *KeyPair) P2PKHAddress() (string, error) {
	addr, err := kp.address()
	if err != nil {
		return "", err
	}
	return addr.AddressString, nil
}
