package custody

import (
	"fmt"

	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

// NetworkConfig defines the address parameters of a BSV network.
type NetworkConfig struct {
	Name           string `json:"name"`
	AddressVersion byte   `json:"address_version"`
	Mainnet        bool   `json:"mainnet"`
}

// Predefined network configurations.
var (
	MainNet = NetworkConfig{Name: "mainnet", AddressVersion: 0x00, Mainnet: true}
	TestNet = NetworkConfig{Name: "testnet", AddressVersion: 0x6f}
	RegTest = NetworkConfig{Name: "regtest", AddressVersion: 0x6f}
)

var predefined = map[string]*NetworkConfig{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
func GetNetwork(name string) (*NetworkConfig, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

func (n *NetworkConfig) chainParams() *chaincfg.Params {
	if n.Mainnet {
		return &chaincfg.MainNet
	}
	return &chaincfg.TestNet
}
