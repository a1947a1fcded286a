package wallet

import (
	"fmt"

	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

// Network ties a deployment name to the BIP32 version bytes used for its
// extended keys and to the chain ID that permit domains carry.
type Network struct {
	Name    string
	ChainID uint64
	params  *chaincfg.Params
}

// Predefined networks.
var (
	MainNet = Network{Name: "mainnet", ChainID: 1, params: &chaincfg.MainNet}
	TestNet = Network{Name: "testnet", ChainID: 3, params: &chaincfg.TestNet}
	RegTest = Network{Name: "regtest", ChainID: 1337, params: &chaincfg.TestNet}
)

var predefined = map[string]*Network{
	"mainnet": &MainNet,
	"testnet": &TestNet,
	"regtest": &RegTest,
}

// GetNetwork returns a predefined network by name.
func GetNetwork(name string) (*Network, error) {
	if net, ok := predefined[name]; ok {
		return net, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
}

// NetworkForChainID returns the predefined network with the given chain ID.
func NetworkForChainID(id uint64) (*Network, error) {
	for _, net := range predefined {
		if net.ChainID == id {
			return net, nil
		}
	}
	return nil, fmt.Errorf("%w: chain id %d", ErrInvalidNetwork, id)
}
