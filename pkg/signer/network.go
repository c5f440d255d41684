package signer

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network selects the chain parameters used for key derivation and addresses.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkRegtest Network = "regtest"
)

// ParseNetwork converts a user-supplied name into a Network.
func ParseNetwork(raw string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(NetworkMainnet), "main":
		return NetworkMainnet, nil
	case string(NetworkTestnet), "test", "testnet3":
		return NetworkTestnet, nil
	case string(NetworkRegtest), "regression":
		return NetworkRegtest, nil
	default:
		return "", fmt.Errorf("unsupported network %q", raw)
	}
}

func (n Network) String() string {
	return string(n)
}

// Params returns the btcd chain parameters for n.
func (n Network) Params() (*chaincfg.Params, error) {
	switch n {
	case NetworkMainnet:
		return &chaincfg.MainNetParams, nil
	case NetworkTestnet:
		return &chaincfg.TestNet3Params, nil
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", string(n))
	}
}
