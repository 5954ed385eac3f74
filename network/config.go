package network

import "fmt"

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "HEIRLOOM_RPC_URL"
	EnvRPCUser = "HEIRLOOM_RPC_USER"
	EnvRPCPass = "HEIRLOOM_RPC_PASS"
)

// RPCConfig holds the connection parameters for a BSV node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// NetworkPresets contains default RPC configurations for local nodes.
// Mainnet has no preset and must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "heirloom", Password: "heirloom"},
	"testnet": {URL: "http://localhost:18333", User: "heirloom", Password: "heirloom"},
}

// ResolveConfig merges RPC configuration with decreasing priority:
// explicit values, then HEIRLOOM_RPC_* environment variables, then the
// network preset.
func ResolveConfig(explicit *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if v := env[EnvRPCURL]; v != "" {
		result.URL = v
	}
	if v := env[EnvRPCUser]; v != "" {
		result.User = v
	}
	if v := env[EnvRPCPass]; v != "" {
		result.Password = v
	}

	if explicit != nil {
		if explicit.URL != "" {
			result.URL = explicit.URL
		}
		if explicit.User != "" {
			result.User = explicit.User
		}
		if explicit.Password != "" {
			result.Password = explicit.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s requires an explicit RPC URL (set rpc_url or %s)",
			ErrNoEndpoint, network, EnvRPCURL)
	}
	return &result, nil
}
