package evm

import (
	"fmt"
	"os"
)

// Config stores the EVM-ledger connection and contract parameters. The signing
// key is looked up from the named environment variable, never from the file.
type Config struct {
	RPCURL           string `yaml:"rpc_url"`
	ChainID          int64  `yaml:"chain_id"`
	ContractAddress  string `yaml:"contract_address"`
	PrivateKeyEnv    string `yaml:"private_key_env"`
	GasLimit         uint64 `yaml:"gas_limit"`
	InclusionTimeout string `yaml:"inclusion_timeout"` // wait-for-inclusion bound, e.g. "60s"
}

// SetDefaults sets reasonable default values for the EVM client configuration.
func (c *Config) SetDefaults() {
	if c.PrivateKeyEnv == "" {
		c.PrivateKeyEnv = "ETH_PRIVATE_KEY"
	}
	if c.GasLimit == 0 {
		c.GasLimit = 300000
		fmt.Printf("Warning: evm.gas_limit not set, defaulting to %d\n", c.GasLimit)
	}
	if c.InclusionTimeout == "" {
		c.InclusionTimeout = "60s"
		fmt.Printf("Warning: evm.inclusion_timeout not set, defaulting to %s\n", c.InclusionTimeout)
	}
}

// Validate validates the EVM client configuration.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("evm rpc_url is required")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("evm chain_id must be positive")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("evm contract_address is required")
	}
	if os.Getenv(c.PrivateKeyEnv) == "" {
		return fmt.Errorf("environment variable %s is not set", c.PrivateKeyEnv)
	}
	return nil
}
