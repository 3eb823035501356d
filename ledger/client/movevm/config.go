package movevm

import (
	"fmt"
	"os"
)

// Config stores the Move-ledger connection and entry-function parameters.
// The Ed25519 seed is looked up from the named environment variable as a hex
// string, never from the file.
type Config struct {
	RPCURL        string `yaml:"rpc_url"`
	PackageID     string `yaml:"package_id"`
	Module        string `yaml:"module"`
	Function      string `yaml:"function"`
	PrivateKeyEnv string `yaml:"private_key_env"`
	GasBudget     string `yaml:"gas_budget"`
	GasPriceMist  int64  `yaml:"gas_price_mist"` // fixed per-unit price for fee estimates

	Pricing PricingConfig `yaml:"pricing"`
}

// PricingConfig drives the best-effort fiat conversion of fee estimates.
type PricingConfig struct {
	Endpoint       string `yaml:"endpoint"`
	CoinID         string `yaml:"coin_id"`
	VsCurrency     string `yaml:"vs_currency"`
	RequestTimeout string `yaml:"request_timeout"`
}

// SetDefaults sets reasonable default values for the Move client configuration.
func (c *Config) SetDefaults() {
	if c.PrivateKeyEnv == "" {
		c.PrivateKeyEnv = "SUI_PRIVATE_KEY"
	}
	if c.GasBudget == "" {
		c.GasBudget = "10000000"
		fmt.Printf("Warning: move.gas_budget not set, defaulting to %s\n", c.GasBudget)
	}
	if c.GasPriceMist <= 0 {
		c.GasPriceMist = 1000
		fmt.Printf("Warning: move.gas_price_mist not set, defaulting to %d\n", c.GasPriceMist)
	}
	if c.Pricing.Endpoint == "" {
		c.Pricing.Endpoint = "https://api.coingecko.com"
	}
	if c.Pricing.CoinID == "" {
		c.Pricing.CoinID = "sui"
	}
	if c.Pricing.VsCurrency == "" {
		c.Pricing.VsCurrency = "eur"
	}
	if c.Pricing.RequestTimeout == "" {
		c.Pricing.RequestTimeout = "5s"
	}
}

// Validate validates the Move client configuration.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("move rpc_url is required")
	}
	if c.PackageID == "" || c.Module == "" || c.Function == "" {
		return fmt.Errorf("move package_id, module and function are all required")
	}
	if os.Getenv(c.PrivateKeyEnv) == "" {
		return fmt.Errorf("environment variable %s is not set", c.PrivateKeyEnv)
	}
	return nil
}
