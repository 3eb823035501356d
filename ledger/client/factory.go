package client

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"trisense/ledger/client/evm"
	"trisense/ledger/client/movevm"
	"trisense/ledger/client/tangle"
	"trisense/pricing"
)

// LedgersConfig bundles the three ledger-specific configurations, loaded from
// one YAML file referenced by the service configs.
type LedgersConfig struct {
	EVM    evm.Config    `yaml:"evm"`
	Move   movevm.Config `yaml:"move"`
	Tangle tangle.Config `yaml:"tangle"`
}

// LoadLedgersConfig loads the ledger configuration from the specified YAML
// file path.
func LoadLedgersConfig(path string) (*LedgersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledgers config file '%s': %w", path, err)
	}

	var cfg LedgersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ledgers YAML config file: %w", err)
	}
	return &cfg, nil
}

// Clients holds one constructed client per ledger.
type Clients struct {
	EVM    LedgerClient
	Move   LedgerClient
	Tangle LedgerClient
}

// Close closes whichever clients were constructed.
func (c *Clients) Close() {
	for _, lc := range []LedgerClient{c.EVM, c.Move, c.Tangle} {
		if lc != nil {
			if err := lc.Close(); err != nil {
				log.Printf("Warning: closing %s client: %v", lc.Kind(), err)
			}
		}
	}
}

// NewClients constructs the three ledger clients from the combined
// configuration. All three ledgers are required: a broadcast is only valid
// when every ledger can be reached.
func NewClients(cfg *LedgersConfig, logger *log.Logger) (*Clients, error) {
	evmClient, err := evm.NewClient(&cfg.EVM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize EVM client: %w", err)
	}

	cfg.Move.SetDefaults()
	priceTimeout, err := time.ParseDuration(cfg.Move.Pricing.RequestTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid pricing request_timeout '%s', using default 5s", cfg.Move.Pricing.RequestTimeout)
		priceTimeout = 5 * time.Second
	}
	prices := pricing.NewClient(cfg.Move.Pricing.Endpoint, priceTimeout, logger)

	moveClient, err := movevm.NewClient(&cfg.Move, prices, logger)
	if err != nil {
		evmClient.Close()
		return nil, fmt.Errorf("failed to initialize Move client: %w", err)
	}

	tangleClient, err := tangle.NewClient(&cfg.Tangle, logger)
	if err != nil {
		evmClient.Close()
		moveClient.Close()
		return nil, fmt.Errorf("failed to initialize tangle client: %w", err)
	}

	return &Clients{EVM: evmClient, Move: moveClient, Tangle: tangleClient}, nil
}

// Compile-time interface checks for the three variants.
var (
	_ LedgerClient = (*evm.Client)(nil)
	_ LedgerClient = (*movevm.Client)(nil)
	_ LedgerClient = (*tangle.Client)(nil)
)
