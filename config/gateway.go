package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for the committed-record producer.
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// Enabled reports whether an out-topic is configured at all.
func (c *KafkaProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// HttpServerConfig defines HTTP server configuration.
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// BroadcastConfig defines the cross-ledger submission policy.
type BroadcastConfig struct {
	// Timeout bounds the three concurrent ledger submissions of one broadcast.
	// Each ledger client keeps its own inclusion-wait policy underneath it.
	Timeout time.Duration `yaml:"timeout"`
}

// SetDefaults sets reasonable default values for the broadcast configuration.
func (c *BroadcastConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 90 * time.Second
		fmt.Printf("Warning: broadcast.timeout not set, defaulting to %v\n", c.Timeout)
	}
}

// GatewayConfig defines all configurations required for the HTTP gateway.
type GatewayConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	Database      DatabaseConfig      `yaml:"database"`
	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	Broadcast     BroadcastConfig     `yaml:"broadcast"`

	// LedgersConfigPath points to the ledger-specific YAML (EVM, Move, tangle).
	LedgersConfigPath string `yaml:"ledgers_config_path"`
}

// LoadGatewayConfig loads gateway configuration from the specified YAML file path.
func LoadGatewayConfig(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway config file '%s': %w", path, err)
	}

	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gateway YAML config file: %w", err)
	}

	cfg.Database.SetDefaults()
	cfg.Broadcast.SetDefaults()

	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be configured")
	}
	if cfg.LedgersConfigPath == "" {
		return nil, fmt.Errorf("configuration error: ledgers_config_path must be configured")
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	return &cfg, nil
}
