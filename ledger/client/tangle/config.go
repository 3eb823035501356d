package tangle

import "fmt"

// Config stores the data-only ledger parameters. Submission is delegated to an
// external command (the ledger-write process); reads go to the node's REST API.
type Config struct {
	NodeURL        string   `yaml:"node_url"`
	SubmitCommand  []string `yaml:"submit_command"` // argv; the payload JSON is appended as the last argument
	RequestTimeout string   `yaml:"request_timeout"`
}

// SetDefaults sets reasonable default values for the tangle client configuration.
func (c *Config) SetDefaults() {
	if c.RequestTimeout == "" {
		c.RequestTimeout = "10s"
		fmt.Printf("Warning: tangle.request_timeout not set, defaulting to %s\n", c.RequestTimeout)
	}
}

// Validate validates the tangle client configuration.
func (c *Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("tangle node_url is required")
	}
	if len(c.SubmitCommand) == 0 {
		return fmt.Errorf("tangle submit_command is required")
	}
	return nil
}
