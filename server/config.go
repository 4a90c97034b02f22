package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/pageql/client"
	"github.com/c360/pageql/errors"
)

// Config holds configuration for the page server.
type Config struct {
	// BindAddress is the HTTP bind address (default: ":3000")
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// GraphQL configures the upstream GraphQL client
	GraphQL client.Config `yaml:"graphql" json:"graphql"`

	// EnablePlayground mounts a GraphQL playground pointed at the upstream
	// endpoint (default: true)
	EnablePlayground bool `yaml:"enable_playground" json:"enable_playground"`

	// EnableCORS enables CORS headers (default: false; pages are same-origin)
	EnableCORS bool `yaml:"enable_cors" json:"enable_cors"`

	// CORSOrigins lists allowed CORS origins (default: ["*"] when enabled)
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`

	// TimeoutStr is the HTTP read/write timeout (default: "30s")
	TimeoutStr string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// timeout is the parsed duration (internal use)
	timeout time.Duration
}

// Validate ensures the configuration is valid, filling defaults in place.
func (c *Config) Validate() error {
	if c.BindAddress == "" {
		c.BindAddress = ":3000"
	}

	if err := c.GraphQL.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "graphql client config")
	}

	if c.TimeoutStr == "" {
		c.timeout = 30 * time.Second
	} else {
		timeout, err := time.ParseDuration(c.TimeoutStr)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "Validate",
				fmt.Sprintf("invalid timeout format: %s", c.TimeoutStr))
		}
		if timeout < 100*time.Millisecond || timeout > 5*time.Minute {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"timeout must be between 100ms and 5m")
		}
		c.timeout = timeout
	}

	if c.EnableCORS && len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	return nil
}

// Timeout returns the parsed timeout duration.
func (c *Config) Timeout() time.Duration {
	if c.timeout == 0 {
		return 30 * time.Second
	}
	return c.timeout
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		BindAddress:      ":3000",
		GraphQL:          client.DefaultConfig(),
		EnablePlayground: true,
		TimeoutStr:       "30s",
	}
}

// LoadConfig reads and validates a YAML configuration file, layering it over
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapInvalid(err, "Config", "LoadConfig",
			fmt.Sprintf("read %s", path))
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapInvalid(err, "Config", "LoadConfig",
			fmt.Sprintf("parse %s", path))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
