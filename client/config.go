package client

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/c360/pageql/errors"
)

// Environment variable names consumed by DefaultConfig.
const (
	// EnvEndpoint overrides the GraphQL endpoint URL.
	EnvEndpoint = "PAGEQL_ENDPOINT"
	// EnvEnvironment selects development diagnostics when set to "development".
	EnvEnvironment = "PAGEQL_ENV"
)

// defaultEndpoint is used when no endpoint is configured or derived from the
// environment.
const defaultEndpoint = "http://localhost:8080/graphql"

// Config holds configuration for a GraphQL client.
type Config struct {
	// Endpoint is the sole GraphQL transport destination (default: env
	// PAGEQL_ENDPOINT, falling back to http://localhost:8080/graphql)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// TimeoutStr is the per-operation HTTP timeout (default: "30s")
	TimeoutStr string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Development gates diagnostic warnings only; no behavioral difference
	// otherwise (default: env PAGEQL_ENV == "development")
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`

	// timeout is the parsed duration (internal use)
	timeout time.Duration
}

// Validate ensures the configuration is valid, filling defaults in place.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		c.Endpoint = endpointFromEnv()
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "Validate",
			fmt.Sprintf("invalid endpoint URL: %s", c.Endpoint))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"endpoint scheme must be http or https")
	}
	if u.Host == "" {
		return errors.WrapInvalid(errors.ErrMissingEndpoint, "Config", "Validate",
			"endpoint host is empty")
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

	return nil
}

// Timeout returns the parsed timeout duration.
func (c *Config) Timeout() time.Duration {
	if c.timeout == 0 {
		return 30 * time.Second
	}
	return c.timeout
}

// DefaultConfig returns default client configuration, deriving the endpoint
// and environment from process environment variables.
func DefaultConfig() Config {
	return Config{
		Endpoint:    endpointFromEnv(),
		TimeoutStr:  "30s",
		Development: os.Getenv(EnvEnvironment) == "development",
	}
}

// endpointFromEnv resolves the endpoint from the environment with a local
// fallback.
func endpointFromEnv() string {
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		return endpoint
	}
	return defaultEndpoint
}
