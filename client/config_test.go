package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid http endpoint",
			config:  Config{Endpoint: "http://api.internal:8080/graphql", TimeoutStr: "10s"},
			wantErr: false,
		},
		{
			name:    "valid https endpoint",
			config:  Config{Endpoint: "https://api.example.com/graphql"},
			wantErr: false,
		},
		{
			name:    "empty endpoint falls back to default",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			config:  Config{Endpoint: "nats://api.internal:4222"},
			wantErr: true,
		},
		{
			name:    "missing host",
			config:  Config{Endpoint: "http://"},
			wantErr: true,
		},
		{
			name:    "invalid timeout format",
			config:  Config{Endpoint: "http://localhost/graphql", TimeoutStr: "soon"},
			wantErr: true,
		},
		{
			name:    "timeout too short",
			config:  Config{Endpoint: "http://localhost/graphql", TimeoutStr: "10ms"},
			wantErr: true,
		},
		{
			name:    "timeout too long",
			config:  Config{Endpoint: "http://localhost/graphql", TimeoutStr: "10m"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigTimeoutDefault(t *testing.T) {
	cfg := Config{Endpoint: "http://localhost/graphql"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv(EnvEndpoint, "https://graph.example.com/api")
	t.Setenv(EnvEnvironment, "development")

	cfg := DefaultConfig()
	assert.Equal(t, "https://graph.example.com/api", cfg.Endpoint)
	assert.True(t, cfg.Development)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigFallback(t *testing.T) {
	t.Setenv(EnvEndpoint, "")
	t.Setenv(EnvEnvironment, "")

	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:8080/graphql", cfg.Endpoint)
	assert.False(t, cfg.Development)
}
