package client

import (
	"net/http"
	"sync"

	"github.com/c360/pageql/cache"
)

// Provider resolves a client for a render pass. Instance lifetime is the
// provider's whole contract: server renders must never share a client across
// requests, while a session (the browser-equivalent side) reuses one client
// for its lifetime. Providers are explicit injected dependencies; there is no
// package-level singleton.
type Provider interface {
	Client(initialState cache.Snapshot, header http.Header) (*Client, error)
}

// ServerProvider builds a fresh client on every call, preventing cache and
// credential leakage between concurrent requests.
type ServerProvider struct {
	config Config
	opts   []Option
}

// NewServerProvider creates a provider for per-request clients.
func NewServerProvider(config Config, opts ...Option) *ServerProvider {
	return &ServerProvider{config: config, opts: opts}
}

// Client implements Provider. Every call constructs a new instance seeded
// with the given initial state and forwarding the given inbound headers.
func (p *ServerProvider) Client(initialState cache.Snapshot, header http.Header) (*Client, error) {
	return New(p.config, initialState, header, p.opts...)
}

// SessionProvider builds a client lazily exactly once and reuses it for the
// session's lifetime. The first call's initial state seeds the cache;
// subsequent arguments are ignored, mirroring page-session hydration where
// only the first render carries a server snapshot.
type SessionProvider struct {
	config Config
	opts   []Option

	once   sync.Once
	client *Client
	err    error
}

// NewSessionProvider creates a provider owning at most one client.
func NewSessionProvider(config Config, opts ...Option) *SessionProvider {
	return &SessionProvider{config: config, opts: opts}
}

// Client implements Provider. The first call constructs the session client;
// all subsequent calls return the same instance.
func (p *SessionProvider) Client(initialState cache.Snapshot, header http.Header) (*Client, error) {
	p.once.Do(func() {
		p.client, p.err = New(p.config, initialState, header, p.opts...)
	})
	return p.client, p.err
}
