// Package client provides the GraphQL client wired into the page-rendering
// lifecycle: a link chain terminating in an HTTP transport, a normalized
// result cache restorable from render snapshots, an error link that surfaces
// mutation failures as toasts, and providers governing instance lifetime
// (fresh per server request, lazily-once per browser-equivalent session).
package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/pageql/cache"
	"github.com/c360/pageql/errors"
	"github.com/c360/pageql/toast"
)

// Client executes GraphQL operations through its link chain and maintains a
// normalized result cache. A client is bound to one request on the server or
// to one session on the hydration side; instances are never shared across
// concurrent requests.
type Client struct {
	link    Link
	store   *cache.Store
	logger  *slog.Logger
	metrics *Metrics
}

// options holds construction-time dependencies.
type options struct {
	logger     *slog.Logger
	notifier   toast.Notifier
	doer       HTTPDoer
	registry   prometheus.Registerer
	extraLinks []Middleware
}

// Option configures client construction.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotifier sets the toast collaborator receiving mutation failures.
// Defaults to a discarding notifier.
func WithNotifier(notifier toast.Notifier) Option {
	return func(o *options) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithHTTPDoer replaces the transport's HTTP client. Primarily for tests.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(o *options) {
		if doer != nil {
			o.doer = doer
		}
	}
}

// WithMetrics enables Prometheus metrics for operations executed by this
// client.
func WithMetrics(registry prometheus.Registerer) Option {
	return func(o *options) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithLink inserts additional middleware between the error link and the
// transport.
func WithLink(mw Middleware) Option {
	return func(o *options) {
		if mw != nil {
			o.extraLinks = append(o.extraLinks, mw)
		}
	}
}

// New constructs a client from configuration, seeded with an initial cache
// snapshot (nil for an empty cache). The header argument is the inbound
// request's header set; only its Cookie value is forwarded to the transport.
func New(config Config, initialState cache.Snapshot, header http.Header, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Client", "New", "config validation")
	}

	o := &options{
		logger:   slog.Default(),
		notifier: toast.Discard,
	}
	for _, opt := range opts {
		opt(o)
	}

	store, err := cache.NewStoreFromSnapshot(initialState)
	if err != nil {
		return nil, errors.Wrap(err, "Client", "New", "create store")
	}

	var metrics *Metrics
	if o.registry != nil {
		metrics, err = NewMetrics(o.registry)
		if err != nil {
			return nil, errors.WrapTransient(err, "Client", "New", "metrics registration")
		}
	}

	httpLink := NewHTTPLink(config, header, o.logger)
	if o.doer != nil {
		httpLink.WithDoer(o.doer)
	}

	middlewares := append([]Middleware{ErrorLink(o.notifier, o.logger)}, o.extraLinks...)

	return &Client{
		link:    Chain(httpLink, middlewares...),
		store:   store,
		logger:  o.logger.With("component", "graphql-client"),
		metrics: metrics,
	}, nil
}

// Query executes a query operation, consulting the cache first. A cache hit
// is served without touching the transport; results from the transport are
// normalized into the cache before returning.
func (c *Client) Query(ctx context.Context, op *Operation) (*Response, error) {
	if op == nil || op.Kind() != KindQuery {
		return nil, errors.WrapInvalid(errors.ErrInvalidOperation, "Client", "Query",
			"operation is not a query")
	}

	key := op.Key()
	if data, ok := c.store.ReadQuery(key); ok {
		c.record(KindQuery, statusCached, 0)
		return &Response{Data: data}, nil
	}

	start := time.Now()
	resp, err := c.link.Execute(ctx, op)
	if err != nil {
		c.record(KindQuery, statusError, time.Since(start))
		return nil, err
	}

	// Partial results with errors stay out of the cache; the page consumes
	// them through per-query error state.
	if resp.HasData() && !resp.HasErrors() {
		if writeErr := c.store.WriteQuery(key, resp.Data); writeErr != nil {
			c.logger.Warn("cache write failed", "operation", op.Name, "error", writeErr)
		}
	}

	status := statusSuccess
	if resp.HasErrors() {
		status = statusError
	}
	c.record(KindQuery, status, time.Since(start))

	return resp, nil
}

// Mutate executes a mutation operation. Mutations bypass the cache read path;
// their failure reporting happens inside the error link.
func (c *Client) Mutate(ctx context.Context, op *Operation) (*Response, error) {
	if op == nil || !op.IsMutation() {
		return nil, errors.WrapInvalid(errors.ErrInvalidOperation, "Client", "Mutate",
			"operation is not a mutation")
	}

	start := time.Now()
	resp, err := c.link.Execute(ctx, op)
	if err != nil {
		c.record(KindMutation, statusError, time.Since(start))
		return nil, err
	}

	status := statusSuccess
	if resp.HasErrors() {
		status = statusError
	}
	c.record(KindMutation, status, time.Since(start))

	return resp, nil
}

// Extract returns a serializable snapshot of the cache, reflecting every
// query written since construction or the last Restore.
func (c *Client) Extract() cache.Snapshot {
	return c.store.Extract()
}

// Restore replaces the cache contents with the given snapshot.
func (c *Client) Restore(snap cache.Snapshot) {
	c.store.Restore(snap)
}

// Store exposes the underlying normalized store.
func (c *Client) Store() *cache.Store {
	return c.store
}

// record updates operation metrics when enabled.
func (c *Client) record(kind Kind, status string, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.OperationsTotal.WithLabelValues(string(kind), status).Inc()
	if duration > 0 {
		c.metrics.OperationDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
	}
}
