package page

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/pageql/client"
)

// ctxKey namespaces context values owned by this package.
type ctxKey int

const (
	clientCtxKey ctxKey = iota
	headCtxKey
)

// WithClient attaches a client to the context for nested render access.
func WithClient(ctx context.Context, c *client.Client) context.Context {
	return context.WithValue(ctx, clientCtxKey, c)
}

// ClientFromContext retrieves the client attached to the render context.
func ClientFromContext(ctx context.Context) (*client.Client, bool) {
	c, ok := ctx.Value(clientCtxKey).(*client.Client)
	return c, ok
}

// WithHead attaches a head registry to the context.
func WithHead(ctx context.Context, h *Head) context.Context {
	return context.WithValue(ctx, headCtxKey, h)
}

// HeadFromContext retrieves the head registry attached to the render context.
func HeadFromContext(ctx context.Context) (*Head, bool) {
	h, ok := ctx.Value(headCtxKey).(*Head)
	return h, ok
}

// ResponseState tracks whether the response has already been finished
// upstream (redirect, early write). Prefetch checks it before doing any
// render work.
type ResponseState struct {
	mu       sync.Mutex
	finished bool
}

// Finish marks the response as finished. Idempotent.
func (rs *ResponseState) Finish() {
	rs.mu.Lock()
	rs.finished = true
	rs.mu.Unlock()
}

// Finished reports whether the response has been finished.
func (rs *ResponseState) Finished() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.finished
}

// RequestContext carries per-request state through the prefetch and render
// phases. One is created per inbound request and never shared across
// requests.
type RequestContext struct {
	// Request is the inbound HTTP request; its Cookie header is the only
	// header forwarded to the GraphQL transport.
	Request *http.Request

	// Response tracks upstream completion.
	Response *ResponseState

	// Head collects head-tag side effects emitted during render passes.
	Head *Head

	// RequestID identifies the request in logs.
	RequestID string

	// Logger is the request-scoped structured logger.
	Logger *slog.Logger

	ctx context.Context
}

// NewRequestContext creates request state for an inbound request.
// A nil logger falls back to slog.Default().
func NewRequestContext(r *http.Request, logger *slog.Logger) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}

	head := NewHead()
	return &RequestContext{
		Request:   r,
		Response:  &ResponseState{},
		Head:      head,
		RequestID: id,
		Logger:    logger.With("request_id", id),
		ctx:       WithHead(ctx, head),
	}
}

// Context returns the request's context, carrying any attached client.
func (rc *RequestContext) Context() context.Context {
	return rc.ctx
}

// AttachClient binds a client to the request context so nested render code
// can reach it via ClientFromContext.
func (rc *RequestContext) AttachClient(c *client.Client) {
	rc.ctx = WithClient(rc.ctx, c)
}

// Header returns the inbound request headers, or nil without a request.
func (rc *RequestContext) Header() http.Header {
	if rc.Request == nil {
		return nil
	}
	return rc.Request.Header
}
