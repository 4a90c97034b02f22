package client

import (
	"context"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Response is the result of executing an operation. Data is left raw so
// callers decode into their own types; Errors carries GraphQL-level errors
// returned alongside (possibly partial) data.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors gqlerror.List   `json:"errors,omitempty"`
}

// HasErrors reports whether the response carries GraphQL-level errors.
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// HasData reports whether the response carries non-null data.
func (r *Response) HasData() bool {
	return r != nil && len(r.Data) > 0 && string(r.Data) != "null"
}

// Link executes a GraphQL operation. Links compose into a chain terminating
// in a transport; intermediate links observe or transform traffic.
type Link interface {
	Execute(ctx context.Context, op *Operation) (*Response, error)
}

// LinkFunc adapts a function to the Link interface.
type LinkFunc func(ctx context.Context, op *Operation) (*Response, error)

// Execute implements Link.
func (f LinkFunc) Execute(ctx context.Context, op *Operation) (*Response, error) {
	return f(ctx, op)
}

// Middleware wraps a link with additional behavior.
type Middleware func(next Link) Link

// Chain composes middlewares around a terminal link. The first middleware is
// outermost: Chain(t, a, b) executes a -> b -> t.
func Chain(terminal Link, middlewares ...Middleware) Link {
	link := terminal
	for i := len(middlewares) - 1; i >= 0; i-- {
		link = middlewares[i](link)
	}
	return link
}
