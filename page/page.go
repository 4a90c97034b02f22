// Package page wires the GraphQL client into the server-rendered page
// lifecycle. Wrap decorates a page component so that descendants reach the
// client through the render context, and the server prefetch pass resolves
// every embedded query before markup is sent, serializing the populated cache
// into page props for hydration on the other side.
package page

import (
	"context"
	"io"
	"reflect"

	"github.com/c360/pageql/cache"
	"github.com/c360/pageql/client"
)

// StateKey is the reserved prop key carrying the serialized cache snapshot
// between the server render and the hydration render.
const StateKey = "__PAGEQL_STATE__"

// ClientPropKey is the reserved prop key carrying a live client between the
// prefetch phase and the render phase of the same request. It never survives
// serialization.
const ClientPropKey = "__pageql_client__"

// Props are the page component's render inputs.
type Props map[string]any

// Snapshot returns the cache snapshot carried under StateKey, if any.
func (p Props) Snapshot() cache.Snapshot {
	if p == nil {
		return nil
	}
	snap, _ := p[StateKey].(cache.Snapshot)
	return snap
}

// Client returns the continuation client carried under ClientPropKey, if any.
func (p Props) Client() *client.Client {
	if p == nil {
		return nil
	}
	c, _ := p[ClientPropKey].(*client.Client)
	return c
}

// Page is a server-renderable page component.
type Page interface {
	Render(ctx context.Context, w io.Writer, props Props) error
}

// InitialPropser is implemented by pages that fetch base props before
// rendering. The hook runs during the server prefetch phase with a live
// client attached to the request context.
type InitialPropser interface {
	InitialProps(rctx *RequestContext) (Props, error)
}

// QueryDeclarer is implemented by pages that statically declare the GraphQL
// queries their render depends on. Declared queries are resolved concurrently
// during prefetch, before the render pass fires any remaining nested ones.
type QueryDeclarer interface {
	Queries() []*client.Operation
}

// AppRoot marks an application-level root component. Wrapping a root instead
// of a leaf page disables per-page data fetching; Wrap warns about it in
// development builds.
type AppRoot interface {
	AppRoot()
}

// Named lets a page override the name used in diagnostics. Pages without it
// are named by their Go type.
type Named interface {
	PageName() string
}

// pageName resolves a diagnostic name for a page component.
func pageName(p Page) string {
	if named, ok := p.(Named); ok {
		return named.PageName()
	}
	if p == nil {
		return "<nil>"
	}
	return reflect.TypeOf(p).String()
}
