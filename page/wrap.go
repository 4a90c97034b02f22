package page

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/c360/pageql/client"
	"github.com/c360/pageql/errors"
)

// WrappedPage decorates a page component with client injection and the
// server prefetch lifecycle. Construct with Wrap.
type WrappedPage struct {
	page        Page
	provider    client.Provider
	ssr         bool
	name        string
	logger      *slog.Logger
	development bool
}

// Option configures the wrapper.
type Option func(*WrappedPage)

// WithSSR enables or disables the server-side prefetch render pass.
// Defaults to enabled.
func WithSSR(enabled bool) Option {
	return func(w *WrappedPage) {
		w.ssr = enabled
	}
}

// WithLogger sets the wrapper's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *WrappedPage) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDevelopment enables development-mode diagnostics.
func WithDevelopment(enabled bool) Option {
	return func(w *WrappedPage) {
		w.development = enabled
	}
}

// Wrap decorates a page component. The provider supplies clients for render
// passes; on the server it must be a per-request provider so no two requests
// share an instance.
func Wrap(p Page, provider client.Provider, opts ...Option) (*WrappedPage, error) {
	if p == nil {
		return nil, errors.WrapFatal(errors.ErrNilPage, "WrappedPage", "Wrap", "page component")
	}
	if provider == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "WrappedPage", "Wrap",
			"client provider is required")
	}

	w := &WrappedPage{
		page:     p,
		provider: provider,
		ssr:      true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.name = fmt.Sprintf("WithGraphQL(%s)", pageName(p))
	w.logger = w.logger.With("page", w.name)

	if _, isRoot := p.(AppRoot); isRoot && w.development {
		w.logger.Warn("Wrap applied to an application root; wrap leaf pages instead " +
			"so per-page data fetching stays intact")
	}

	return w, nil
}

// Name returns the wrapper's debug display name.
func (w *WrappedPage) Name() string {
	return w.name
}

// HasInitialProps reports whether the wrapped page declares an initial-data
// hook.
func (w *WrappedPage) HasInitialProps() bool {
	_, ok := w.page.(InitialPropser)
	return ok
}

// PrefetchEnabled reports whether the prefetch phase is attached: it runs
// when SSR is enabled or the page declares its own initial-data hook.
func (w *WrappedPage) PrefetchEnabled() bool {
	return w.ssr || w.HasInitialProps()
}

// Render resolves a client and renders the wrapped page beneath the
// client-providing context. A live client passed via props (continuation
// from the prefetch phase) wins; otherwise a client is initialized from the
// snapshot prop.
func (w *WrappedPage) Render(ctx context.Context, out io.Writer, props Props) error {
	c := props.Client()
	if c == nil {
		var err error
		c, err = w.provider.Client(props.Snapshot(), nil)
		if err != nil {
			return errors.Wrap(err, "WrappedPage", "Render", "resolve client")
		}
	}

	return w.page.Render(WithClient(ctx, c), out, props)
}

// Prefetch runs the server data-fetch phase for one request: it creates a
// fresh client, runs the page's initial-data hook, resolves every embedded
// query by rendering the subtree, and returns the base props merged with the
// extracted cache snapshot under StateKey.
//
// A failed render degrades instead of failing the page: the error is logged
// and the props are still returned, deferring data fetching to the hydration
// side. Only a failing initial-data hook propagates.
func (w *WrappedPage) Prefetch(rctx *RequestContext) (Props, error) {
	// Always a fresh client: this runs once per request.
	c, err := w.provider.Client(nil, rctx.Header())
	if err != nil {
		return nil, errors.Wrap(err, "WrappedPage", "Prefetch", "create client")
	}
	rctx.AttachClient(c)

	base := Props{}
	if ip, ok := w.page.(InitialPropser); ok {
		base, err = ip.InitialProps(rctx)
		if err != nil {
			return nil, errors.Wrap(err, "WrappedPage", "Prefetch", "initial props")
		}
		if base == nil {
			base = Props{}
		}
	}

	// Finished upstream (redirect, early write): skip all further work.
	if rctx.Response.Finished() {
		return base, nil
	}

	if w.ssr {
		w.resolveDeclaredQueries(rctx, c)

		renderProps := lo.Assign(base, Props{ClientPropKey: c})
		if err := w.page.Render(rctx.Context(), io.Discard, renderProps); err != nil {
			// Degraded pages still render; query-level errors surface later
			// through each query's own error state.
			w.logger.Error("prefetch render failed",
				"request_id", rctx.RequestID,
				"error", err)
		}

		// The discard render bypassed response plumbing; drop its head-tag
		// side effects before the real render.
		rctx.Head.Rewind()
	}

	return lo.Assign(base, Props{StateKey: c.Extract()}), nil
}

// resolveDeclaredQueries fires the page's statically declared queries
// concurrently so the render pass finds them cached. Failures are logged and
// left to per-query error state.
func (w *WrappedPage) resolveDeclaredQueries(rctx *RequestContext, c *client.Client) {
	qd, ok := w.page.(QueryDeclarer)
	if !ok {
		return
	}

	g, ctx := errgroup.WithContext(rctx.Context())
	for _, op := range qd.Queries() {
		op := op
		g.Go(func() error {
			if _, err := c.Query(ctx, op); err != nil {
				w.logger.Warn("declared query failed during prefetch",
					"request_id", rctx.RequestID,
					"operation", op.Name,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
