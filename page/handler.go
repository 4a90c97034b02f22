package page

import (
	"net/http"

	"github.com/samber/lo"
)

// Handler adapts the wrapped page to an http.Handler running the full
// lifecycle: prefetch (when attached), then the real render with the
// prefetch client carried forward as a continuation.
func (w *WrappedPage) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rctx := NewRequestContext(r, w.logger)

		props := Props{}
		if w.PrefetchEnabled() {
			prefetched, err := w.Prefetch(rctx)
			if err != nil {
				rctx.Logger.Error("prefetch failed", "error", err)
				http.Error(rw, "internal server error", http.StatusInternalServerError)
				return
			}
			props = prefetched
		}

		// The initial-data hook may have finished the response itself.
		if rctx.Response.Finished() {
			return
		}

		// Reuse the prefetch client for the real render.
		if c, ok := ClientFromContext(rctx.Context()); ok {
			props = lo.Assign(props, Props{ClientPropKey: c})
		}

		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := w.Render(rctx.Context(), rw, props); err != nil {
			rctx.Logger.Error("render failed", "error", err)
			// Headers are out; the degraded body is whatever was written.
		}
	})
}
