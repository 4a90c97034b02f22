// Package server provides the server-rendered page surface: wrapped pages
// mounted on a chi router, a mutation endpoint demonstrating toast
// collection, Prometheus metrics, and an optional playground pointed at the
// upstream GraphQL endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/pageql/client"
	"github.com/c360/pageql/errors"
	"github.com/c360/pageql/page"
	"github.com/c360/pageql/toast"
)

// Server manages the HTTP server for the page surface.
type Server struct {
	config   Config
	logger   *slog.Logger
	provider *client.ServerProvider
	registry *prometheus.Registry

	router     chi.Router
	httpServer *http.Server

	// Lifecycle
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once // Ensures stopChan is closed exactly once
}

// NewServer creates a new page server from configuration.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Server", "NewServer", "config validation")
	}

	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	provider := client.NewServerProvider(config.GraphQL,
		client.WithLogger(logger),
		client.WithMetrics(registry),
	)

	return &Server{
		config:   config,
		logger:   logger.With("component", "page-server"),
		provider: provider,
		registry: registry,
		router:   chi.NewRouter(),
		stopChan: make(chan struct{}),
	}, nil
}

// Provider returns the per-request client provider.
func (s *Server) Provider() *client.ServerProvider {
	return s.provider
}

// Setup configures routes and the HTTP server.
func (s *Server) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logMiddleware)
	if s.config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}

	feed, err := page.Wrap(FeedPage{}, s.provider,
		page.WithLogger(s.logger),
		page.WithDevelopment(s.config.GraphQL.Development))
	if err != nil {
		return errors.WrapFatal(err, "Server", "Setup", "wrap feed page")
	}

	itemPage, err := page.Wrap(ItemPage{}, s.provider,
		page.WithLogger(s.logger),
		page.WithDevelopment(s.config.GraphQL.Development))
	if err != nil {
		return errors.WrapFatal(err, "Server", "Setup", "wrap item page")
	}

	s.router.Method(http.MethodGet, "/", feed.Handler())
	s.router.Method(http.MethodGet, "/item/{id}", itemPage.Handler())
	s.router.Post("/item/{id}/vote", s.handleVote)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true}))

	if s.config.EnablePlayground {
		s.router.Handle("/playground",
			playground.Handler("PageQL Playground", s.config.GraphQL.Endpoint))
		s.logger.Info("playground enabled", "endpoint", s.config.GraphQL.Endpoint)
	}

	s.httpServer = &http.Server{
		Addr:         s.config.BindAddress,
		Handler:      s.router,
		ReadTimeout:  s.config.Timeout(),
		WriteTimeout: s.config.Timeout(),
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("server configured",
		"address", s.config.BindAddress,
		"graphql_endpoint", s.config.GraphQL.Endpoint)

	return nil
}

// Router returns the configured router; Setup must have run.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server.
// The ready channel is closed when the server is ready to accept connections.
func (s *Server) Start(ctx context.Context, ready chan<- struct{}) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrInvalidConfig, "Server", "Start", "server already running")
	}
	s.running = true
	server := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		s.logger.Info("server starting", "address", s.config.BindAddress)

		if ready != nil {
			close(ready)
		}

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			select {
			case errChan <- err:
			case <-ctx.Done():
			case <-s.stopChan:
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server context cancelled, shutting down")
		return s.Stop(30 * time.Second)

	case <-s.stopChan:
		s.logger.Info("server stop requested")
		return nil

	case err := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return errors.WrapFatal(err, "Server", "Start", "HTTP server failed")
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil // Already stopped
	}
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("server stopping")

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// handleVote executes the vote mutation for an item. Mutation failures reach
// the user as toasts collected per request and rendered into the result page.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	collector := toast.NewCollector()
	c, err := client.New(s.config.GraphQL, nil, r.Header,
		client.WithLogger(s.logger),
		client.WithNotifier(collector),
		client.WithMetrics(s.registry),
	)
	if err != nil {
		s.logger.Error("client construction failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// The error link already toasted any failure; the page renders either
	// the updated item or the collected toasts.
	_, _ = c.Mutate(r.Context(), voteMutation.WithVariables(map[string]any{"id": id}))

	rctx := page.NewRequestContext(r, s.logger)
	rctx.AttachClient(c)

	props := page.Props{
		"id":              id,
		"toasts":          collector.Flush(),
		page.ClientPropKey: c,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	wrapped, err := page.Wrap(ItemPage{}, s.provider, page.WithLogger(s.logger), page.WithSSR(false))
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err := wrapped.Render(rctx.Context(), w, props); err != nil {
		s.logger.Error("vote result render failed", "id", id, "error", err)
	}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !running {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// logMiddleware logs each request with latency.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// corsMiddleware adds CORS headers to responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range s.config.CORSOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
