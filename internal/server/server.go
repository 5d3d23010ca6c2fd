// Package server exposes the resolver over HTTP.
//
// Routes:
//
//	GET /package/{name}/{version}          resolved tree as JSON
//	GET /package/@{scope}/{name}/{version} same, for scoped packages
//	GET /healthz                           liveness
//	GET /metrics                           Prometheus metrics (when enabled)
//
// version is either an exact version, resolved as published, or a range
// or dist-tag, which first selects the root version. ?format= switches the
// body to text, dot or svg.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/deptree/pkg/deps"
	deperrors "github.com/matzehuels/deptree/pkg/errors"
)

// Resolver is the part of [deps.Resolver] the server uses.
type Resolver interface {
	Resolve(ctx context.Context, name, spec string) (*deps.Result, error)
	Options() deps.Options
}

// Options configures a [Server].
type Options struct {
	Logger          *log.Logger         // Request logging (default: discard)
	Gatherer        prometheus.Gatherer // Serves /metrics when set
	RequestTimeout  time.Duration       // Per-request resolution bound (0: none)
	ShutdownTimeout time.Duration       // Grace period for in-flight requests (default: 10s)
}

// Server serves resolved dependency trees.
type Server struct {
	resolver Resolver
	opts     Options
	router   chi.Router
}

// New creates a Server around resolver.
func New(resolver Resolver, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{resolver: resolver, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/package/{name}/{version}", s.handle(s.handlePackage))
	r.Get("/package/{scope:@[^/]+}/{name}/{version}", s.handle(s.handlePackage))
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errNoRoute(r)
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:      deperrors.ErrCodeInvalidInput,
			Message:   "method " + r.Method + " not allowed",
			RequestID: RequestIDFrom(r.Context()),
		}})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
