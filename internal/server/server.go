// Package server is the development HTTP server: the output tree, the
// live-reload event stream and a couple of operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
	"git.home.luguber.info/inful/mdgraph/internal/livereload"
	"git.home.luguber.info/inful/mdgraph/internal/metrics"
)

// EventPath is where browsers subscribe to reload notifications.
const EventPath = "/event"

const shutdownTimeout = 5 * time.Second

// Server serves one output tree on a fixed port.
type Server struct {
	cfg    *config.Config
	hub    *livereload.Hub
	router chi.Router
}

// Options configures optional endpoints.
type Options struct {
	// Registry, when set, is exposed at /_mdgraph/metrics.
	Registry *prom.Registry
}

// New builds the router for cfg. hub receives subscriptions at EventPath.
func New(cfg *config.Config, hub *livereload.Hub, opts Options) *Server {
	s := &Server{cfg: cfg, hub: hub, router: chi.NewRouter()}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get(EventPath, hub.ServeHTTP)
	s.router.Get("/_mdgraph/health", s.handleHealth)
	if opts.Registry != nil {
		s.router.Handle("/_mdgraph/metrics", metrics.HTTPHandler(opts.Registry))
	}

	static := staticHandler{root: cfg.OutputRoot(), notFound: cfg.NotFound}
	s.router.Get("/*", static.ServeHTTP)
	s.router.Head("/*", static.ServeHTTP)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "healthy", Clients: s.hub.Len()})
}

// Run serves until ctx is cancelled and then shuts down gracefully. When ln is
// nil the server binds the configured port itself.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var lc net.ListenConfig
		l, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "bind dev server port").
				WithContext("port", s.cfg.Port).
				Build()
		}
		ln = l
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Dev server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "dev server failed").Build()
	case <-ctx.Done():
	}

	// Event streams never finish on their own.
	s.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "dev server shutdown").Build()
	}
	slog.Info("Dev server stopped")
	return nil
}
