package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// WriteTimeout bounds a whole response, which for identification covers
// one classifier call and three chat completions.
const WriteTimeout = 5 * time.Minute

// ReadTimeout bounds reading a request, including a full-size upload.
const ReadTimeout = time.Minute

// Server owns the listening socket and the root router. Request IDs, real
// client IPs and panic recovery apply to every route.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerOption adjusts the underlying http.Server.
type ServerOption func(*http.Server)

// WithReadTimeout overrides ReadTimeout.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) { s.ReadTimeout = d }
}

// WithWriteTimeout overrides WriteTimeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) { s.WriteTimeout = d }
}

// NewServer creates a Server for addr.
func NewServer(addr string, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	// Timeout is applied per route group in mountRoutes; the MCP stream
	// cannot sit behind chi's Timeout middleware.
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	for _, opt := range opts {
		opt(httpServer)
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		logger:     logger,
	}
}

// Router returns the root router for registering routes.
func (s *Server) Router() chi.Router {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe listens on Addr and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. A clean shutdown returns
// nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
