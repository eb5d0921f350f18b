package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAPIAddr is the default listen address for the API server.
	DefaultAPIAddr = ":8000"

	// DefaultAPIReadHeaderTimeout bounds how long the server waits for
	// request headers.
	DefaultAPIReadHeaderTimeout = 10 * time.Second

	// DefaultAPIWriteTimeout bounds how long a handler may take to write
	// its response.
	DefaultAPIWriteTimeout = 30 * time.Second

	// DefaultAPIIdleTimeout bounds how long keep-alive connections stay
	// open.
	DefaultAPIIdleTimeout = 60 * time.Second
)

// APIServerConfig holds configuration for the API server.
type APIServerConfig struct {
	// Addr is the address to bind the API server to (e.g., ":8000").
	Addr string
}

// APIServer serves the application HTTP API.
type APIServer struct {
	httpServer *http.Server
	addr       string
	handler    http.Handler
}

// NewAPIServer creates a new API server around the given handler.
func NewAPIServer(config APIServerConfig, handler http.Handler) *APIServer {
	addr := config.Addr
	if addr == "" {
		addr = DefaultAPIAddr
	}

	return &APIServer{
		addr:    addr,
		handler: handler,
	}
}

// Start starts the API server in a blocking manner. It returns nil when the
// server is closed via Shutdown.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultAPIReadHeaderTimeout,
		WriteTimeout:      DefaultAPIWriteTimeout,
		IdleTimeout:       DefaultAPIIdleTimeout,
	}

	slog.Info("starting API server", "addr", s.addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *APIServer) Addr() string {
	return s.addr
}
