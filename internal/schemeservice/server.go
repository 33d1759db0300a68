package schemeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	Catalogs       CatalogSource
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger
}

// New creates a new scheme service server.
func New(cfg Config) (*Server, error) {
	if cfg.Catalogs == nil || cfg.Catalogs.Load() == nil {
		return nil, errors.New("scheme service needs a catalog")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:           NewRouter(cfg.Catalogs, cfg.Logger, cfg.AllowedOrigins...),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("Scheme service starting", "address", s.srv.Addr, "schemes", s.cfg.Catalogs.Load().Len())

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down scheme service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Scheme service shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("scheme service error: %w", err)
	}
	return nil
}
