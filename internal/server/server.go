// Package server provides HTTP server initialization and lifecycle management
// for the lifeform API, and assembles the full server process in App.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/ephemera/internal/config"
	"github.com/scrypster/ephemera/web/handlers"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP front of the lifeform.
type Server struct {
	cfg     *config.Config
	handler http.Handler
	hub     *handlers.WebSocketHub
	logger  *slog.Logger
}

// New builds the route table: the REST API, the /ws state stream, then rate
// limiting, security headers and request logging around everything.
func New(cfg *config.Config, lifeform handlers.Lifeform, hub *handlers.WebSocketHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	handlers.NewAPIHandlers(lifeform, logger).Register(mux)
	if hub != nil {
		// WebSocket endpoint (origin validation handles security)
		mux.Handle("GET /ws", hub)
	}

	rateLimiter := handlers.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	var handler http.Handler = handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = handlers.SecurityHeaders(handler)
	handler = handlers.RequestLogger(handler, logger)

	return &Server{cfg: cfg, handler: handler, hub: hub, logger: logger}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen opens the configured address. Port 0 picks a free port.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", s.cfg.Addr(), err)
	}
	return ln, nil
}

// Serve handles connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Create server with security timeouts
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server.listening", "addr", ln.Addr().String(), "app", s.cfg.App.Name)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.hub != nil {
		s.hub.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	s.logger.Info("server.stopped")
	return nil
}

// ListenAndServe combines Listen and Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
