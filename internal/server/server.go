package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gridbase/gridbase/internal/storage"
)

// Server holds the wiring shared by all handlers.
type Server struct {
	cfg     Config
	store   storage.Store
	hub     *Hub
	limiter *ipLimiter
	version string
}

// New creates a Server over the given store.
func New(cfg Config, store storage.Store, version string) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		hub:     NewHub(),
		limiter: newIPLimiter(cfg.RateRPS, cfg.RateBurst),
		version: version,
	}
}

// ListenAndServe runs the HTTP server until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Shutdown()
	return srv.Shutdown(shutdownCtx)
}
