// Package server assembles the HTTP surface: the REST API and the
// WebSocket terminal bridge, with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/orc/internal/config"
)

const shutdownGrace = 5 * time.Second

type Server struct {
	cfg        *config.Config
	log        *slog.Logger
	httpServer *http.Server
}

// New wires the API router and the terminal bridge into one mux.
// net/http recovers per-connection handler panics, so a wedged bridge
// connection cannot take the daemon down.
func New(cfg *config.Config, log *slog.Logger, apiHandler, bridgeHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /terminal/{project}/{room}", bridgeHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &Server{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
			Handler: mux,
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
