// orcd is the orchestration daemon: it serves the dashboard REST API
// and the WebSocket terminal bridge over the shared tmux session.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/orc/internal/api"
	"github.com/user/orc/internal/backend"
	"github.com/user/orc/internal/bridge"
	"github.com/user/orc/internal/config"
	"github.com/user/orc/internal/db"
	"github.com/user/orc/internal/server"
	"github.com/user/orc/internal/service"
	"github.com/user/orc/internal/tmux"
	"github.com/user/orc/internal/universe"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	backends, err := backend.NewRegistry(cfg.BackendsDir)
	if err != nil {
		log.Error("failed to load backend registry", "dir", cfg.BackendsDir, "error", err)
		os.Exit(1)
	}

	svc := &service.Service{
		Tmux:           tmux.NewSession(cfg.TmuxSession),
		Universe:       universe.New(cfg.ProjectsDir),
		Backends:       backends,
		DefaultBackend: cfg.DefaultBackend,
		Sandbox:        cfg.Sandbox,
		StartupDelay:   service.DefaultStartupDelay,
	}

	activity := db.NewActivityRepo(database.SQL())
	bridgeHandler := &bridge.Handler{
		Mux:      svc.Tmux,
		Recorder: activity,
		Logger:   log.With("component", "bridge"),
	}

	srv := server.New(cfg, log, api.NewRouter(svc, activity), bridgeHandler)
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
