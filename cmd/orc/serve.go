package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/user/orc/internal/api"
	"github.com/user/orc/internal/bridge"
	"github.com/user/orc/internal/db"
	"github.com/user/orc/internal/server"
)

// cmdServe runs the daemon in the foreground; orcd is the same wiring
// as a standalone binary.
func cmdServe(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flags.BoolVar(&cfg.Sandbox, "sandbox", cfg.Sandbox, "pass sandbox flags to agent backends")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	activity := db.NewActivityRepo(database.SQL())
	bridgeHandler := &bridge.Handler{
		Mux:      svc.Tmux,
		Recorder: activity,
		Logger:   log.With("component", "bridge"),
	}

	return server.New(cfg, log, api.NewRouter(svc, activity), bridgeHandler).Start(ctx)
}
