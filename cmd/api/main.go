package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"velkro/internal/events"
	apphttp "velkro/internal/http"
	"velkro/internal/sampleapp"
	"velkro/platform/config"
	"velkro/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	log.Infow("starting server", "env", cfg.Env, "addr", cfg.GetHTTPAddr(), "modules_dir", cfg.ModulesDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := sampleapp.NewRegistry()
	if err != nil {
		log.Errorw("failed to build handler registry", "error", err)
		os.Exit(1)
	}

	app, err := apphttp.New(cfg, log, registry)
	if err != nil {
		log.Errorw("failed to create application", "error", err)
		os.Exit(1)
	}

	app.On(events.NameRoutesLoaded, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		loaded, ok := event.(events.RoutesLoaded)
		if !ok {
			return nil
		}
		inventory, err := json.MarshalIndent(loaded.Inventory, "", "    ")
		if err != nil {
			return err
		}
		log.Infof("routes:\n%s", inventory)
		return nil
	}))
	app.On(events.NameError, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if occurred, ok := event.(events.ErrorOccurred); ok {
			log.Debugw("request failed", "kind", occurred.Kind.String(), "handle", occurred.Handle, "error", occurred.Err)
		}
		return nil
	}))
	app.On(events.NameReady, events.HandlerFunc(func(context.Context, events.Event) error {
		log.Infow("ready", "addr", app.Addr())
		return nil
	}))

	if err := app.Run(ctx); err != nil {
		log.Errorw("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
