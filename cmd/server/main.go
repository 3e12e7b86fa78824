// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Command server runs the personalized feed delivery API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidfeed/vidfeed/internal/api"
	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/feed"
	"github.com/vidfeed/vidfeed/internal/logging"
	"github.com/vidfeed/vidfeed/internal/supervisor"
	"github.com/vidfeed/vidfeed/internal/supervisor/services"
)

// janitorInterval is how often expired cache entries are swept. The
// shortest TTL in the default config is 30s, so one sweep per TTL
// period keeps memory bounded without burning CPU.
const janitorInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("personalization_enabled", cfg.Features.PersonalizationEnabled).
		Int("rollout_percentage", cfg.Features.RolloutPercentage).
		Msg("Starting vidfeed server")

	deps := feed.Default(cfg)
	handlers := api.NewHandlers(deps.Service, deps.Evaluator, deps.Settings, cfg.Feed)
	router := api.NewRouter(handlers, cfg.RateLimit)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	tree.AddMaintenanceService(services.NewJanitorService(deps.Caches, janitorInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logging.Info().Str("addr", srv.Addr).Msg("Supervision tree starting")
	errCh := tree.ServeBackground(ctx)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervision tree failed: %w", err)
		}
	case <-ctx.Done():
		// Wait for the tree to finish its graceful shutdown.
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logging.Info().Msg("Application stopped gracefully")
	return nil
}
