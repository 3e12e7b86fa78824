// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package feed

import (
	"sync"
	"time"

	"github.com/vidfeed/vidfeed/internal/breaker"
	"github.com/vidfeed/vidfeed/internal/cache"
	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/flags"
	"github.com/vidfeed/vidfeed/internal/ranking"
	"github.com/vidfeed/vidfeed/internal/repository"
)

// Process-wide wiring: the caches, repositories and service are
// initialized once on first use and live for the process. Tests use
// ResetDefault to rebuild from scratch.

// Deps bundles everything the default wiring constructs, so callers
// (the HTTP layer, the cache janitor, tests) can reach individual
// pieces.
type Deps struct {
	Service    *Service
	Settings   *config.Settings
	Evaluator  *flags.Evaluator
	Signals    *repository.MemoryUserSignals
	Candidates *repository.MemoryCandidates
	Configs    *repository.MemoryTenantConfigs

	// Caches, for the janitor's periodic cleanup.
	Caches []*cache.Cache
}

var (
	defaultMu   sync.Mutex
	defaultDeps *Deps
)

// Default returns the process-wide feed service wiring, building it on
// first use. Construction is idempotent: subsequent calls return the
// same instance regardless of cfg.
func Default(cfg *config.Config) *Deps {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDeps == nil {
		defaultDeps = build(cfg)
	}
	return defaultDeps
}

// ResetDefault tears down the process-wide wiring so the next Default
// call rebuilds it. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDeps = nil
}

func build(cfg *config.Config) *Deps {
	signalCache := cache.New(cfg.TTL.UserSignalsTTL())
	candidateCache := cache.New(cfg.TTL.CandidateFeedTTL())
	fallbackCache := cache.New(cfg.TTL.FallbackFeedTTL())
	configCache := cache.New(cfg.TTL.TenantConfigTTL())

	signals := repository.NewMemoryUserSignals(signalCache)
	candidates := repository.NewMemoryCandidates(candidateCache, fallbackCache, 3)
	configs := repository.NewMemoryTenantConfigs(configCache)
	repository.SeedDemoData(signals, candidates, configs, time.Now())

	settings := config.NewSettings(cfg.Features)
	evaluator := flags.NewEvaluator(settings)

	cb := breaker.New[ranking.Result](
		"ranking_service",
		cfg.Breaker.FailureThreshold,
		cfg.Breaker.RecoveryTimeout(),
	)

	service := NewService(
		signals,
		candidates,
		configs,
		evaluator,
		settings,
		EngineRanker{Engine: ranking.NewEngine()},
		cb,
		cfg.Budgets,
		cfg.Feed.MaxCandidates,
	)

	return &Deps{
		Service:    service,
		Settings:   settings,
		Evaluator:  evaluator,
		Signals:    signals,
		Candidates: candidates,
		Configs:    configs,
		Caches:     []*cache.Cache{signalCache, candidateCache, fallbackCache, configCache},
	}
}
