// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package config defines the Vidfeed configuration model and its layered
// loading: built-in defaults, then an optional YAML file, then
// environment variables. Environment variables always win.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the feed service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Features  FeaturesConfig  `koanf:"features"`
	Feed      FeedConfig      `koanf:"feed"`
	Budgets   BudgetsConfig   `koanf:"budgets"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	TTL       TTLConfig       `koanf:"ttl"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// FeaturesConfig holds the personalization feature flags. These are the
// startup values; the runtime Settings cell can change them live.
type FeaturesConfig struct {
	PersonalizationEnabled bool `koanf:"personalization_enabled"`
	KillSwitchActive       bool `koanf:"kill_switch_active"`
	RolloutPercentage      int  `koanf:"rollout_percentage"`
}

// FeedConfig holds feed shaping parameters.
type FeedConfig struct {
	DefaultLimit  int    `koanf:"default_limit"`
	MaxLimit      int    `koanf:"max_limit"`
	MaxCandidates int    `koanf:"max_candidates"`
	DefaultTenant string `koanf:"default_tenant"`
}

// BudgetsConfig holds per-dependency latency budgets in milliseconds.
// A fetch exceeding its budget counts as a failure for the circuit
// breaker and triggers the fallback path.
type BudgetsConfig struct {
	RankingTimeoutMS     int `koanf:"ranking_timeout_ms"`
	CacheTimeoutMS       int `koanf:"cache_timeout_ms"`
	SignalStoreTimeoutMS int `koanf:"signal_store_timeout_ms"`
}

// BreakerConfig holds circuit breaker tuning for the ranking path.
type BreakerConfig struct {
	FailureThreshold   int `koanf:"failure_threshold"`
	RecoveryTimeoutSec int `koanf:"recovery_timeout_sec"`
}

// TTLConfig holds cache TTLs in seconds per cached entity.
type TTLConfig struct {
	TenantConfigSec  int `koanf:"tenant_config_sec"`
	CandidateFeedSec int `koanf:"candidate_feed_sec"`
	UserSignalsSec   int `koanf:"user_signals_sec"`
	FallbackFeedSec  int `koanf:"fallback_feed_sec"`
}

// RateLimitConfig holds per-client request throttling for the feed
// endpoint.
type RateLimitConfig struct {
	Enabled        bool `koanf:"enabled"`
	RequestsPerSec int  `koanf:"requests_per_sec"`
	WindowSec      int  `koanf:"window_sec"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Features: FeaturesConfig{
			PersonalizationEnabled: true,
			KillSwitchActive:       false,
			RolloutPercentage:      100,
		},
		Feed: FeedConfig{
			DefaultLimit:  20,
			MaxLimit:      50,
			MaxCandidates: 200,
			DefaultTenant: "tenant_sports",
		},
		Budgets: BudgetsConfig{
			RankingTimeoutMS:     20,
			CacheTimeoutMS:       5,
			SignalStoreTimeoutMS: 10,
		},
		Breaker: BreakerConfig{
			FailureThreshold:   3,
			RecoveryTimeoutSec: 30,
		},
		TTL: TTLConfig{
			TenantConfigSec:  300,
			CandidateFeedSec: 60,
			UserSignalsSec:   30,
			FallbackFeedSec:  300,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerSec: 2,
			WindowSec:      1,
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Features.RolloutPercentage < 0 || c.Features.RolloutPercentage > 100 {
		return fmt.Errorf("features.rollout_percentage must be in [0, 100], got %d", c.Features.RolloutPercentage)
	}
	if c.Feed.DefaultLimit < 1 {
		return fmt.Errorf("feed.default_limit must be >= 1, got %d", c.Feed.DefaultLimit)
	}
	if c.Feed.MaxLimit < c.Feed.DefaultLimit {
		return fmt.Errorf("feed.max_limit (%d) must be >= feed.default_limit (%d)",
			c.Feed.MaxLimit, c.Feed.DefaultLimit)
	}
	if c.Feed.MaxCandidates < 1 {
		return fmt.Errorf("feed.max_candidates must be >= 1, got %d", c.Feed.MaxCandidates)
	}
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker.failure_threshold must be >= 1, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.RecoveryTimeoutSec < 1 {
		return fmt.Errorf("breaker.recovery_timeout_sec must be >= 1, got %d", c.Breaker.RecoveryTimeoutSec)
	}
	for name, v := range map[string]int{
		"budgets.ranking_timeout_ms":      c.Budgets.RankingTimeoutMS,
		"budgets.cache_timeout_ms":        c.Budgets.CacheTimeoutMS,
		"budgets.signal_store_timeout_ms": c.Budgets.SignalStoreTimeoutMS,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", name, v)
		}
	}
	return nil
}

// RecoveryTimeout returns the breaker recovery timeout as a duration.
func (c *BreakerConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutSec) * time.Second
}

// RankingTimeout returns the ranking budget as a duration.
func (c *BudgetsConfig) RankingTimeout() time.Duration {
	return time.Duration(c.RankingTimeoutMS) * time.Millisecond
}

// CacheTimeout returns the cache budget as a duration.
func (c *BudgetsConfig) CacheTimeout() time.Duration {
	return time.Duration(c.CacheTimeoutMS) * time.Millisecond
}

// SignalStoreTimeout returns the signal store budget as a duration.
func (c *BudgetsConfig) SignalStoreTimeout() time.Duration {
	return time.Duration(c.SignalStoreTimeoutMS) * time.Millisecond
}

// TenantConfigTTL returns the tenant config cache TTL as a duration.
func (c *TTLConfig) TenantConfigTTL() time.Duration {
	return time.Duration(c.TenantConfigSec) * time.Second
}

// CandidateFeedTTL returns the candidate feed cache TTL as a duration.
func (c *TTLConfig) CandidateFeedTTL() time.Duration {
	return time.Duration(c.CandidateFeedSec) * time.Second
}

// UserSignalsTTL returns the user signals cache TTL as a duration.
func (c *TTLConfig) UserSignalsTTL() time.Duration {
	return time.Duration(c.UserSignalsSec) * time.Second
}

// FallbackFeedTTL returns the fallback feed cache TTL as a duration.
func (c *TTLConfig) FallbackFeedTTL() time.Duration {
	return time.Duration(c.FallbackFeedSec) * time.Second
}
