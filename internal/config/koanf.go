// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vidfeed/config.yaml",
	"/etc/vidfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using koanf with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. The result is validated before
// being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// PERSONALIZATION_ENABLED -> features.personalization_enabled
	// CIRCUIT_BREAKER_FAILURE_THRESHOLD -> breaker.failure_threshold
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps flat environment variable names (lowercased) to
// nested config paths. Unmapped variables are ignored so unrelated
// process environment never leaks into the config.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Feature flags
	"personalization_enabled": "features.personalization_enabled",
	"kill_switch_active":      "features.kill_switch_active",
	"rollout_percentage":      "features.rollout_percentage",

	// Feed shaping
	"default_feed_limit":  "feed.default_limit",
	"max_feed_limit":      "feed.max_limit",
	"max_feed_candidates": "feed.max_candidates",
	"default_tenant":      "feed.default_tenant",

	// Latency budgets
	"ranking_timeout_ms":      "budgets.ranking_timeout_ms",
	"cache_timeout_ms":        "budgets.cache_timeout_ms",
	"signal_store_timeout_ms": "budgets.signal_store_timeout_ms",

	// Circuit breaker
	"circuit_breaker_failure_threshold":    "breaker.failure_threshold",
	"circuit_breaker_recovery_timeout_sec": "breaker.recovery_timeout_sec",

	// Cache TTLs
	"tenant_config_ttl_sec":  "ttl.tenant_config_sec",
	"candidate_feed_ttl_sec": "ttl.candidate_feed_sec",
	"user_signals_ttl_sec":   "ttl.user_signals_sec",
	"fallback_feed_ttl_sec":  "ttl.fallback_feed_sec",

	// Rate limiting
	"rate_limit_enabled":          "rate_limit.enabled",
	"rate_limit_requests_per_sec": "rate_limit.requests_per_sec",
	"rate_limit_window_sec":       "rate_limit.window_sec",
}

// envTransformFunc maps environment variable names to koanf config
// paths. Returning "" drops the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
