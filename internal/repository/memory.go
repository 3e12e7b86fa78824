// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package repository

import (
	"context"
	"sort"

	"github.com/vidfeed/vidfeed/internal/cache"
	"github.com/vidfeed/vidfeed/internal/metrics"
	"github.com/vidfeed/vidfeed/internal/models"
)

// MemoryUserSignals is an in-memory UserSignalRepository backed by a TTL
// cache. Simulates a Redis/Scylla signal store.
type MemoryUserSignals struct {
	cache *cache.Cache
}

// NewMemoryUserSignals creates an empty in-memory signal store.
func NewMemoryUserSignals(c *cache.Cache) *MemoryUserSignals {
	return &MemoryUserSignals{cache: c}
}

// GetSignals returns the stored signals for a user, or a cold-start
// object for unknown users. Cancellation is honored before the lookup.
func (r *MemoryUserSignals) GetSignals(ctx context.Context, userHash string) (models.UserSignals, error) {
	if err := ctx.Err(); err != nil {
		return models.UserSignals{}, err
	}

	if v, ok := r.cache.Get(signalKey(userHash)); ok {
		metrics.CacheHits.WithLabelValues("user_signals").Inc()
		if signals, ok := v.(models.UserSignals); ok {
			return signals, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("user_signals").Inc()
	return models.EmptySignals(userHash), nil
}

// SaveSignals stores signals under the user's hash.
func (r *MemoryUserSignals) SaveSignals(ctx context.Context, signals models.UserSignals) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.cache.Set(signalKey(signals.UserHash), signals)
	return nil
}

func signalKey(userHash string) string { return "signals:" + userHash }

// MemoryCandidates is an in-memory CandidateRepository backed by a TTL
// cache for the active pool and a pinned (non-expiring) entry for the
// pre-computed fallback feed, which must survive candidate expiry.
type MemoryCandidates struct {
	cache        *cache.Cache
	fallback     *cache.Cache
	fallbackSize int
}

// NewMemoryCandidates creates an empty candidate store. fallbackSize is
// the number of top-scored videos retained in the fallback feed.
func NewMemoryCandidates(candidates, fallback *cache.Cache, fallbackSize int) *MemoryCandidates {
	if fallbackSize < 1 {
		fallbackSize = 3
	}
	return &MemoryCandidates{
		cache:        candidates,
		fallback:     fallback,
		fallbackSize: fallbackSize,
	}
}

// SetCandidates stores the candidate pool for a tenant and recomputes
// its popularity-sorted fallback feed.
func (r *MemoryCandidates) SetCandidates(tenantID string, videos []models.VideoMetadata) {
	r.cache.Set(tenantID, videos)

	top := make([]models.VideoMetadata, len(videos))
	copy(top, videos)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > r.fallbackSize {
		top = top[:r.fallbackSize]
	}
	// TTL 0 pins the entry; the fallback feed must outlive pool expiry.
	r.fallback.SetWithTTL(tenantID, top, 0)
}

// GetCandidates returns the candidate pool for a tenant, or an empty
// slice for unknown tenants.
func (r *MemoryCandidates) GetCandidates(ctx context.Context, tenantID string) ([]models.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if v, ok := r.cache.Get(tenantID); ok {
		metrics.CacheHits.WithLabelValues("candidates").Inc()
		if videos, ok := v.([]models.VideoMetadata); ok {
			return videos, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("candidates").Inc()
	return []models.VideoMetadata{}, nil
}

// GetFallbackFeed returns the pre-computed fallback feed for a tenant.
func (r *MemoryCandidates) GetFallbackFeed(ctx context.Context, tenantID string) ([]models.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if v, ok := r.fallback.Get(tenantID); ok {
		metrics.CacheHits.WithLabelValues("fallback_feed").Inc()
		if videos, ok := v.([]models.VideoMetadata); ok {
			return videos, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("fallback_feed").Inc()
	return []models.VideoMetadata{}, nil
}

// MemoryTenantConfigs is an in-memory TenantConfigRepository backed by a
// TTL cache. Simulates the L1 config cache.
type MemoryTenantConfigs struct {
	cache *cache.Cache
}

// NewMemoryTenantConfigs creates an empty tenant config store.
func NewMemoryTenantConfigs(c *cache.Cache) *MemoryTenantConfigs {
	return &MemoryTenantConfigs{cache: c}
}

// SetConfig stores ranking rules for a tenant.
func (r *MemoryTenantConfigs) SetConfig(rules models.TenantRankingRules) {
	r.cache.Set(rules.TenantID, rules)
}

// GetConfig returns a tenant's ranking rules, with ok=false when none
// are stored.
func (r *MemoryTenantConfigs) GetConfig(ctx context.Context, tenantID string) (models.TenantRankingRules, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.TenantRankingRules{}, false, err
	}

	if v, ok := r.cache.Get(tenantID); ok {
		metrics.CacheHits.WithLabelValues("tenant_config").Inc()
		if rules, ok := v.(models.TenantRankingRules); ok {
			return rules, true, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("tenant_config").Inc()
	return models.TenantRankingRules{}, false, nil
}

// DefaultConfig returns neutral ranking rules for unknown tenants.
func (r *MemoryTenantConfigs) DefaultConfig(tenantID string) models.TenantRankingRules {
	return models.DefaultRankingRules(tenantID)
}
