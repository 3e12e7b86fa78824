// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package repository defines the data access boundaries of the feed
// pipeline and provides cache-backed in-memory implementations seeded
// with demo fixtures. Production deployments swap these for Redis or
// Postgres-backed implementations satisfying the same interfaces.
package repository

import (
	"context"

	"github.com/vidfeed/vidfeed/internal/models"
)

// UserSignalRepository provides per-user personalization signals.
type UserSignalRepository interface {
	// GetSignals fetches signals for a user. Unknown users receive an
	// empty cold-start signals object, never an error.
	GetSignals(ctx context.Context, userHash string) (models.UserSignals, error)

	// SaveSignals persists updated signals for a user.
	SaveSignals(ctx context.Context, signals models.UserSignals) error
}

// CandidateRepository provides the per-tenant candidate pool and the
// pre-computed fallback feed.
type CandidateRepository interface {
	// GetCandidates fetches all active candidates for a tenant. An
	// unknown tenant yields an empty slice, not an error.
	GetCandidates(ctx context.Context, tenantID string) ([]models.VideoMetadata, error)

	// GetFallbackFeed fetches the pre-computed popularity-sorted
	// fallback feed for a tenant.
	GetFallbackFeed(ctx context.Context, tenantID string) ([]models.VideoMetadata, error)
}

// TenantConfigRepository provides tenant ranking configuration.
type TenantConfigRepository interface {
	// GetConfig fetches a tenant's ranking rules. Returns ok=false when
	// the tenant has no stored configuration.
	GetConfig(ctx context.Context, tenantID string) (models.TenantRankingRules, bool, error)

	// DefaultConfig returns safe defaults for tenants without stored
	// configuration.
	DefaultConfig(tenantID string) models.TenantRankingRules
}
