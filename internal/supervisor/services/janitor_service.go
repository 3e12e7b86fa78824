// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package services

import (
	"context"
	"time"

	"github.com/vidfeed/vidfeed/internal/cache"
	"github.com/vidfeed/vidfeed/internal/logging"
)

// JanitorService periodically sweeps expired entries from the
// registered caches. Caches do not run their own cleanup goroutines;
// this single supervised sweeper covers all of them.
type JanitorService struct {
	caches   []*cache.Cache
	interval time.Duration
}

// NewJanitorService creates a janitor sweeping the given caches.
func NewJanitorService(caches []*cache.Cache, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{caches: caches, interval: interval}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanupExpired()
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("cache janitor sweep")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *JanitorService) String() string {
	return "cache-janitor"
}
