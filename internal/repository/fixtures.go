// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package repository

import (
	"time"

	"github.com/vidfeed/vidfeed/internal/models"
)

// Demo fixtures for local development and tests. Two tenants with
// distinct ranking rules, three users covering the engaged / engaged-
// elsewhere / cold-start cases.

// SeedDemoData loads the demo tenants and users into the given stores.
// now anchors the relative publish ages so recency behavior is stable in
// tests.
func SeedDemoData(
	signals *MemoryUserSignals,
	candidates *MemoryCandidates,
	configs *MemoryTenantConfigs,
	now time.Time,
) {
	ts := now.Unix()
	const hour = int64(3600)

	candidates.SetCandidates("tenant_sports", []models.VideoMetadata{
		{
			ID:          "v1",
			Title:       "Amazing Goal Messi",
			Score:       95,
			Tags:        []string{"sports", "football", "viral"},
			PublishedAt: ts - 2*hour,
		},
		{
			ID:          "v2",
			Title:       "Tennis Highlights",
			Score:       80,
			Tags:        []string{"sports", "tennis"},
			PublishedAt: ts - 24*hour,
		},
		{
			ID:          "v3",
			Title:       "Chess Championship",
			Score:       60,
			Tags:        []string{"strategy", "board_games"},
			PublishedAt: ts - 48*hour,
		},
		{
			ID:          "v4",
			Title:       "Funny Cat Fails",
			Score:       85,
			Tags:        []string{"viral", "animals"},
			PublishedAt: ts - 12*hour,
		},
		{
			ID:          "v5",
			Title:       "Live: Stadium Construction",
			Score:       40,
			Tags:        []string{"news", "construction"},
			PublishedAt: ts - 1*hour,
		},
	})

	candidates.SetCandidates("tenant_news", []models.VideoMetadata{
		{
			ID:          "n1",
			Title:       "Election Results",
			Score:       99,
			Tags:        []string{"politics", "news"},
			PublishedAt: ts - 1*hour,
		},
		{
			ID:          "n2",
			Title:       "Weather Forecast",
			Score:       70,
			Tags:        []string{"news", "weather"},
			PublishedAt: ts - 4*hour,
		},
		{
			ID:          "n3",
			Title:       "Tech Stock Crash",
			Score:       88,
			Tags:        []string{"finance", "tech"},
			PublishedAt: ts - 10*hour,
		},
		{
			ID:          "n4",
			Title:       "Cute Panda Born",
			Score:       92,
			Tags:        []string{"animals", "positive"},
			PublishedAt: ts - 72*hour,
		},
	})

	configs.SetConfig(models.TenantRankingRules{
		TenantID: "tenant_sports",
		BoostWeights: map[string]float64{
			models.WeightRecency:    1.5,
			models.WeightPopularity: 0.5,
			models.WeightAffinity:   2.0,
		},
		Filters: models.RankingFilters{
			ExcludeTags: []string{"politics"},
		},
	})
	configs.SetConfig(models.TenantRankingRules{
		TenantID: "tenant_news",
		BoostWeights: map[string]float64{
			models.WeightRecency:    2.0,
			models.WeightPopularity: 1.0,
			models.WeightAffinity:   0.5,
		},
		Filters: models.RankingFilters{
			MaxMaturity: "PG",
		},
	})

	for _, user := range []models.UserSignals{
		{
			UserHash:   "user_sporty",
			WatchedIDs: []string{"v2"},
			Affinities: map[string]float64{"sports": 0.9, "football": 0.8, "strategy": 0.1},
		},
		{
			UserHash:   "user_newsy",
			WatchedIDs: []string{"n1"},
			Affinities: map[string]float64{"politics": 0.9, "finance": 0.7},
		},
		{
			UserHash: "user_new",
		},
	} {
		// Seeding bypasses context: fixtures load at startup.
		signals.cache.Set(signalKey(user.UserHash), user)
	}
}
