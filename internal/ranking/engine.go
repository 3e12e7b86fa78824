// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package ranking implements the deterministic ranking pipeline:
// filter, score, sort, editorial reinsertion, paginate, materialize.
// For a fixed candidate pool and a fixed clock the output is a pure
// function of (candidates, user, config, limit, cursor).
package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vidfeed/vidfeed/internal/metrics"
	"github.com/vidfeed/vidfeed/internal/models"
)

// recencyDecayHours is the window over which the recency boost decays
// linearly to zero.
const recencyDecayHours = 48.0

// Result is the output of one ranking pass.
type Result struct {
	Items      []models.FeedItem
	NextCursor string
	HasMore    bool
}

// Engine ranks candidate videos for a user under tenant rules.
//
// The zero value is not usable; construct with NewEngine. The clock is
// injectable so tests can pin recency behavior and tracking tokens.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a ranking engine using the real clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates a ranking engine with an injected clock.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Rank runs the full pipeline over the candidate pool.
//
// Ordering is total: final score descending, video ID ascending on
// ties, so repeated runs produce identical pages. Editorial boosts then
// pin specific videos to fixed 0-based positions. Pagination slices the
// post-editorial sequence.
func (e *Engine) Rank(
	candidates []models.VideoMetadata,
	user models.UserSignals,
	config models.TenantRankingRules,
	limit int,
	cursor string,
) Result {
	start := e.now()
	defer func() {
		metrics.RankingDuration.Observe(time.Since(start).Seconds())
	}()

	offset := DecodeCursor(cursor)

	filtered := filterCandidates(candidates, user, config)
	scored := e.scoreCandidates(filtered, user, config)

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		return scored[i].Video.ID < scored[j].Video.ID
	})

	scored = applyEditorialBoosts(scored, config)

	total := len(scored)
	pageStart := offset
	if pageStart > total {
		pageStart = total
	}
	pageEnd := pageStart + limit
	if pageEnd > total {
		pageEnd = total
	}
	hasMore := total > offset+limit

	items := e.materialize(scored[pageStart:pageEnd])

	var next string
	if hasMore {
		next = EncodeCursor(offset + limit)
	}

	return Result{Items: items, NextCursor: next, HasMore: hasMore}
}

// filterCandidates removes watched videos, excluded tags, and videos
// above the tenant's maturity cap.
func filterCandidates(
	candidates []models.VideoMetadata,
	user models.UserSignals,
	config models.TenantRankingRules,
) []models.VideoMetadata {
	watched := make(map[string]bool, len(user.WatchedIDs))
	for _, id := range user.WatchedIDs {
		watched[id] = true
	}
	excluded := make(map[string]bool, len(config.Filters.ExcludeTags))
	for _, tag := range config.Filters.ExcludeTags {
		excluded[tag] = true
	}
	maxMaturity := config.Filters.MaxMaturity

	filtered := make([]models.VideoMetadata, 0, len(candidates))
	for _, video := range candidates {
		if watched[video.ID] {
			continue
		}
		if hasExcludedTag(video.Tags, excluded) {
			continue
		}
		if maxMaturity != "" && !models.MaturityAllowed(video.MaturityRating, maxMaturity) {
			continue
		}
		filtered = append(filtered, video)
	}
	return filtered
}

func hasExcludedTag(tags []string, excluded map[string]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	for _, tag := range tags {
		if excluded[tag] {
			return true
		}
	}
	return false
}

// scoreCandidates computes the final score per candidate:
//
//	base  = video.score * W_popularity
//	boost = W_recency * (1 - age_h/48)  (0 once older than 48h)
//	      + W_affinity * max tag affinity
//	final = base * (1 + boost)
func (e *Engine) scoreCandidates(
	candidates []models.VideoMetadata,
	user models.UserSignals,
	config models.TenantRankingRules,
) []models.ScoredVideo {
	now := e.now()
	popularityWeight := config.Weight(models.WeightPopularity)

	scored := make([]models.ScoredVideo, 0, len(candidates))
	for _, video := range candidates {
		base := video.Score * popularityWeight

		recency := recencyBoost(video, config, now)
		affinity := affinityBoost(video, user, config)
		totalBoost := recency + affinity

		final := base * (1.0 + totalBoost)

		scored = append(scored, models.ScoredVideo{
			Video:      video,
			FinalScore: final,
			Breakdown: map[string]float64{
				"base":        base,
				"recency":     recency,
				"affinity":    affinity,
				"total_boost": totalBoost,
				"final":       final,
			},
		})
	}
	return scored
}

// recencyBoost decays linearly from the tenant's recency weight to zero
// over 48 hours. Future publish timestamps clamp to age zero.
func recencyBoost(video models.VideoMetadata, config models.TenantRankingRules, now time.Time) float64 {
	ageHours := now.Sub(time.Unix(video.PublishedAt, 0)).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	if ageHours >= recencyDecayHours {
		return 0
	}
	return config.Weight(models.WeightRecency) * (1.0 - ageHours/recencyDecayHours)
}

// affinityBoost scales the user's strongest tag affinity by the
// tenant's affinity weight.
func affinityBoost(video models.VideoMetadata, user models.UserSignals, config models.TenantRankingRules) float64 {
	maxAffinity := 0.0
	for _, tag := range video.Tags {
		if a := user.Affinities[tag]; a > maxAffinity {
			maxAffinity = a
		}
	}
	return config.Weight(models.WeightAffinity) * maxAffinity
}

// applyEditorialBoosts extracts editorially pinned videos and reinserts
// them at their configured 0-based positions, ascending. A position past
// the end appends. Two videos pinned to the same position insert in
// video-ID order.
func applyEditorialBoosts(scored []models.ScoredVideo, config models.TenantRankingRules) []models.ScoredVideo {
	if len(config.EditorialBoosts) == 0 {
		return scored
	}

	type pinned struct {
		position int
		item     models.ScoredVideo
	}

	var pins []pinned
	remaining := make([]models.ScoredVideo, 0, len(scored))
	for _, item := range scored {
		if position, ok := config.EditorialBoosts[item.Video.ID]; ok {
			pins = append(pins, pinned{position: position, item: item})
		} else {
			remaining = append(remaining, item)
		}
	}

	sort.Slice(pins, func(i, j int) bool {
		if pins[i].position != pins[j].position {
			return pins[i].position < pins[j].position
		}
		return pins[i].item.Video.ID < pins[j].item.Video.ID
	})

	result := remaining
	for _, p := range pins {
		idx := p.position
		if idx > len(result) {
			idx = len(result)
		}
		result = append(result, models.ScoredVideo{})
		copy(result[idx+1:], result[idx:])
		result[idx] = p.item
	}
	return result
}

// materialize converts scored videos to wire-format feed items.
func (e *Engine) materialize(scored []models.ScoredVideo) []models.FeedItem {
	ts := e.now().Unix()
	items := make([]models.FeedItem, 0, len(scored))
	for _, sv := range scored {
		items = append(items, models.FeedItem{
			ID:            sv.Video.ID,
			Title:         sv.Video.Title,
			PlaybackURL:   fmt.Sprintf("https://cdn.example.com/v/%s.m3u8", sv.Video.ID),
			TrackingToken: fmt.Sprintf("tok_%s_%d", sv.Video.ID, ts),
			DebugScore:    round2(sv.FinalScore),
		})
	}
	return items
}

// round2 rounds to two decimal places for the debug_score field.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
