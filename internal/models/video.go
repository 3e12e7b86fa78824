// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package models defines the core domain types shared across the feed
// pipeline: candidate videos, user signals, tenant ranking rules, and the
// response shapes returned to client SDKs.
package models

import "fmt"

// maturityLadder is the ordered rating scale used for the max_maturity filter.
// Lower index means more permissive.
var maturityLadder = []string{"G", "PG", "PG-13", "R", "NC-17"}

// VideoMetadata identifies a candidate video within a tenant's pool.
type VideoMetadata struct {
	// ID is an opaque identifier, unique within a tenant.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Score is the base popularity score in [0, 100].
	Score float64 `json:"score"`

	// Tags is the set of content tags.
	Tags []string `json:"tags,omitempty"`

	// MaturityRating is one of G, PG, PG-13, R, NC-17.
	// Unknown values are treated as permitted by the maturity filter.
	MaturityRating string `json:"maturity_rating,omitempty"`

	// PublishedAt is the publish instant as a Unix timestamp in seconds.
	PublishedAt int64 `json:"published_at"`
}

// Validate checks the VideoMetadata invariants.
func (v VideoMetadata) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("video id must be non-empty")
	}
	if v.Score < 0 {
		return fmt.Errorf("video %s: score must be non-negative, got %f", v.ID, v.Score)
	}
	return nil
}

// maturityIndex returns the position of a rating on the ladder, or -1 for
// unknown ratings.
func maturityIndex(rating string) int {
	for i, r := range maturityLadder {
		if r == rating {
			return i
		}
	}
	return -1
}

// MaturityAllowed reports whether a video rating is within the given cap.
// Unknown video or cap ratings always pass.
func MaturityAllowed(videoRating, maxRating string) bool {
	vi := maturityIndex(videoRating)
	mi := maturityIndex(maxRating)
	if vi < 0 || mi < 0 {
		return true
	}
	return vi <= mi
}

// UserSignals carries the per-user personalization inputs.
type UserSignals struct {
	// UserHash is the anonymized user identifier supplied by the caller.
	UserHash string `json:"user_hash"`

	// WatchedIDs is the set of video IDs the user has already watched.
	WatchedIDs []string `json:"watched_ids,omitempty"`

	// Affinities maps content tags to affinity scores in [0, 1].
	Affinities map[string]float64 `json:"affinities,omitempty"`
}

// EmptySignals returns the cold-start signals object for an unknown user.
func EmptySignals(userHash string) UserSignals {
	return UserSignals{UserHash: userHash}
}

// ColdStart reports whether the user has no recorded signals.
func (u UserSignals) ColdStart() bool {
	return len(u.WatchedIDs) == 0 && len(u.Affinities) == 0
}

// Recognized boost weight keys in TenantRankingRules.BoostWeights.
const (
	WeightRecency    = "recency"
	WeightPopularity = "popularity"
	WeightAffinity   = "user_affinity"
)

// RankingFilters holds the per-tenant candidate exclusion rules.
type RankingFilters struct {
	// ExcludeTags drops any candidate carrying one of these tags.
	ExcludeTags []string `json:"exclude_tags,omitempty"`

	// MaxMaturity caps the maturity rating. Empty means no cap.
	MaxMaturity string `json:"max_maturity,omitempty"`
}

// TenantRankingRules is the per-tenant ranking configuration.
type TenantRankingRules struct {
	TenantID string `json:"tenant_id"`

	// BoostWeights maps recency/popularity/user_affinity to multipliers.
	// A missing key defaults to 1.0.
	BoostWeights map[string]float64 `json:"boost_weights,omitempty"`

	Filters RankingFilters `json:"filters,omitempty"`

	// EditorialBoosts pins video IDs to 0-based output positions,
	// bypassing score ordering.
	EditorialBoosts map[string]int `json:"editorial_boosts,omitempty"`
}

// Weight returns the boost weight for a key, defaulting to 1.0 when absent.
func (r TenantRankingRules) Weight(key string) float64 {
	if w, ok := r.BoostWeights[key]; ok {
		return w
	}
	return 1.0
}

// DefaultRankingRules returns safe defaults for unknown tenants: all weights
// 1.0, no filters, no editorial boosts.
func DefaultRankingRules(tenantID string) TenantRankingRules {
	return TenantRankingRules{TenantID: tenantID}
}

// ScoredVideo is the transient per-request scoring result.
type ScoredVideo struct {
	Video      VideoMetadata `json:"video"`
	FinalScore float64       `json:"final_score"`

	// Breakdown maps scoring stage labels to their contribution.
	// Diagnostic only; never affects ordering.
	Breakdown map[string]float64 `json:"score_breakdown,omitempty"`
}
