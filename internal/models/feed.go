// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package models

// FeedItem is a single element of the feed response returned to SDKs.
type FeedItem struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	PlaybackURL   string  `json:"playback_url"`
	TrackingToken string  `json:"tracking_token"`
	DebugScore    float64 `json:"debug_score,omitempty"`
}

// FeedResponse is the ordered feed page returned by GET /v1/feed.
type FeedResponse struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`

	// Degraded is true exactly when a non-intentional fallback occurred
	// (error or missing data). Intentional gates (kill switch, rollout,
	// personalization off) keep it false.
	Degraded bool `json:"degraded"`

	IsPersonalized bool `json:"is_personalized"`
}
