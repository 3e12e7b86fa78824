// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package models

import "testing"

func TestMaturityAllowed(t *testing.T) {
	tests := []struct {
		name  string
		video string
		max   string
		want  bool
	}{
		{"within cap", "PG", "PG-13", true},
		{"equal to cap", "PG-13", "PG-13", true},
		{"exceeds cap", "R", "PG-13", false},
		{"top of ladder", "NC-17", "R", false},
		{"unknown video rating allowed", "TV-MA", "PG", true},
		{"unknown cap allowed", "R", "whatever", true},
		{"empty ratings allowed", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaturityAllowed(tt.video, tt.max); got != tt.want {
				t.Errorf("MaturityAllowed(%q, %q) = %v, want %v", tt.video, tt.max, got, tt.want)
			}
		})
	}
}

func TestWeightDefaults(t *testing.T) {
	rules := TenantRankingRules{
		TenantID:     "tenant_sports",
		BoostWeights: map[string]float64{WeightRecency: 1.5},
	}

	if w := rules.Weight(WeightRecency); w != 1.5 {
		t.Errorf("expected recency weight 1.5, got %f", w)
	}
	if w := rules.Weight(WeightPopularity); w != 1.0 {
		t.Errorf("expected missing popularity weight to default to 1.0, got %f", w)
	}

	defaults := DefaultRankingRules("tenant_x")
	for _, key := range []string{WeightRecency, WeightPopularity, WeightAffinity} {
		if w := defaults.Weight(key); w != 1.0 {
			t.Errorf("default rules: weight %s = %f, want 1.0", key, w)
		}
	}
	if len(defaults.EditorialBoosts) != 0 || len(defaults.Filters.ExcludeTags) != 0 {
		t.Error("default rules must carry no filters or editorial boosts")
	}
}

func TestVideoValidate(t *testing.T) {
	if err := (VideoMetadata{ID: "v1", Score: 50}).Validate(); err != nil {
		t.Errorf("valid video rejected: %v", err)
	}
	if err := (VideoMetadata{Score: 50}).Validate(); err == nil {
		t.Error("expected error for empty id")
	}
	if err := (VideoMetadata{ID: "v1", Score: -1}).Validate(); err == nil {
		t.Error("expected error for negative score")
	}
}

func TestColdStart(t *testing.T) {
	if !EmptySignals("u1").ColdStart() {
		t.Error("empty signals must be cold start")
	}
	warm := UserSignals{UserHash: "u1", Affinities: map[string]float64{"sports": 0.9}}
	if warm.ColdStart() {
		t.Error("user with affinities is not cold start")
	}
}
