// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/vidfeed/vidfeed/internal/cache"
	"github.com/vidfeed/vidfeed/internal/models"
)

func seededRepos(t *testing.T) (*MemoryUserSignals, *MemoryCandidates, *MemoryTenantConfigs) {
	t.Helper()
	signals := NewMemoryUserSignals(cache.New(time.Minute))
	candidates := NewMemoryCandidates(cache.New(time.Minute), cache.New(time.Minute), 3)
	configs := NewMemoryTenantConfigs(cache.New(time.Minute))
	SeedDemoData(signals, candidates, configs, time.Now())
	return signals, candidates, configs
}

func TestGetSignalsKnownUser(t *testing.T) {
	signals, _, _ := seededRepos(t)

	got, err := signals.GetSignals(context.Background(), "user_sporty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserHash != "user_sporty" {
		t.Errorf("wrong user: %s", got.UserHash)
	}
	if len(got.WatchedIDs) != 1 || got.WatchedIDs[0] != "v2" {
		t.Errorf("unexpected watched ids: %v", got.WatchedIDs)
	}
	if got.Affinities["sports"] != 0.9 {
		t.Errorf("unexpected sports affinity: %v", got.Affinities["sports"])
	}
}

func TestGetSignalsColdStart(t *testing.T) {
	signals, _, _ := seededRepos(t)

	got, err := signals.GetSignals(context.Background(), "never_seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ColdStart() {
		t.Errorf("unknown user should be cold start, got %+v", got)
	}
	if got.UserHash != "never_seen" {
		t.Errorf("cold start signals must carry the requested hash, got %s", got.UserHash)
	}
}

func TestSaveSignalsRoundTrip(t *testing.T) {
	signals, _, _ := seededRepos(t)
	ctx := context.Background()

	in := models.UserSignals{
		UserHash:   "user_fresh",
		WatchedIDs: []string{"v9"},
		Affinities: map[string]float64{"viral": 0.5},
	}
	if err := signals.SaveSignals(ctx, in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := signals.GetSignals(ctx, "user_fresh")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ColdStart() || got.Affinities["viral"] != 0.5 {
		t.Errorf("saved signals not returned: %+v", got)
	}
}

func TestGetCandidates(t *testing.T) {
	_, candidates, _ := seededRepos(t)
	ctx := context.Background()

	sports, err := candidates.GetCandidates(ctx, "tenant_sports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sports) != 5 {
		t.Errorf("expected 5 sports candidates, got %d", len(sports))
	}

	unknown, err := candidates.GetCandidates(ctx, "tenant_ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown tenant must yield empty slice, got %d items", len(unknown))
	}
}

func TestFallbackFeedTopByScore(t *testing.T) {
	_, candidates, _ := seededRepos(t)

	fb, err := candidates.GetFallbackFeed(context.Background(), "tenant_sports")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fb) != 3 {
		t.Fatalf("expected top-3 fallback, got %d", len(fb))
	}
	// v1 (95) > v4 (85) > v2 (80)
	want := []string{"v1", "v4", "v2"}
	for i, id := range want {
		if fb[i].ID != id {
			t.Errorf("fallback[%d] = %s, want %s", i, fb[i].ID, id)
		}
	}
}

func TestFallbackSurvivesCandidateExpiry(t *testing.T) {
	pool := cache.New(10 * time.Millisecond)
	fallback := cache.New(10 * time.Millisecond)
	candidates := NewMemoryCandidates(pool, fallback, 3)
	candidates.SetCandidates("t", []models.VideoMetadata{
		{ID: "a", Title: "A", Score: 10, PublishedAt: 1},
	})

	time.Sleep(20 * time.Millisecond)

	got, err := candidates.GetCandidates(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("candidate pool should have expired, got %d", len(got))
	}

	fb, err := candidates.GetFallbackFeed(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(fb) != 1 {
		t.Errorf("fallback feed must be pinned past pool expiry, got %d", len(fb))
	}
}

func TestGetConfig(t *testing.T) {
	_, _, configs := seededRepos(t)
	ctx := context.Background()

	rules, ok, err := configs.GetConfig(ctx, "tenant_news")
	if err != nil || !ok {
		t.Fatalf("expected stored config, ok=%v err=%v", ok, err)
	}
	if rules.Filters.MaxMaturity != "PG" {
		t.Errorf("unexpected max maturity: %s", rules.Filters.MaxMaturity)
	}
	if rules.Weight(models.WeightRecency) != 2.0 {
		t.Errorf("unexpected recency weight: %v", rules.Weight(models.WeightRecency))
	}

	_, ok, err = configs.GetConfig(ctx, "tenant_ghost")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown tenant must report ok=false")
	}

	def := configs.DefaultConfig("tenant_ghost")
	if def.Weight(models.WeightAffinity) != 1.0 {
		t.Errorf("default weights must be 1.0, got %v", def.Weight(models.WeightAffinity))
	}
}

func TestContextCancellationPropagates(t *testing.T) {
	signals, candidates, configs := seededRepos(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := signals.GetSignals(ctx, "user_sporty"); err == nil {
		t.Error("expected error from canceled context on GetSignals")
	}
	if _, err := candidates.GetCandidates(ctx, "tenant_sports"); err == nil {
		t.Error("expected error from canceled context on GetCandidates")
	}
	if _, _, err := configs.GetConfig(ctx, "tenant_sports"); err == nil {
		t.Error("expected error from canceled context on GetConfig")
	}
}
