// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vidfeed/vidfeed/internal/breaker"
	"github.com/vidfeed/vidfeed/internal/cache"
	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/feed"
	"github.com/vidfeed/vidfeed/internal/flags"
	"github.com/vidfeed/vidfeed/internal/models"
	"github.com/vidfeed/vidfeed/internal/ranking"
	"github.com/vidfeed/vidfeed/internal/repository"
)

func testServer(t *testing.T, features config.FeaturesConfig) http.Handler {
	t.Helper()

	signals := repository.NewMemoryUserSignals(cache.New(time.Minute))
	candidates := repository.NewMemoryCandidates(cache.New(time.Minute), cache.New(time.Minute), 3)
	configs := repository.NewMemoryTenantConfigs(cache.New(time.Minute))
	repository.SeedDemoData(signals, candidates, configs, time.Now())

	settings := config.NewSettings(features)
	evaluator := flags.NewEvaluator(settings)

	service := feed.NewService(
		signals, candidates, configs,
		evaluator, settings,
		feed.EngineRanker{Engine: ranking.NewEngine()},
		breaker.New[ranking.Result]("api_test_"+t.Name(), 3, time.Minute),
		config.BudgetsConfig{RankingTimeoutMS: 1000, CacheTimeoutMS: 1000, SignalStoreTimeoutMS: 1000},
		200,
	)

	handlers := NewHandlers(service, evaluator, settings, config.FeedConfig{
		DefaultLimit:  20,
		MaxLimit:      50,
		DefaultTenant: "tenant_sports",
	})
	return NewRouter(handlers, config.RateLimitConfig{Enabled: false})
}

func personalizedServer(t *testing.T) http.Handler {
	return testServer(t, config.FeaturesConfig{
		PersonalizationEnabled: true,
		RolloutPercentage:      100,
	})
}

func doFeed(t *testing.T, h http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeFeed(t *testing.T, rec *httptest.ResponseRecorder) models.FeedResponse {
	t.Helper()
	var resp models.FeedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestFeedPersonalized(t *testing.T) {
	h := personalizedServer(t)

	rec := doFeed(t, h, "/v1/feed?user_hash=user_sporty", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeFeed(t, rec)
	if !resp.IsPersonalized || resp.Degraded {
		t.Errorf("expected personalized response, got %+v", resp)
	}
	if len(resp.Items) == 0 {
		t.Fatal("expected items")
	}

	if cc := rec.Header().Get("Cache-Control"); cc != "private, max-age=30" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if vary := rec.Header().Get("Vary"); vary != "X-User-Hash" {
		t.Errorf("Vary = %q", vary)
	}
	if xp := rec.Header().Get("X-Personalized"); xp != "true" {
		t.Errorf("X-Personalized = %q", xp)
	}
	if etag := rec.Header().Get("ETag"); !strings.HasPrefix(etag, `W/"`) || len(etag) != len(`W/""`)+16 {
		t.Errorf("malformed ETag %q", etag)
	}
}

func TestFeedFallbackOnUnknownTenant(t *testing.T) {
	h := personalizedServer(t)

	rec := doFeed(t, h, "/v1/feed?user_hash=user_sporty", map[string]string{"X-Tenant-ID": "tenant_ghost"})
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback must not 5xx, got %d", rec.Code)
	}

	resp := decodeFeed(t, rec)
	if resp.IsPersonalized {
		t.Error("unknown tenant must serve non-personalized feed")
	}
	if !resp.Degraded {
		t.Error("unknown tenant response must be degraded")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=30, stale-while-revalidate=15" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if vary := rec.Header().Get("Vary"); vary != "Accept-Encoding" {
		t.Errorf("Vary = %q", vary)
	}
	if xp := rec.Header().Get("X-Personalized"); xp != "false" {
		t.Errorf("X-Personalized = %q", xp)
	}
	// No items, no ETag.
	if etag := rec.Header().Get("ETag"); etag != "" {
		t.Errorf("empty feed must not emit ETag, got %q", etag)
	}
}

func TestFeedNotModified(t *testing.T) {
	h := personalizedServer(t)

	first := doFeed(t, h, "/v1/feed?user_hash=user_sporty", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", first.Code)
	}
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on first response")
	}

	second := doFeed(t, h, "/v1/feed?user_hash=user_sporty", map[string]string{"If-None-Match": etag})
	if second.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", second.Code)
	}
	if second.Body.Len() != 0 {
		t.Errorf("304 must have empty body, got %q", second.Body.String())
	}
	if got := second.Header().Get("ETag"); got != etag {
		t.Errorf("304 should retain the ETag, got %q", got)
	}
}

func TestFeedETagChangesWithOrder(t *testing.T) {
	a := computeETag([]models.FeedItem{{ID: "v1"}, {ID: "v2"}})
	b := computeETag([]models.FeedItem{{ID: "v2"}, {ID: "v1"}})
	c := computeETag([]models.FeedItem{{ID: "v1"}, {ID: "v2"}})

	if a == b {
		t.Error("different id order must change the ETag")
	}
	if a != c {
		t.Error("identical id sequences must produce identical ETags")
	}
	if computeETag(nil) != "" {
		t.Error("empty item list must produce no ETag")
	}
}

func TestFeedValidation(t *testing.T) {
	h := personalizedServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing user_hash", "/v1/feed"},
		{"zero limit", "/v1/feed?user_hash=u&limit=0"},
		{"negative limit", "/v1/feed?user_hash=u&limit=-3"},
		{"non-numeric limit", "/v1/feed?user_hash=u&limit=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doFeed(t, h, tt.target, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var errResp models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if errResp.Error.Code != models.ErrCodeValidation {
				t.Errorf("code = %s", errResp.Error.Code)
			}
		})
	}
}

func TestFeedLimitAboveMaxRejected(t *testing.T) {
	h := personalizedServer(t)

	rec := doFeed(t, h, "/v1/feed?user_hash=user_new&limit=100", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit above the configured maximum must be rejected, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if errResp.Error.Code != models.ErrCodeValidation {
		t.Errorf("code = %s", errResp.Error.Code)
	}
	if !strings.Contains(errResp.Error.Message, "at most 50") {
		t.Errorf("message should name the configured bound, got %q", errResp.Error.Message)
	}

	// The bound itself is still accepted.
	rec = doFeed(t, h, "/v1/feed?user_hash=user_new&limit=50", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("limit at the maximum must pass, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFeedPagination(t *testing.T) {
	h := personalizedServer(t)

	first := decodeFeed(t, doFeed(t, h, "/v1/feed?user_hash=user_new&limit=2", nil))
	if !first.HasMore || first.NextCursor == "" {
		t.Fatalf("expected more pages, got %+v", first)
	}

	second := decodeFeed(t, doFeed(t, h, "/v1/feed?user_hash=user_new&limit=2&cursor="+first.NextCursor, nil))
	if len(second.Items) == 0 {
		t.Fatal("second page empty")
	}
	if second.Items[0].ID == first.Items[0].ID {
		t.Error("second page must not repeat the first page")
	}
}

func TestKillSwitchEndToEnd(t *testing.T) {
	h := testServer(t, config.FeaturesConfig{
		PersonalizationEnabled: true,
		KillSwitchActive:       true,
		RolloutPercentage:      100,
	})

	rec := doFeed(t, h, "/v1/feed?user_hash=user_sporty", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeFeed(t, rec)
	if resp.IsPersonalized {
		t.Error("kill switch must disable personalization")
	}
	if resp.Degraded {
		t.Error("kill switch fallback is intentional, not degraded")
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := personalizedServer(t)

	rec := doFeed(t, h, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = doFeed(t, h, "/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}
	var ready struct {
		CircuitBreaker struct {
			Name  string `json:"name"`
			State string `json:"state"`
		} `json:"circuit_breaker"`
		FeatureFlags struct {
			PersonalizationEnabled bool `json:"personalization_enabled"`
			KillSwitchActive       bool `json:"kill_switch_active"`
		} `json:"feature_flags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ready); err != nil {
		t.Fatalf("invalid ready body: %v", err)
	}
	if ready.CircuitBreaker.State != "closed" {
		t.Errorf("breaker state = %s", ready.CircuitBreaker.State)
	}
	if !ready.FeatureFlags.PersonalizationEnabled || ready.FeatureFlags.KillSwitchActive {
		t.Errorf("unexpected flags: %+v", ready.FeatureFlags)
	}
}

func TestNotFoundShape(t *testing.T) {
	h := personalizedServer(t)

	rec := doFeed(t, h, "/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var errResp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if errResp.Error.Code != models.ErrCodeNotFound {
		t.Errorf("code = %s", errResp.Error.Code)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	signals := repository.NewMemoryUserSignals(cache.New(time.Minute))
	candidates := repository.NewMemoryCandidates(cache.New(time.Minute), cache.New(time.Minute), 3)
	configs := repository.NewMemoryTenantConfigs(cache.New(time.Minute))
	repository.SeedDemoData(signals, candidates, configs, time.Now())

	features := config.FeaturesConfig{PersonalizationEnabled: true, RolloutPercentage: 100}
	settings := config.NewSettings(features)
	evaluator := flags.NewEvaluator(settings)
	service := feed.NewService(
		signals, candidates, configs, evaluator, settings,
		feed.EngineRanker{Engine: ranking.NewEngine()},
		breaker.New[ranking.Result]("api_rate_test", 3, time.Minute),
		config.BudgetsConfig{RankingTimeoutMS: 1000, CacheTimeoutMS: 1000, SignalStoreTimeoutMS: 1000},
		200,
	)
	handlers := NewHandlers(service, evaluator, settings, config.FeedConfig{DefaultLimit: 20, MaxLimit: 50, DefaultTenant: "tenant_sports"})
	h := NewRouter(handlers, config.RateLimitConfig{Enabled: true, RequestsPerSec: 2, WindowSec: 1})

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = doFeed(t, h, "/v1/feed?user_hash=user_hot", nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	var errResp models.ErrorResponse
	if err := json.Unmarshal(last.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if errResp.Error.Code != models.ErrCodeRateLimit {
		t.Errorf("code = %s", errResp.Error.Code)
	}
}
