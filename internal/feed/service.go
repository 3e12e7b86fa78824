// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package feed orchestrates the personalization flow: feature gates,
// concurrent repository fetches, ranking behind a circuit breaker, and
// graceful degradation to a fallback feed.
//
// The contract is "never 5xx unless the fallback itself fails": every
// failure inside ranking or a repository fetch is absorbed into a
// non-personalized response.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidfeed/vidfeed/internal/breaker"
	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/flags"
	"github.com/vidfeed/vidfeed/internal/logging"
	"github.com/vidfeed/vidfeed/internal/metrics"
	"github.com/vidfeed/vidfeed/internal/models"
	"github.com/vidfeed/vidfeed/internal/ranking"
	"github.com/vidfeed/vidfeed/internal/repository"
)

// Ranker abstracts the ranking engine so the service (and its tests)
// can treat ranking as a fallible dependency behind the breaker.
type Ranker interface {
	Rank(
		candidates []models.VideoMetadata,
		user models.UserSignals,
		config models.TenantRankingRules,
		limit int,
		cursor string,
	) (ranking.Result, error)
}

// EngineRanker adapts ranking.Engine to the Ranker interface.
type EngineRanker struct {
	Engine *ranking.Engine
}

// Rank delegates to the engine. The engine itself is infallible; errors
// enter this path only through alternative Ranker implementations.
func (r EngineRanker) Rank(
	candidates []models.VideoMetadata,
	user models.UserSignals,
	config models.TenantRankingRules,
	limit int,
	cursor string,
) (ranking.Result, error) {
	return r.Engine.Rank(candidates, user, config, limit, cursor), nil
}

// Service coordinates the personalized feed flow.
type Service struct {
	signals    repository.UserSignalRepository
	candidates repository.CandidateRepository
	configs    repository.TenantConfigRepository

	evaluator *flags.Evaluator
	settings  *config.Settings
	ranker    Ranker
	breaker   *breaker.Breaker[ranking.Result]

	budgets       config.BudgetsConfig
	maxCandidates int
	now           func() time.Time
}

// NewService wires the feed orchestrator.
func NewService(
	signals repository.UserSignalRepository,
	candidates repository.CandidateRepository,
	configs repository.TenantConfigRepository,
	evaluator *flags.Evaluator,
	settings *config.Settings,
	ranker Ranker,
	cb *breaker.Breaker[ranking.Result],
	budgets config.BudgetsConfig,
	maxCandidates int,
) *Service {
	if maxCandidates < 1 {
		maxCandidates = 200
	}
	return &Service{
		signals:       signals,
		candidates:    candidates,
		configs:       configs,
		evaluator:     evaluator,
		settings:      settings,
		ranker:        ranker,
		breaker:       cb,
		budgets:       budgets,
		maxCandidates: maxCandidates,
		now:           time.Now,
	}
}

// Breaker exposes the ranking circuit breaker for health reporting.
func (s *Service) Breaker() *breaker.Breaker[ranking.Result] {
	return s.breaker
}

// GetFeed returns the feed for a user within a tenant.
//
// An intentional gate (kill switch, feature off, rollout exclusion)
// yields the fallback feed with degraded=false. A failure (repository
// error, empty pool, ranking error, open breaker) yields the fallback
// with degraded=true. An error return means even the fallback could not
// be built; the HTTP layer maps that to a 500.
func (s *Service) GetFeed(ctx context.Context, tenantID, userHash string, limit int, cursor string) (models.FeedResponse, error) {
	start := s.now()

	if !s.personalizationActive(tenantID, userHash) {
		resp, err := s.fallbackFeed(ctx, tenantID, limit, false)
		if err != nil {
			return models.FeedResponse{}, err
		}
		metrics.RecordFeedRequest(tenantID, "fallback", len(resp.Items))
		return resp, nil
	}

	resp, err := s.personalizedFeed(ctx, tenantID, userHash, limit, cursor)
	if err != nil {
		if ctx.Err() != nil {
			// Client abandoned the request; no fallback needed.
			return models.FeedResponse{}, ctx.Err()
		}
		logging.Ctx(ctx).Error().
			Err(err).
			Str("tenant", tenantID).
			Msg("personalization failed, serving degraded fallback")

		resp, ferr := s.fallbackFeed(ctx, tenantID, limit, true)
		if ferr != nil {
			return models.FeedResponse{}, fmt.Errorf("fallback after personalization failure: %w", ferr)
		}
		metrics.RecordFeedRequest(tenantID, "degraded", len(resp.Items))
		return resp, nil
	}

	outcome := "personalized"
	if resp.Degraded {
		outcome = "degraded"
	}
	metrics.RecordFeedRequest(tenantID, outcome, len(resp.Items))

	logging.Ctx(ctx).Info().
		Str("tenant", tenantID).
		Str("user", truncateHash(userHash)).
		Int("items", len(resp.Items)).
		Bool("personalized", resp.IsPersonalized).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("feed served")

	return resp, nil
}

// personalizationActive applies the feature gate and the secondary
// rollout gate. Both use the same stable bucketing so a user's
// experience is consistent across instances.
func (s *Service) personalizationActive(tenantID, userHash string) bool {
	if !s.evaluator.PersonalizationActive(userHash) {
		logging.Info().
			Str("tenant", tenantID).
			Str("user", truncateHash(userHash)).
			Msg("personalization disabled by feature gate")
		return false
	}
	if flags.Bucket(userHash) >= s.settings.RolloutPercentage() {
		logging.Info().
			Str("user", truncateHash(userHash)).
			Msg("user excluded from personalization by rollout")
		return false
	}
	return true
}

// fetchResult carries the outputs of the concurrent repository fetches.
type fetchResult struct {
	signals    models.UserSignals
	candidates []models.VideoMetadata
	rules      models.TenantRankingRules
}

// fetchInputs launches the three repository fetches concurrently, each
// under its own latency budget.
//
// Failure handling is asymmetric: missing signals or config degrade to
// neutral defaults (personalization still works, just weaker), while a
// candidate fetch failure aborts, because there is nothing to rank.
func (s *Service) fetchInputs(ctx context.Context, tenantID, userHash string) (fetchResult, error) {
	var out fetchResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(gctx, s.budgets.SignalStoreTimeout())
		defer cancel()

		signals, err := s.signals.GetSignals(sctx, userHash)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("signal fetch failed, using cold start")
			out.signals = models.EmptySignals(userHash)
			return nil
		}
		out.signals = signals
		return nil
	})

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.budgets.CacheTimeout())
		defer cancel()

		candidates, err := s.candidates.GetCandidates(cctx, tenantID)
		if err != nil {
			return fmt.Errorf("candidate fetch: %w", err)
		}
		out.candidates = candidates
		return nil
	})

	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.budgets.CacheTimeout())
		defer cancel()

		rules, ok, err := s.configs.GetConfig(cctx, tenantID)
		if err != nil || !ok {
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("tenant config fetch failed, using defaults")
			}
			out.rules = s.configs.DefaultConfig(tenantID)
			return nil
		}
		out.rules = rules
		return nil
	})

	if err := g.Wait(); err != nil {
		return fetchResult{}, err
	}
	return out, nil
}

// errEmptyPool distinguishes "no candidates" from fetch failures; both
// degrade, but the log lines differ.
var errEmptyPool = fmt.Errorf("no candidates for tenant")

// personalizedFeed executes the full personalization flow. Errors
// bubble to GetFeed, which substitutes the degraded fallback.
func (s *Service) personalizedFeed(ctx context.Context, tenantID, userHash string, limit int, cursor string) (models.FeedResponse, error) {
	in, err := s.fetchInputs(ctx, tenantID, userHash)
	if err != nil {
		return models.FeedResponse{}, err
	}
	if len(in.candidates) == 0 {
		return models.FeedResponse{}, fmt.Errorf("%w %s", errEmptyPool, tenantID)
	}

	candidates := in.candidates
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	usedFallback := false
	result, err := s.breaker.Call(
		func() (ranking.Result, error) {
			return s.rankWithBudget(candidates, in.signals, in.rules, limit, cursor)
		},
		func() (ranking.Result, error) {
			usedFallback = true
			return s.inlineFallback(candidates, limit), nil
		},
	)
	if err != nil {
		return models.FeedResponse{}, fmt.Errorf("ranking: %w", err)
	}

	return models.FeedResponse{
		Items:          result.Items,
		NextCursor:     result.NextCursor,
		HasMore:        result.HasMore,
		IsPersonalized: !usedFallback,
		Degraded:       usedFallback,
	}, nil
}

// errRankingBudget marks a rank call that exceeded its latency budget.
// It flows through the breaker as an ordinary failure, so a slow ranker
// trips the breaker the same way a broken one does.
var errRankingBudget = fmt.Errorf("ranking exceeded latency budget")

// rankWithBudget runs the ranker under the configured ranking budget.
// The rank call itself is CPU-bound and not cancellable; on timeout the
// result of the stray goroutine is discarded.
func (s *Service) rankWithBudget(
	candidates []models.VideoMetadata,
	user models.UserSignals,
	rules models.TenantRankingRules,
	limit int,
	cursor string,
) (ranking.Result, error) {
	type rankOutcome struct {
		result ranking.Result
		err    error
	}
	ch := make(chan rankOutcome, 1)
	go func() {
		result, err := s.ranker.Rank(candidates, user, rules, limit, cursor)
		ch <- rankOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(s.budgets.RankingTimeout())
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.result, out.err
	case <-timer.C:
		return ranking.Result{}, fmt.Errorf("%w (%s)", errRankingBudget, s.budgets.RankingTimeout())
	}
}

// inlineFallback sorts the already-fetched candidates by popularity and
// wraps the top entries as feed items. Used when the breaker rejects or
// ranking fails mid-request; no editorial boosts, no user filters.
func (s *Service) inlineFallback(candidates []models.VideoMetadata, limit int) ranking.Result {
	top := make([]models.VideoMetadata, len(candidates))
	copy(top, candidates)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > limit {
		top = top[:limit]
	}

	ts := s.now().Unix()
	items := make([]models.FeedItem, 0, len(top))
	for _, video := range top {
		items = append(items, models.FeedItem{
			ID:            video.ID,
			Title:         video.Title,
			PlaybackURL:   fmt.Sprintf("https://cdn.example.com/v/%s.m3u8", video.ID),
			TrackingToken: fmt.Sprintf("cb_fallback_%s_%d", video.ID, ts),
			DebugScore:    video.Score,
		})
	}
	return ranking.Result{Items: items}
}

// fallbackFeed serves the pre-computed non-personalized feed.
func (s *Service) fallbackFeed(ctx context.Context, tenantID string, limit int, degraded bool) (models.FeedResponse, error) {
	videos, err := s.candidates.GetFallbackFeed(ctx, tenantID)
	if err != nil {
		return models.FeedResponse{}, fmt.Errorf("fallback feed fetch: %w", err)
	}
	if len(videos) > limit {
		videos = videos[:limit]
	}

	ts := s.now().Unix()
	items := make([]models.FeedItem, 0, len(videos))
	for _, video := range videos {
		items = append(items, models.FeedItem{
			ID:            video.ID,
			Title:         video.Title,
			PlaybackURL:   fmt.Sprintf("https://cdn.example.com/v/%s.m3u8", video.ID),
			TrackingToken: fmt.Sprintf("fallback_%s_%d", video.ID, ts),
			DebugScore:    video.Score,
		})
	}

	logging.Ctx(ctx).Info().
		Str("tenant", tenantID).
		Int("items", len(items)).
		Bool("degraded", degraded).
		Msg("fallback feed served")

	return models.FeedResponse{
		Items:          items,
		HasMore:        false,
		IsPersonalized: false,
		Degraded:       degraded,
	}, nil
}

// truncateHash shortens user hashes for log lines.
func truncateHash(userHash string) string {
	if len(userHash) <= 8 {
		return userHash
	}
	return userHash[:8] + "..."
}
