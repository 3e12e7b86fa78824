// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/metrics"
	"github.com/vidfeed/vidfeed/internal/middleware"
	"github.com/vidfeed/vidfeed/internal/models"
)

// NewRouter builds the HTTP routing tree.
func NewRouter(h *Handlers, rateCfg config.RateLimitConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID", "X-User-Hash", "If-None-Match"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Compress(5))

	r.Get("/health", h.Health)
	r.Get("/health/ready", h.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if rateCfg.Enabled {
			r.Use(feedRateLimiter(rateCfg))
		}
		r.Get("/feed", h.Feed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllow, "Method not allowed", nil)
	})

	return r
}

// feedRateLimiter throttles feed requests per caller. The key prefers
// the user hash so one hot user cannot starve an IP shared behind NAT;
// anonymous requests fall back to the client IP.
func feedRateLimiter(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	window := time.Duration(cfg.WindowSec) * time.Second
	if window <= 0 {
		window = time.Second
	}
	limit := cfg.RequestsPerSec * cfg.WindowSec
	if limit < 1 {
		limit = cfg.RequestsPerSec
	}

	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userHash := r.URL.Query().Get("user_hash"); userHash != "" {
				return userHash, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			respondError(w, http.StatusTooManyRequests, models.ErrCodeRateLimit,
				"Too many requests, slow down", map[string]interface{}{
					"retry_after_sec": int(window.Seconds()),
				})
		}),
	)
}
