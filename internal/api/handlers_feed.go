// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package api

import (
	"crypto/md5" //nolint:gosec // cache validator, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vidfeed/vidfeed/internal/config"
	"github.com/vidfeed/vidfeed/internal/feed"
	"github.com/vidfeed/vidfeed/internal/flags"
	"github.com/vidfeed/vidfeed/internal/logging"
	"github.com/vidfeed/vidfeed/internal/models"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	service   *feed.Service
	evaluator *flags.Evaluator
	settings  *config.Settings

	defaultLimit  int
	maxLimit      int
	defaultTenant string
}

// NewHandlers creates the handler set.
func NewHandlers(service *feed.Service, evaluator *flags.Evaluator, settings *config.Settings, feedCfg config.FeedConfig) *Handlers {
	return &Handlers{
		service:       service,
		evaluator:     evaluator,
		settings:      settings,
		defaultLimit:  feedCfg.DefaultLimit,
		maxLimit:      feedCfg.MaxLimit,
		defaultTenant: feedCfg.DefaultTenant,
	}
}

// Feed handles GET /v1/feed.
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	req, verr := h.parseFeedRequest(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	resp, err := h.service.GetFeed(r.Context(), req.TenantID, req.UserHash, req.Limit, req.Cursor)
	if err != nil {
		if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
			// Client went away; nothing useful to write.
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("feed request failed beyond fallback")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal,
			"Feed temporarily unavailable", nil)
		return
	}

	etag := computeETag(resp.Items)
	if etag != "" {
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			setCacheHeaders(w, resp)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	setCacheHeaders(w, resp)
	respondJSON(w, http.StatusOK, resp)
}

// setCacheHeaders emits Cache-Control, Vary and X-Personalized.
// Personalized responses are private per user; fallback and degraded
// responses are shared and may be served stale while revalidating.
func setCacheHeaders(w http.ResponseWriter, resp models.FeedResponse) {
	if resp.IsPersonalized && !resp.Degraded {
		w.Header().Set("Cache-Control", "private, max-age=30")
		w.Header().Set("Vary", "X-User-Hash")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=30, stale-while-revalidate=15")
		w.Header().Set("Vary", "Accept-Encoding")
	}
	w.Header().Set("X-Personalized", fmt.Sprintf("%t", resp.IsPersonalized))
}

// computeETag returns a weak ETag derived from the item ID sequence:
// W/"{first 16 hex digits of MD5 of the concatenated ids}". Empty item
// lists produce no ETag.
func computeETag(items []models.FeedItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.ID)
	}
	sum := md5.Sum([]byte(b.String())) //nolint:gosec // see import comment
	return fmt.Sprintf(`W/"%s"`, hex.EncodeToString(sum[:])[:16])
}
