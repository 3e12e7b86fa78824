// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vidfeed/vidfeed/internal/validation"
)

// FeedRequest carries the validated inputs of GET /v1/feed. The upper
// bound on Limit comes from configuration, so it is checked in
// parseFeedRequest rather than hardcoded in a tag.
type FeedRequest struct {
	UserHash string `validate:"required,min=1"`
	Limit    int    `validate:"min=1"`
	Cursor   string
	TenantID string
}

// parseFeedRequest extracts and validates the feed request parameters.
// limit parse failures and range violations (including values above the
// configured maximum) are validation errors; an absent limit takes the
// configured default.
func (h *Handlers) parseFeedRequest(r *http.Request) (FeedRequest, *validation.RequestValidationError) {
	q := r.URL.Query()

	req := FeedRequest{
		UserHash: q.Get("user_hash"),
		Limit:    h.defaultLimit,
		Cursor:   q.Get("cursor"),
		TenantID: r.Header.Get("X-Tenant-ID"),
	}
	if req.TenantID == "" {
		req.TenantID = h.defaultTenant
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			// Force a range violation so the validator reports it
			// uniformly.
			limit = -1
		}
		req.Limit = limit
	}
	if req.Limit > h.maxLimit {
		return FeedRequest{}, validation.NewFieldError(
			"Limit", "max", strconv.Itoa(h.maxLimit), req.Limit,
			fmt.Sprintf("Limit must be at most %d", h.maxLimit),
		)
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		return FeedRequest{}, verr
	}
	return req, nil
}
