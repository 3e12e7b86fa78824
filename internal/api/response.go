// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package api implements the HTTP edge: the feed endpoint with its
// conditional-request and cache-control semantics, health endpoints,
// and the Prometheus metrics exposition.
package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/vidfeed/vidfeed/internal/logging"
	"github.com/vidfeed/vidfeed/internal/models"
)

// respondJSON writes a JSON payload with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes an error response in the {error:{code,message,
// details}} shape.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, models.ErrorResponse{
		Error: models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
