// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package api

import (
	"net/http"
)

// Health handles GET /health (liveness).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HealthReady handles GET /health/ready (readiness). The payload
// includes the ranking breaker state and the live feature-flag
// snapshot so operators can see gating at a glance.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	cb := h.service.Breaker()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"circuit_breaker": map[string]string{
			"name":  cb.Name(),
			"state": cb.StateName(),
		},
		"feature_flags": map[string]interface{}{
			"personalization_enabled": h.settings.PersonalizationEnabled(),
			"kill_switch_active":      h.settings.KillSwitchActive(),
			"rollout_percentage":      h.settings.RolloutPercentage(),
		},
	})
}
