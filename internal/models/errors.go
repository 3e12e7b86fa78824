// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package models

// Machine-readable error codes surfaced in API error responses.
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeCircuitOpen    = "CIRCUIT_BREAKER_OPEN"
	ErrCodeRanking        = "RANKING_ERROR"
	ErrCodeCache          = "CACHE_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeMethodNotAllow = "METHOD_NOT_ALLOWED"
)

// APIError is the error payload inside an ErrorResponse.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the JSON body for all non-2xx API responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}
