// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package flags implements feature gating for personalization.
//
// Evaluation order is strict: the kill switch wins over everything, then
// the global enable flag, then percentage rollout bucketing. Bucketing is
// deterministic per user so a user's experience is stable across requests
// and across instances: bucket = first 4 bytes of MD5(user_hash),
// big-endian, mod 100. MD5 is used for bucket uniformity, not security.
//
// The evaluator holds no state of its own: every decision reads the
// runtime settings cell, so operator changes (kill switch, rollout
// percentage) take effect on the next request.
package flags

import (
	"crypto/md5" //nolint:gosec // non-cryptographic use: stable bucket assignment
	"encoding/binary"
)

// Source exposes the live feature-flag state the evaluator reads.
// *config.Settings is the production implementation.
type Source interface {
	PersonalizationEnabled() bool
	KillSwitchActive() bool
	RolloutPercentage() int
}

// Evaluator decides whether personalization is active for a given user.
// Safe for concurrent use; it is a stateless view over its Source.
type Evaluator struct {
	settings Source
}

// NewEvaluator creates an evaluator reading flag state from settings.
func NewEvaluator(settings Source) *Evaluator {
	return &Evaluator{settings: settings}
}

// PersonalizationActive reports whether the given user receives a
// personalized feed.
//
// Precedence:
//  1. kill switch active -> always off
//  2. personalization globally disabled -> off
//  3. user's bucket < rollout percentage -> on
func (e *Evaluator) PersonalizationActive(userHash string) bool {
	if e.settings.KillSwitchActive() {
		return false
	}
	if !e.settings.PersonalizationEnabled() {
		return false
	}
	return Bucket(userHash) < e.settings.RolloutPercentage()
}

// Enabled reports the global personalization flag, ignoring rollout.
func (e *Evaluator) Enabled() bool {
	return e.settings.PersonalizationEnabled() && !e.settings.KillSwitchActive()
}

// KillSwitchActive reports whether the kill switch is engaged.
func (e *Evaluator) KillSwitchActive() bool {
	return e.settings.KillSwitchActive()
}

// RolloutPercentage returns the current rollout percentage.
func (e *Evaluator) RolloutPercentage() int {
	return e.settings.RolloutPercentage()
}

// Bucket maps a user hash to a stable bucket in [0, 99].
func Bucket(userHash string) int {
	sum := md5.Sum([]byte(userHash)) //nolint:gosec // see package comment
	return int(binary.BigEndian.Uint32(sum[:4]) % 100)
}
