// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package config

import (
	"sync/atomic"

	"github.com/vidfeed/vidfeed/internal/logging"
)

// Settings is the runtime-mutable slice of the configuration: the
// personalization flags that operators flip without a restart. It is the
// single source of truth for flag state; the gate evaluator and the
// readiness endpoint both read it. Reads are lock-free (one atomic load
// each) because they sit on the request hot path.
type Settings struct {
	personalizationEnabled atomic.Bool
	killSwitchActive       atomic.Bool
	rolloutPercentage      atomic.Int64
}

// NewSettings seeds a Settings cell from startup configuration. The
// rollout percentage is clamped to [0, 100].
func NewSettings(features FeaturesConfig) *Settings {
	s := &Settings{}
	s.personalizationEnabled.Store(features.PersonalizationEnabled)
	s.killSwitchActive.Store(features.KillSwitchActive)
	s.rolloutPercentage.Store(int64(clampPercentage(features.RolloutPercentage)))
	return s
}

// PersonalizationEnabled reports the master personalization flag.
func (s *Settings) PersonalizationEnabled() bool {
	return s.personalizationEnabled.Load()
}

// SetPersonalizationEnabled updates the master personalization flag.
func (s *Settings) SetPersonalizationEnabled(v bool) {
	if s.personalizationEnabled.Swap(v) != v {
		logging.Info().Bool("enabled", v).Msg("personalization flag changed")
	}
}

// KillSwitchActive reports whether the kill switch is engaged.
func (s *Settings) KillSwitchActive() bool {
	return s.killSwitchActive.Load()
}

// SetKillSwitchActive engages or releases the kill switch.
func (s *Settings) SetKillSwitchActive(v bool) {
	if s.killSwitchActive.Swap(v) != v {
		logging.Warn().Bool("active", v).Msg("personalization kill switch toggled")
	}
}

// RolloutPercentage returns the rollout percentage.
func (s *Settings) RolloutPercentage() int {
	return int(s.rolloutPercentage.Load())
}

// SetRolloutPercentage updates the rollout percentage, clamped to
// [0, 100].
func (s *Settings) SetRolloutPercentage(pct int) {
	pct = clampPercentage(pct)
	if old := s.rolloutPercentage.Swap(int64(pct)); old != int64(pct) {
		logging.Info().
			Int64("old", old).
			Int("new", pct).
			Msg("personalization rollout percentage changed")
	}
}

func clampPercentage(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
