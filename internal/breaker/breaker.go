// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

// Package breaker wraps sony/gobreaker with fallback dispatch for the
// ranking path. The breaker opens after a run of consecutive failures and
// probes recovery with a single call once the recovery timeout elapses.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for
// its recovery timeout. This is intentional for production resilience;
// tests use short timeouts rather than a mocked clock.
package breaker

import (
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vidfeed/vidfeed/internal/logging"
	"github.com/vidfeed/vidfeed/internal/metrics"
)

// ErrOpen is returned by Call when the circuit is open and no fallback
// was provided.
var ErrOpen = errors.New("circuit breaker open")

// Breaker protects a call path with a three-state circuit breaker.
//
// State machine (sony/gobreaker semantics, tuned for consecutive
// failures):
//   - closed: every success resets the consecutive failure count; once
//     the count reaches the failure threshold the circuit opens.
//   - open: calls short-circuit until the recovery timeout elapses, then
//     the next call runs as a half-open probe.
//   - half-open: a single probe is allowed; success closes the circuit,
//     failure reopens it and restarts the timeout.
//
// All state transitions are serialized inside gobreaker; the protected
// call itself runs outside any lock.
type Breaker[T any] struct {
	mu               sync.Mutex
	cb               *gobreaker.CircuitBreaker[T]
	name             string
	failureThreshold uint32
	recoveryTimeout  time.Duration
}

// New creates a breaker that opens after failureThreshold consecutive
// failures and probes recovery after recoveryTimeout.
func New[T any](name string, failureThreshold int, recoveryTimeout time.Duration) *Breaker[T] {
	if failureThreshold < 1 {
		failureThreshold = 1
	}

	b := &Breaker[T]{
		name:             name,
		failureThreshold: uint32(failureThreshold),
		recoveryTimeout:  recoveryTimeout,
	}
	b.cb = b.newCircuitBreaker()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(gobreaker.StateClosed))
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return b
}

// newCircuitBreaker builds the underlying gobreaker instance.
// MaxRequests=1 keeps half-open to a single probe, matching the
// one-call recovery semantics above.
func (b *Breaker[T]) newCircuitBreaker() *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        b.name,
		MaxRequests: 1,
		Timeout:     b.recoveryTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.failureThreshold
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
}

// current returns the active gobreaker instance.
func (b *Breaker[T]) current() *gobreaker.CircuitBreaker[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cb
}

// Call executes primary through the breaker.
//
// If the circuit is open (or the half-open probe slot is taken) the
// primary is skipped; the fallback runs instead, or ErrOpen is returned
// when no fallback is given. If the primary runs and fails, the failure
// is counted and the fallback (when present) supplies the result;
// otherwise the primary's error is returned.
func (b *Breaker[T]) Call(primary func() (T, error), fallback func() (T, error)) (T, error) {
	result, err := b.current().Execute(primary)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
		return result, nil
	}

	rejected := errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
	if rejected {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Str("breaker", b.name).Msg("circuit open, request rejected")
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.current().Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		logging.Warn().Str("breaker", b.name).Err(err).Msg("protected call failed")
	}

	if fallback != nil {
		return fallback()
	}

	var zero T
	if rejected {
		return zero, ErrOpen
	}
	return zero, err
}

// Name returns the breaker's name.
func (b *Breaker[T]) Name() string {
	return b.name
}

// State returns the current circuit state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.current().State()
}

// StateName returns the current state as a lowercase string for health
// endpoints: "closed", "half-open", or "open".
func (b *Breaker[T]) StateName() string {
	switch b.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Counts returns the underlying gobreaker counters.
func (b *Breaker[T]) Counts() gobreaker.Counts {
	return b.current().Counts()
}

// Reset returns the breaker to a fresh closed state by swapping in a new
// underlying instance. Used by tests and the admin reset path.
func (b *Breaker[T]) Reset() {
	b.mu.Lock()
	b.cb = b.newCircuitBreaker()
	b.mu.Unlock()

	logging.Info().Str("breaker", b.name).Msg("circuit breaker manually reset")
	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(stateToFloat(gobreaker.StateClosed))
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
}

// stateToFloat converts a circuit state to a numeric gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
