// Package peer tracks reachability of remote Things and decides when the next
// attempt is due, using capped exponential backoff.
package peer

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"aquarium_wot/internal/models"
)

const (
	InitialRetryDelay = 1 * time.Second
	MaxRetryDelay     = 15 * time.Second
	retryMultiplier   = 2.0
)

// Health is the connection state of one peer link.
// Before each remote operation callers ask Due; afterwards they report
// Succeeded or Failed. Both return true only on a reachability transition.
type Health struct {
	mu          sync.Mutex
	name        string
	reachable   bool
	retryDelay  time.Duration
	nextRetryAt time.Time
	bo          *backoff.ExponentialBackOff
}

// NewHealth returns a reachable link that attempts immediately.
func NewHealth(name string) *Health {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = InitialRetryDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = retryMultiplier
	bo.MaxInterval = MaxRetryDelay
	bo.MaxElapsedTime = 0 // never give up
	bo.Reset()

	return &Health{
		name:       name,
		reachable:  true,
		retryDelay: InitialRetryDelay,
		bo:         bo,
	}
}

// Name returns the link name, e.g. "pump->water".
func (h *Health) Name() string { return h.name }

// Due reports whether a remote attempt may be made at now.
// A false result is "not yet due", not a failure.
func (h *Health) Due(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextRetryAt.IsZero() || !now.Before(h.nextRetryAt)
}

// Succeeded records a successful contact. Returns true when the link was
// previously unreachable.
func (h *Health) Succeeded(_ time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	restored := !h.reachable
	h.reachable = true
	h.bo.Reset()
	h.retryDelay = InitialRetryDelay
	h.nextRetryAt = time.Time{}
	return restored
}

// Failed records a failed contact: the next attempt is deferred by the current
// delay and the delay doubles up to MaxRetryDelay. Returns true when the link
// was previously reachable.
func (h *Health) Failed(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lost := h.reachable
	h.reachable = false
	wait := h.bo.NextBackOff()
	h.nextRetryAt = now.Add(wait)

	// peek at the following interval without advancing the real sequence
	next := *h.bo
	h.retryDelay = next.NextBackOff()
	return lost
}

// Reachable reports the last known reachability.
func (h *Health) Reachable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reachable
}

// RetryDelay is the deferral the next failure will apply.
func (h *Health) RetryDelay() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retryDelay
}

// Snapshot returns the observable state.
func (h *Health) Snapshot() models.ConnectionHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	return models.ConnectionHealth{
		Peer:         h.name,
		Reachable:    h.reachable,
		RetryDelayMs: h.retryDelay.Milliseconds(),
		NextRetryAt:  h.nextRetryAt,
	}
}
