package service

import (
	"context"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/peer"
)

// peerLink couples a connection policy with the notifications it raises.
// Only reachability transitions produce events and info logs.
type peerLink struct {
	health  *peer.Health
	thing   string
	bus     *EventBus
	metrics *metrics.Metrics
	log     *logger.Logger
}

func newPeerLink(name, thing string, bus *EventBus, m *metrics.Metrics, log *logger.Logger) *peerLink {
	return &peerLink{
		health:  peer.NewHealth(name),
		thing:   thing,
		bus:     bus,
		metrics: m,
		log:     log,
	}
}

func (l *peerLink) due(now time.Time) bool { return l.health.Due(now) }

func (l *peerLink) ok(ctx context.Context, now time.Time) {
	l.metrics.ObservePeer(l.health.Name(), true)
	if !l.health.Succeeded(now) {
		return
	}
	l.log.Infow("peer_restored", "link", l.health.Name())
	l.emit(ctx, models.EventPeerRestored, "peer reachable again", nil)
}

func (l *peerLink) fail(ctx context.Context, now time.Time, err error) {
	l.metrics.ObservePeer(l.health.Name(), false)
	lost := l.health.Failed(now)
	snap := l.health.Snapshot()
	if !lost {
		l.log.Debugw("peer_retry_deferred", "link", snap.Peer, "retry_delay_ms", snap.RetryDelayMs, "error", err)
		return
	}
	l.log.Warnw("peer_lost", "link", snap.Peer, "next_retry_at", snap.NextRetryAt, "error", err)
	l.emit(ctx, models.EventPeerLost, "peer unreachable", err)
}

// record reports the outcome of one remote operation.
func (l *peerLink) record(ctx context.Context, now time.Time, err error) {
	if err != nil {
		l.fail(ctx, now, err)
		return
	}
	l.ok(ctx, now)
}

func (l *peerLink) snapshot() models.ConnectionHealth { return l.health.Snapshot() }

func (l *peerLink) emit(ctx context.Context, typ, desc string, cause error) {
	if l.bus == nil {
		return
	}
	meta := map[string]any{"link": l.health.Name()}
	if cause != nil {
		meta["error"] = cause.Error()
	}
	l.bus.Emit(ctx, models.ThingEvent{
		Thing:       l.thing,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
}
