package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/notify"
	"aquarium_wot/internal/repository"
)

// EventBus journals, publishes and fans out Thing events.
// Slow subscribers lose events rather than block the emitter.
type EventBus struct {
	mu      sync.Mutex
	subs    map[int]chan models.ThingEvent
	nextID  int
	repo    repository.EventRepo
	pub     notify.Publisher
	prefix  string
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewEventBus(repo repository.EventRepo, pub notify.Publisher, topicPrefix string, m *metrics.Metrics, log *logger.Logger) *EventBus {
	if pub == nil {
		pub = notify.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EventBus{
		subs:    make(map[int]chan models.ThingEvent),
		repo:    repo,
		pub:     pub,
		prefix:  topicPrefix,
		metrics: m,
		log:     log,
	}
}

// Emit stamps e with an ID and time when missing and delivers it.
// Delivery failures are logged, never returned.
func (b *EventBus) Emit(ctx context.Context, e models.ThingEvent) models.ThingEvent {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	if e.Journaled() && b.repo != nil {
		if err := b.repo.Append(ctx, e); err != nil {
			b.log.Warnw("event_journal_failed", "type", e.Type, "thing", e.Thing, "error", err)
		}
	}

	if payload, err := json.Marshal(e); err == nil {
		if err := b.pub.Publish(notify.Topic(b.prefix, e.Thing, e.Type), payload); err != nil {
			b.log.Debugw("event_publish_failed", "type", e.Type, "thing", e.Thing, "error", err)
		}
	}
	b.metrics.EventEmitted(e.Thing, e.Type)

	b.mu.Lock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	b.mu.Unlock()
	return e
}

// Subscribe returns a buffered stream of events and its cancel func.
// Cancel closes the channel and may be called more than once.
func (b *EventBus) Subscribe(buffer int) (<-chan models.ThingEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan models.ThingEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}
