package notify

import (
	"errors"
	"sync"

	"aquarium_wot/internal/logger"
)

var (
	ErrQueueFull = errors.New("publish queue full")
	ErrClosed    = errors.New("publisher closed")
)

// DefaultQueueSize bounds the events waiting for a slow broker.
const DefaultQueueSize = 256

type message struct {
	topic   string
	payload []byte
}

// Async hands events to a background goroutine so a slow broker never
// stalls the caller. When the queue is full the event is dropped.
type Async struct {
	inner Publisher
	log   *logger.Logger

	mu     sync.Mutex
	closed bool
	queue  chan message
	done   chan struct{}
}

func NewAsync(inner Publisher, size int, log *logger.Logger) *Async {
	if log == nil {
		log = logger.Nop()
	}
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		inner: inner,
		log:   log,
		queue: make(chan message, size),
		done:  make(chan struct{}),
	}
	go a.drain()
	return a
}

// Publish enqueues without blocking.
func (a *Async) Publish(topic string, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- message{topic: topic, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes queued events, then closes the wrapped publisher.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for m := range a.queue {
		if err := a.inner.Publish(m.topic, m.payload); err != nil {
			a.log.Debugw("event_publish_failed", "topic", m.topic, "error", err)
		}
	}
}
