// Package notify fans Thing events out to external subscribers.
package notify

import (
	"strings"
)

// Publisher sends a serialized event to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// Topic builds "<prefix>/<thing>/<event type>" with the type lowercased,
// e.g. "aquarium/sensor/status_change".
func Topic(prefix, thing, eventType string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	thing = strings.ToLower(strings.TrimSpace(thing))
	if thing == "" {
		thing = "system"
	}
	parts = append(parts, thing, strings.ToLower(strings.TrimSpace(eventType)))
	return strings.Join(parts, "/")
}

// Nop discards everything. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(string, []byte) error { return nil }
func (Nop) Close()                       {}
