package models

import "time"

// Thing names.
const (
	ThingWater    = "water"
	ThingPump     = "pump"
	ThingSensor   = "sensor"
	ThingActuator = "actuator"
	ThingSystem   = "system"
)

// Event types. PROPERTY_CHANGE is streamed but never journaled.
const (
	EventPropertyChange = "PROPERTY_CHANGE"
	EventStatusChange   = "STATUS_CHANGE"
	EventConfigChange   = "CONFIG_CHANGE"
	EventAction         = "ACTION"
	EventCleaning       = "CLEANING"
	EventPeerLost       = "PEER_LOST"
	EventPeerRestored   = "PEER_RESTORED"
	EventWarning        = "WARNING"
)

// ThingEvent is a single notification raised by a Thing.
type ThingEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Thing       string    `json:"thing"`       // water | pump | sensor | actuator | system
	Type        string    `json:"type"`        // STATUS_CHANGE | CONFIG_CHANGE | ACTION | ...
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Journaled reports whether the event belongs in the event log.
func (e ThingEvent) Journaled() bool {
	return e.Type != EventPropertyChange
}
