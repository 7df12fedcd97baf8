package models

import "time"

// FilterStatus is the pump/filter state machine position.
type FilterStatus string

const (
	FilterIdle     FilterStatus = "idle"
	FilterRunning  FilterStatus = "running"
	FilterCleaning FilterStatus = "cleaning"
	// FilterError is reserved for fault injection; no modeled transition reaches it.
	FilterError FilterStatus = "error"
)

// PumpState is the current snapshot of the filter pump.
type PumpState struct {
	PumpSpeed        int          `json:"pumpSpeed"`    // percent, 0..100
	FilterStatus     FilterStatus `json:"filterStatus"` // idle | running | cleaning | error
	FilterHealth     float64      `json:"filterHealth"` // percent, 0..100
	LastCleaningTime time.Time    `json:"lastCleaningTime"`
}

// ActuatorState is the snapshot of the speed-only mock actuator.
type ActuatorState struct {
	PumpSpeed int              `json:"pumpSpeed"`
	Running   bool             `json:"running"`
	Link      ConnectionHealth `json:"link"`
}

// ClampSpeed coerces a requested speed into [0,100].
func ClampSpeed(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
