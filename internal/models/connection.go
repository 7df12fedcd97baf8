package models

import "time"

// ConnectionHealth is the observable retry state of one peer link.
type ConnectionHealth struct {
	Peer         string    `json:"peer"`
	Reachable    bool      `json:"reachable"`
	RetryDelayMs int64     `json:"retryDelayMs"`
	NextRetryAt  time.Time `json:"nextRetryAt,omitempty"` // zero: always attempt
}
