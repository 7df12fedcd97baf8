package models

import "time"

// Sample is one sensor sampling result.
type Sample struct {
	ID        int64                      `json:"id,omitempty"`
	SampledAt time.Time                  `json:"sampled_at"`
	Values    WaterParameterSet          `json:"values"`
	Statuses  map[string]ParameterStatus `json:"statuses"`
}

// SensorReading is the sensor's read surface: latest values, statuses and sample time.
type SensorReading struct {
	Values        WaterParameterSet          `json:"values"`
	Statuses      map[string]ParameterStatus `json:"statuses"`
	OverallStatus ParameterStatus            `json:"overallStatus"`
	Timestamp     time.Time                  `json:"timestamp"`
}
