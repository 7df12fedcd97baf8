package models

import (
	"math"
	"time"
)

// Water parameter names as exposed on the Thing surface and in the config document.
const (
	ParamPH          = "pH"
	ParamTemperature = "temperature"
	ParamOxygenLevel = "oxygenLevel"
)

// Parameters lists the water parameters in canonical order.
var Parameters = []string{ParamPH, ParamTemperature, ParamOxygenLevel}

// physicalBounds are the hard limits every stored value is clamped into.
var physicalBounds = map[string]Range{
	ParamPH:          {Min: 0, Max: 14},
	ParamTemperature: {Min: 0, Max: 40},
	ParamOxygenLevel: {Min: 0, Max: 20},
}

// WaterParameterSet is a snapshot of the simulated water chemistry.
type WaterParameterSet struct {
	PH          float64 `json:"pH"`          // 0..14
	Temperature float64 `json:"temperature"` // °C, 0..40
	OxygenLevel float64 `json:"oxygenLevel"` // mg/L, 0..20
}

// Get returns the value of the named parameter.
func (w WaterParameterSet) Get(name string) (float64, bool) {
	switch name {
	case ParamPH:
		return w.PH, true
	case ParamTemperature:
		return w.Temperature, true
	case ParamOxygenLevel:
		return w.OxygenLevel, true
	default:
		return 0, false
	}
}

// Set stores v under the named parameter. Returns false for unknown names.
func (w *WaterParameterSet) Set(name string, v float64) bool {
	switch name {
	case ParamPH:
		w.PH = v
	case ParamTemperature:
		w.Temperature = v
	case ParamOxygenLevel:
		w.OxygenLevel = v
	default:
		return false
	}
	return true
}

// IsParameter reports whether name is one of the water parameters.
func IsParameter(name string) bool {
	_, ok := physicalBounds[name]
	return ok
}

// PhysicalBounds returns the fixed physical range of a parameter.
func PhysicalBounds(name string) (Range, bool) {
	r, ok := physicalBounds[name]
	return r, ok
}

// ClampParameter coerces v into the physical range of the named parameter.
// NaN collapses to the lower bound; unknown names are returned unchanged.
func ClampParameter(name string, v float64) float64 {
	r, ok := physicalBounds[name]
	if !ok {
		return v
	}
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Min(math.Max(v, r.Min), r.Max)
}

// WriteResult is returned by a water property write.
type WriteResult struct {
	Success bool    `json:"success"`
	Value   float64 `json:"value"` // value actually stored, after clamping
}

// ParameterChange describes one stored write, used as event metadata.
type ParameterChange struct {
	Parameter string    `json:"parameter"`
	OldValue  float64   `json:"oldValue"`
	NewValue  float64   `json:"newValue"`
	Timestamp time.Time `json:"timestamp"`
}
