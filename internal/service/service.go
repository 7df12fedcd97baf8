package service

import (
	"context"
	"time"

	"aquarium_wot/internal/models"
)

// WaterPeer is the water Thing as seen by pumps and the sensor. It is
// implemented by WaterService in-process and by client.WaterHTTP remotely.
type WaterPeer interface {
	Read(ctx context.Context) (models.WaterParameterSet, error)
	Write(ctx context.Context, parameter string, value float64) (models.WriteResult, error)
	StartDegradation(ctx context.Context) error
	StopDegradation(ctx context.Context) error
}

// PumpPeer is the filter pump as seen by the water Thing.
type PumpPeer interface {
	State(ctx context.Context) (models.PumpState, error)
}

// ConfigSource is the configuration document. configstore.Store implements it.
type ConfigSource interface {
	Load() models.AppConfig
	Save(cfg models.AppConfig) error
	SetMode(mode string) (models.AppConfig, error)
}

// Water is the HTTP surface of the water Thing.
type Water interface {
	WaterPeer
	DegradationActive() bool
}

// Pump is the HTTP surface of the filter pump Thing.
type Pump interface {
	State(ctx context.Context) (models.PumpState, error)
	SetSpeed(ctx context.Context, percent int) models.PumpState
	TriggerCleaning(ctx context.Context) (bool, error)
}

// Actuator is the HTTP surface of the speed-only mock pump.
type Actuator interface {
	State() models.ActuatorState
	SetSpeed(ctx context.Context, percent int) models.ActuatorState
}

// Sensor is the HTTP surface of the water quality sensor.
type Sensor interface {
	Snapshot() models.SensorReading
	Config() models.AppConfig
	Mode() string
	SamplingInterval() time.Duration
	SetSamplingInterval(ctx context.Context, ms int) (applied int, clamped bool)
	ApplyMode(ctx context.Context, mode string) error
	UpdateConfig(ctx context.Context, cfg models.AppConfig) error
	History(ctx context.Context, limit int) ([]models.Sample, error)
}

// EventLog exposes the journaled events with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ThingEvent, error)
}

// Events is the live event stream.
type Events interface {
	Subscribe(buffer int) (<-chan models.ThingEvent, func())
}

// StatusReporter summarizes the whole process.
type StatusReporter interface {
	Status(ctx context.Context) SystemStatus
}

// Service aggregates the Things hosted by this process. Fields of Things
// that are not hosted stay nil.
type Service struct {
	Water    Water
	Pump     Pump
	Actuator Actuator
	Sensor   Sensor
	EventLog EventLog
	Events   Events
	Status   StatusReporter

	orchestrator *Orchestrator
}

// Start launches the periodic tasks of every hosted Thing.
func (s *Service) Start(ctx context.Context) {
	s.orchestrator.Start(ctx)
}

// Shutdown cancels every task and timer; in-flight ticks may finish until ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.orchestrator.Shutdown(ctx)
}
