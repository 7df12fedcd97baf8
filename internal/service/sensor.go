package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aquarium_wot/internal/configstore"
	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/repository"
	"aquarium_wot/internal/scheduler"
)

// Sampling interval bounds; values outside are replaced by the floor.
const (
	MinSamplingIntervalMs = 3000
	MaxSamplingIntervalMs = 1800000
)

// StatusChange is one edge-triggered status transition.
type StatusChange struct {
	Parameter      string                 `json:"parameter"`
	NewStatus      models.ParameterStatus `json:"newStatus"`
	PreviousStatus models.ParameterStatus `json:"previousStatus"`
	Value          float64                `json:"value"`
	Timestamp      time.Time              `json:"timestamp"`
}

// SensorService samples the water, classifies each parameter and raises a
// STATUS_CHANGE only when a parameter's status differs from the previous sample.
type SensorService struct {
	mu       sync.Mutex
	last     models.SensorReading
	prev     map[string]models.ParameterStatus
	interval time.Duration

	water   WaterPeer
	config  ConfigSource
	samples repository.SampleRepo
	task    *scheduler.Task
	bus     *EventBus
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewSensorService builds a sensor sampling at intervalMs, or at the current
// mode's interval when intervalMs is 0.
func NewSensorService(ctx context.Context, sched *scheduler.Scheduler, water WaterPeer, config ConfigSource, samples repository.SampleRepo, intervalMs int, bus *EventBus, m *metrics.Metrics, log *logger.Logger) *SensorService {
	s := &SensorService{
		prev:    initialStatuses(),
		water:   water,
		config:  config,
		samples: samples,
		bus:     bus,
		metrics: m,
		log:     logger.For(log, models.ThingSensor),
	}
	s.last.Statuses = initialStatuses()
	s.last.OverallStatus = models.StatusOK

	if intervalMs == 0 {
		intervalMs = s.modeIntervalMs(config.Load())
	}
	applied, clamped := clampSamplingInterval(intervalMs)
	if clamped {
		s.log.Warnw("sampling_interval_clamped", "requested_ms", intervalMs, "applied_ms", applied)
	}
	s.interval = time.Duration(applied) * time.Millisecond

	s.task = sched.NewTask("sensor_sampling", s.interval, func(ctx context.Context, now time.Time) {
		if _, err := s.Sample(ctx, now); err != nil {
			s.log.Debugw("sample_skipped", "error", err)
		}
	})
	return s
}

// Start takes a first sample and schedules the periodic ones.
func (s *SensorService) Start(ctx context.Context) {
	if _, err := s.Sample(ctx, time.Now()); err != nil {
		s.log.Debugw("initial_sample_skipped", "error", err)
	}
	s.task.Start()
}

// Sample reads and classifies the water. A failed read is logged and leaves
// the cached reading untouched.
func (s *SensorService) Sample(ctx context.Context, now time.Time) ([]StatusChange, error) {
	values, err := s.water.Read(ctx)
	if err != nil {
		s.metrics.SampleFailed()
		s.log.Warnw("water_read_failed", "error", err)
		return nil, fmt.Errorf("read water: %w", err)
	}

	cfg := s.config.Load()
	ts := now.UTC()
	statuses := make(map[string]models.ParameterStatus, len(models.Parameters))
	var changes []StatusChange

	s.mu.Lock()
	for _, p := range models.Parameters {
		r, ok := cfg.Parameters[p]
		if !ok {
			continue
		}
		v, _ := values.Get(p)
		st := models.Classify(v, r)
		statuses[p] = st
		if prev := s.prev[p]; prev != st {
			changes = append(changes, StatusChange{Parameter: p, NewStatus: st, PreviousStatus: prev, Value: v, Timestamp: ts})
			s.prev[p] = st
		}
	}
	s.last = models.SensorReading{
		Values:        values,
		Statuses:      statuses,
		OverallStatus: models.Worst(statuses),
		Timestamp:     ts,
	}
	s.mu.Unlock()

	s.metrics.ObserveSample(statuses)
	for _, c := range changes {
		s.metrics.StatusChanged(c.Parameter, c.NewStatus)
		s.log.Infow("status_changed", "parameter", c.Parameter, "from", c.PreviousStatus, "to", c.NewStatus, "value", c.Value)
		s.emit(ctx, models.ThingEvent{
			OccurredAt:  ts,
			Type:        models.EventStatusChange,
			Description: fmt.Sprintf("%s is %s", c.Parameter, c.NewStatus),
			Metadata:    c,
		})
	}

	if s.samples != nil {
		if err := s.samples.Save(ctx, models.Sample{SampledAt: ts, Values: values, Statuses: statuses}); err != nil {
			s.log.Warnw("sample_journal_failed", "error", err)
		}
	}
	return changes, nil
}

// SetSamplingInterval applies ms, or the 3000ms floor with a WARNING when ms is
// outside [3000, 1800000], and restarts the sampling task.
func (s *SensorService) SetSamplingInterval(ctx context.Context, ms int) (int, bool) {
	applied, clamped := clampSamplingInterval(ms)
	if clamped {
		s.log.Warnw("sampling_interval_clamped", "requested_ms", ms, "applied_ms", applied)
		s.emit(ctx, models.ThingEvent{
			Type:        models.EventWarning,
			Description: "sampling interval out of range, using floor",
			Metadata:    map[string]any{"requestedMs": ms, "appliedMs": applied},
		})
	}

	d := time.Duration(applied) * time.Millisecond
	s.mu.Lock()
	old := s.interval
	s.interval = d
	s.mu.Unlock()

	s.task.Reschedule(d)
	if old != d {
		s.emit(ctx, models.ThingEvent{
			Type:        models.EventPropertyChange,
			Description: "samplingIntervalMs changed",
			Metadata:    map[string]any{"property": "samplingIntervalMs", "oldValue": old.Milliseconds(), "newValue": applied},
		})
	}
	return applied, clamped
}

// ApplyMode persists mode and re-derives the sampling interval from the mode
// table. An unknown mode changes nothing.
func (s *SensorService) ApplyMode(ctx context.Context, mode string) error {
	cfg, err := s.config.SetMode(mode)
	if err != nil {
		s.log.Warnw("mode_rejected", "mode", mode, "error", err)
		return err
	}
	applied, _ := s.SetSamplingInterval(ctx, s.modeIntervalMs(cfg))
	s.log.Infow("mode_applied", "mode", cfg.Mode, "sampling_interval_ms", applied)
	s.emit(ctx, models.ThingEvent{
		Type:        models.EventConfigChange,
		Description: "mode changed to " + cfg.Mode,
		Metadata:    map[string]any{"mode": cfg.Mode, "samplingIntervalMs": applied},
	})
	return nil
}

// UpdateConfig validates and persists cfg. A rejected document raises no event.
func (s *SensorService) UpdateConfig(ctx context.Context, cfg models.AppConfig) error {
	prevMode := s.config.Load().Mode
	if err := s.config.Save(cfg); err != nil {
		var verr *configstore.ValidationError
		if errors.As(err, &verr) {
			s.log.Warnw("config_rejected", "problems", verr.Problems)
		} else {
			s.log.Errorw("config_save_failed", "error", err)
		}
		return err
	}

	saved := s.config.Load()
	meta := map[string]any{"mode": saved.Mode}
	if saved.Mode != prevMode {
		applied, _ := s.SetSamplingInterval(ctx, s.modeIntervalMs(saved))
		meta["samplingIntervalMs"] = applied
	}
	s.log.Infow("config_updated", "mode", saved.Mode)
	s.emit(ctx, models.ThingEvent{
		Type:        models.EventConfigChange,
		Description: "configuration updated",
		Metadata:    meta,
	})
	return nil
}

// Snapshot returns the latest reading.
func (s *SensorService) Snapshot() models.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.last
	out.Statuses = make(map[string]models.ParameterStatus, len(s.last.Statuses))
	for k, v := range s.last.Statuses {
		out.Statuses[k] = v
	}
	return out
}

func (s *SensorService) Config() models.AppConfig { return s.config.Load() }

func (s *SensorService) Mode() string { return s.config.Load().Mode }

func (s *SensorService) SamplingInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// History returns up to limit journaled samples, newest first.
func (s *SensorService) History(ctx context.Context, limit int) ([]models.Sample, error) {
	if s.samples == nil {
		return []models.Sample{}, nil
	}
	return s.samples.Recent(ctx, limit)
}

func (s *SensorService) modeIntervalMs(cfg models.AppConfig) int {
	if ms, ok := cfg.ModeSettings(cfg.Mode); ok {
		return ms.SamplingIntervalMs
	}
	return MinSamplingIntervalMs
}

func (s *SensorService) emit(ctx context.Context, e models.ThingEvent) {
	if s.bus == nil {
		return
	}
	e.Thing = models.ThingSensor
	s.bus.Emit(ctx, e)
}

func clampSamplingInterval(ms int) (int, bool) {
	if ms < MinSamplingIntervalMs || ms > MaxSamplingIntervalMs {
		return MinSamplingIntervalMs, true
	}
	return ms, false
}

func initialStatuses() map[string]models.ParameterStatus {
	out := make(map[string]models.ParameterStatus, len(models.Parameters))
	for _, p := range models.Parameters {
		out[p] = models.StatusOK
	}
	return out
}
