package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/scheduler"
)

var ErrUnknownParameter = errors.New("unknown water parameter")

// WaterOptions tunes the degradation dynamics.
type WaterOptions struct {
	Initial         models.WaterParameterSet
	BaseStep        float64       // applied to every parameter per tick
	AcceleratedStep float64       // extra step for the accelerated parameter
	RotationEvery   time.Duration // accelerated parameter and direction change
	TickInterval    time.Duration
	WatchInterval   time.Duration // polling of a remote pump
}

func DefaultWaterOptions() WaterOptions {
	return WaterOptions{
		Initial:         models.WaterParameterSet{PH: 7.0, Temperature: 25.5, OxygenLevel: 7.0},
		BaseStep:        0.2,
		AcceleratedStep: 0.4,
		RotationEvery:   30 * time.Second,
		TickInterval:    time.Second,
		WatchInterval:   2 * time.Second,
	}
}

// WaterService is the authoritative water state. It degrades on its own
// while no pump is running and accepts corrective writes.
type WaterService struct {
	mu         sync.Mutex
	values     models.WaterParameterSet
	degrading  bool
	accelIdx   int
	increasing bool
	rotatedAt  time.Time // zero until the first degradation tick

	opts    WaterOptions
	task    *scheduler.Task
	watch   *scheduler.Task
	pump    PumpPeer
	link    *peerLink
	bus     *EventBus
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewWaterService(sched *scheduler.Scheduler, opts WaterOptions, bus *EventBus, m *metrics.Metrics, log *logger.Logger) *WaterService {
	s := &WaterService{
		values:     clampSet(opts.Initial),
		increasing: true,
		opts:       opts,
		bus:        bus,
		metrics:    m,
		log:        logger.For(log, models.ThingWater),
	}
	s.task = sched.NewTask("water_degradation", opts.TickInterval, func(ctx context.Context, now time.Time) {
		s.RunDegradationTick(ctx, now)
	})
	m.ObserveWater(s.values)
	return s
}

// WatchPump makes the water follow a pump hosted elsewhere: degradation runs
// only while that pump stands still.
func (s *WaterService) WatchPump(sched *scheduler.Scheduler, pump PumpPeer) {
	s.pump = pump
	s.link = newPeerLink("water->pump", models.ThingWater, s.bus, s.metrics, s.log)
	s.watch = sched.NewTask("water_pump_watch", s.opts.WatchInterval, func(ctx context.Context, now time.Time) {
		s.PollPump(ctx, now)
	})
}

func (s *WaterService) Read(_ context.Context) (models.WaterParameterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values, nil
}

// Write clamps value into the physical bounds and stores it. The only error
// is an unknown parameter name.
func (s *WaterService) Write(ctx context.Context, parameter string, value float64) (models.WriteResult, error) {
	if !models.IsParameter(parameter) {
		return models.WriteResult{}, fmt.Errorf("%w: %q", ErrUnknownParameter, parameter)
	}
	clamped := models.ClampParameter(parameter, value)
	now := time.Now().UTC()

	s.mu.Lock()
	old, _ := s.values.Get(parameter)
	s.values.Set(parameter, clamped)
	snapshot := s.values
	s.mu.Unlock()

	s.metrics.ObserveWater(snapshot)
	s.emitChange(ctx, models.ParameterChange{
		Parameter: parameter,
		OldValue:  old,
		NewValue:  clamped,
		Timestamp: now,
	})
	return models.WriteResult{Success: true, Value: clamped}, nil
}

// RunDegradationTick applies one saw-tooth step while degradation is active.
// Returns whether anything changed.
func (s *WaterService) RunDegradationTick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if !s.degrading {
		s.mu.Unlock()
		return false
	}
	if s.rotatedAt.IsZero() {
		s.rotatedAt = now
	} else if now.Sub(s.rotatedAt) >= s.opts.RotationEvery {
		s.accelIdx = (s.accelIdx + 1) % len(models.Parameters)
		s.increasing = !s.increasing
		s.rotatedAt = now
	}

	sign := 1.0
	if !s.increasing {
		sign = -1.0
	}
	accelerated := models.Parameters[s.accelIdx]

	changes := make([]models.ParameterChange, 0, len(models.Parameters))
	for _, p := range models.Parameters {
		delta := s.opts.BaseStep
		if p == accelerated {
			delta += s.opts.AcceleratedStep
		}
		old, _ := s.values.Get(p)
		next := models.ClampParameter(p, old+sign*delta)
		if next == old {
			continue
		}
		s.values.Set(p, next)
		changes = append(changes, models.ParameterChange{Parameter: p, OldValue: old, NewValue: next, Timestamp: now.UTC()})
	}
	snapshot := s.values
	s.mu.Unlock()

	if len(changes) == 0 {
		return false
	}
	s.metrics.ObserveWater(snapshot)
	for _, c := range changes {
		s.emitChange(ctx, c)
	}
	return true
}

// StartDegradation is idempotent; rotation state survives stop/start.
func (s *WaterService) StartDegradation(ctx context.Context) error {
	s.mu.Lock()
	if s.degrading {
		s.mu.Unlock()
		return nil
	}
	s.degrading = true
	s.mu.Unlock()

	s.task.Start()
	s.log.Infow("degradation_started")
	s.emitAction(ctx, "degradation started")
	return nil
}

// StopDegradation is idempotent.
func (s *WaterService) StopDegradation(ctx context.Context) error {
	s.mu.Lock()
	if !s.degrading {
		s.mu.Unlock()
		return nil
	}
	s.degrading = false
	s.mu.Unlock()

	s.task.Stop()
	s.log.Infow("degradation_stopped")
	s.emitAction(ctx, "degradation stopped")
	return nil
}

func (s *WaterService) DegradationActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degrading
}

// AcceleratedParameter reports the parameter currently degrading fastest and
// whether the current phase raises values.
func (s *WaterService) AcceleratedParameter() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Parameters[s.accelIdx], s.increasing
}

func (s *WaterService) SetDegradationInterval(d time.Duration) {
	if d <= 0 || d == s.task.Interval() {
		return
	}
	s.task.Reschedule(d)
	s.log.Infow("degradation_interval_changed", "interval_ms", d.Milliseconds())
}

// PollPump reads the remote pump through the connection policy and toggles
// degradation from its speed.
func (s *WaterService) PollPump(ctx context.Context, now time.Time) {
	if s.pump == nil || !s.link.due(now) {
		return
	}
	st, err := s.pump.State(ctx)
	s.link.record(ctx, now, err)
	if err != nil {
		return
	}
	if st.PumpSpeed > 0 {
		_ = s.StopDegradation(ctx)
	} else {
		_ = s.StartDegradation(ctx)
	}
}

// StartWatch starts polling the remote pump, if one is configured.
func (s *WaterService) StartWatch() {
	if s.watch != nil {
		s.watch.Start()
	}
}

// Link reports the water->pump connection, if the pump is remote.
func (s *WaterService) Link() (models.ConnectionHealth, bool) {
	if s.link == nil {
		return models.ConnectionHealth{}, false
	}
	return s.link.snapshot(), true
}

func (s *WaterService) emitChange(ctx context.Context, c models.ParameterChange) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(ctx, models.ThingEvent{
		OccurredAt:  c.Timestamp,
		Thing:       models.ThingWater,
		Type:        models.EventPropertyChange,
		Description: c.Parameter + " changed",
		Metadata:    c,
	})
}

func (s *WaterService) emitAction(ctx context.Context, desc string) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(ctx, models.ThingEvent{
		Thing:       models.ThingWater,
		Type:        models.EventAction,
		Description: desc,
	})
}

func clampSet(w models.WaterParameterSet) models.WaterParameterSet {
	for _, p := range models.Parameters {
		v, _ := w.Get(p)
		w.Set(p, models.ClampParameter(p, v))
	}
	return w
}
