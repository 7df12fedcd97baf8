package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/scheduler"
)

var ErrPumpShutdown = errors.New("pump is shut down")

// PumpOptions tunes the filter pump.
type PumpOptions struct {
	DecayPerTick       float64 // health lost per tick at 100% speed
	LowHealthThreshold float64 // a WARNING is raised once when crossing it
	CleaningDuration   time.Duration
	DecayInterval      time.Duration
	CorrectionInterval time.Duration
	CorrectionRate     float64
}

func DefaultPumpOptions() PumpOptions {
	return PumpOptions{
		DecayPerTick:       0.5,
		LowHealthThreshold: 20,
		CleaningDuration:   8 * time.Second,
		DecayInterval:      time.Second,
		CorrectionInterval: time.Second,
		CorrectionRate:     DefaultCorrectionRate,
	}
}

// PumpService simulates the filter pump. Speed drives health decay and,
// while above zero, the correction of the water.
type PumpService struct {
	// transitionMu serializes SetSpeed so the correction task and the water
	// degradation always follow the last applied speed.
	transitionMu sync.Mutex

	mu            sync.Mutex
	state         models.PumpState
	lowWarned     bool
	cleaningTimer *time.Timer
	closed        bool

	baseCtx    context.Context
	opts       PumpOptions
	water      WaterPeer
	link       *peerLink
	correction *CorrectionLoop
	decay      *scheduler.Task
	correct    *scheduler.Task
	bus        *EventBus
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewPumpService builds an idle pump with a clean filter. ctx is used by the
// cleaning completion, which outlives the request that triggered it.
func NewPumpService(ctx context.Context, sched *scheduler.Scheduler, water WaterPeer, config ConfigSource, opts PumpOptions, bus *EventBus, m *metrics.Metrics, log *logger.Logger) *PumpService {
	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.For(log, models.ThingPump)
	link := newPeerLink("pump->water", models.ThingPump, bus, m, log)
	s := &PumpService{
		state:      models.PumpState{FilterStatus: models.FilterIdle, FilterHealth: 100},
		baseCtx:    ctx,
		opts:       opts,
		water:      water,
		link:       link,
		correction: NewCorrectionLoop(water, config, link, opts.CorrectionRate, log),
		bus:        bus,
		metrics:    m,
		log:        log,
	}
	s.decay = sched.NewTask("pump_health_decay", opts.DecayInterval, func(ctx context.Context, now time.Time) {
		s.RunHealthDecayTick(ctx, now)
	})
	s.correct = sched.NewTask("pump_correction", opts.CorrectionInterval, func(ctx context.Context, now time.Time) {
		if _, err := s.RunCorrectionTick(ctx, now); err != nil {
			s.log.Debugw("correction_skipped", "error", err)
		}
	})
	m.ObservePump(models.ThingPump, 0)
	m.ObserveFilterHealth(100)
	return s
}

func (s *PumpService) State(_ context.Context) (models.PumpState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// SetSpeed clamps percent into [0,100] and recomputes the filter status.
// A cleaning cycle is never interrupted. Starting from standstill activates
// correction and stops the water degradation; stopping does the reverse.
func (s *PumpService) SetSpeed(ctx context.Context, percent int) models.PumpState {
	speed := models.ClampSpeed(percent)

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	prev := s.state
	s.state.PumpSpeed = speed
	if s.state.FilterStatus != models.FilterCleaning {
		s.state.FilterStatus = statusForSpeed(speed)
	}
	cur := s.state
	s.mu.Unlock()

	s.metrics.ObservePump(models.ThingPump, speed)
	s.log.Infow("pump_speed_set", "requested", percent, "speed", speed, "filter_status", cur.FilterStatus)
	s.emit(ctx, models.EventAction, "setPumpSpeed", map[string]any{"requested": percent, "pumpSpeed": speed})
	if prev.PumpSpeed != speed {
		s.emitProperty(ctx, "pumpSpeed", prev.PumpSpeed, speed)
	}
	if prev.FilterStatus != cur.FilterStatus {
		s.emitProperty(ctx, "filterStatus", prev.FilterStatus, cur.FilterStatus)
	}

	switch {
	case prev.PumpSpeed == 0 && speed > 0:
		s.correct.Start()
		s.toggleDegradation(ctx, s.water.StopDegradation)
	case prev.PumpSpeed > 0 && speed == 0:
		s.correct.Stop()
		s.toggleDegradation(ctx, s.water.StartDegradation)
	}
	return cur
}

// toggleDegradation is attempted regardless of backoff: it follows a user
// action. Its outcome still feeds the pump->water link.
func (s *PumpService) toggleDegradation(ctx context.Context, fn func(context.Context) error) {
	now := time.Now()
	err := fn(ctx)
	s.link.record(ctx, now, err)
	if err != nil {
		s.log.Warnw("degradation_toggle_failed", "error", err)
	}
}

// RunHealthDecayTick lowers health by speed/100 * DecayPerTick, floored at 0.
// Health does not decay while the filter is being cleaned.
func (s *PumpService) RunHealthDecayTick(ctx context.Context, _ time.Time) bool {
	s.mu.Lock()
	if s.state.PumpSpeed == 0 || s.state.FilterStatus == models.FilterCleaning || s.state.FilterHealth == 0 {
		s.mu.Unlock()
		return false
	}
	old := s.state.FilterHealth
	health := old - float64(s.state.PumpSpeed)/100*s.opts.DecayPerTick
	if health < 0 {
		health = 0
	}
	s.state.FilterHealth = health
	warn := !s.lowWarned && health < s.opts.LowHealthThreshold
	if warn {
		s.lowWarned = true
	}
	s.mu.Unlock()

	s.metrics.ObserveFilterHealth(health)
	s.emitProperty(ctx, "filterHealth", old, health)
	if warn {
		s.log.Warnw("filter_health_low", "filter_health", health)
		s.emit(ctx, models.EventWarning, "filter health low, cleaning recommended", map[string]any{"filterHealth": health})
	}
	return true
}

// TriggerCleaning starts a cleaning cycle. It returns false, without queuing,
// while another cycle is in flight.
func (s *PumpService) TriggerCleaning(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrPumpShutdown
	}
	if s.state.FilterStatus == models.FilterCleaning {
		s.mu.Unlock()
		return false, nil
	}
	prev := s.state.FilterStatus
	s.state.FilterStatus = models.FilterCleaning
	health := s.state.FilterHealth
	s.cleaningTimer = time.AfterFunc(s.opts.CleaningDuration, s.completeCleaning)
	s.mu.Unlock()

	s.log.Infow("cleaning_started", "filter_health", health, "duration_ms", s.opts.CleaningDuration.Milliseconds())
	s.emit(ctx, models.EventCleaning, "cleaning cycle started", map[string]any{"filterHealth": health})
	s.emitProperty(ctx, "filterStatus", prev, models.FilterCleaning)
	return true, nil
}

// completeCleaning resets health and recomputes the status from the current speed.
func (s *PumpService) completeCleaning() {
	s.mu.Lock()
	if s.closed || s.state.FilterStatus != models.FilterCleaning {
		s.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	s.state.FilterHealth = 100
	s.state.LastCleaningTime = now
	s.state.FilterStatus = statusForSpeed(s.state.PumpSpeed)
	s.lowWarned = false
	s.cleaningTimer = nil
	cur := s.state
	s.mu.Unlock()

	s.metrics.ObserveFilterHealth(100)
	s.metrics.CleaningCompleted()
	s.log.Infow("cleaning_completed", "filter_status", cur.FilterStatus)
	s.emit(s.baseCtx, models.EventCleaning, "cleaning cycle completed", map[string]any{
		"filterHealth":     cur.FilterHealth,
		"filterStatus":     cur.FilterStatus,
		"lastCleaningTime": cur.LastCleaningTime,
	})
	s.emitProperty(s.baseCtx, "filterStatus", models.FilterCleaning, cur.FilterStatus)
}

// RunCorrectionTick runs one correction step at the current speed.
func (s *PumpService) RunCorrectionTick(ctx context.Context, now time.Time) (CorrectionResult, error) {
	s.mu.Lock()
	speed := s.state.PumpSpeed
	s.mu.Unlock()
	return s.correction.Tick(ctx, now, speed)
}

func (s *PumpService) CorrectionActive() bool { return s.correct.Active() }

func (s *PumpService) SetDecayInterval(d time.Duration) {
	if d <= 0 || d == s.decay.Interval() {
		return
	}
	s.decay.Reschedule(d)
	s.log.Infow("decay_interval_changed", "interval_ms", d.Milliseconds())
}

// StartDecay schedules the health decay task.
func (s *PumpService) StartDecay() { s.decay.Start() }

// Link reports the pump->water connection.
func (s *PumpService) Link() models.ConnectionHealth { return s.link.snapshot() }

// Shutdown cancels a pending cleaning completion. Periodic tasks belong to the scheduler.
func (s *PumpService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cleaningTimer != nil {
		s.cleaningTimer.Stop()
		s.cleaningTimer = nil
	}
}

func statusForSpeed(speed int) models.FilterStatus {
	if speed > 0 {
		return models.FilterRunning
	}
	return models.FilterIdle
}

func (s *PumpService) emit(ctx context.Context, typ, desc string, meta any) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(ctx, models.ThingEvent{Thing: models.ThingPump, Type: typ, Description: desc, Metadata: meta})
}

func (s *PumpService) emitProperty(ctx context.Context, name string, old, cur any) {
	s.emit(ctx, models.EventPropertyChange, name+" changed", map[string]any{
		"property": name,
		"oldValue": old,
		"newValue": cur,
	})
}
