package service

import (
	"context"
	"sync"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/scheduler"
)

// MockActuator is a speed-only pump without filter health or cleaning. It
// corrects a (usually remote) water through its own link.
type MockActuator struct {
	transitionMu sync.Mutex // serializes SetSpeed with its task start/stop

	mu         sync.Mutex
	speed      int
	correction *CorrectionLoop
	task       *scheduler.Task
	bus        *EventBus
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewMockActuator(sched *scheduler.Scheduler, water WaterPeer, config ConfigSource, interval time.Duration, rate float64, bus *EventBus, m *metrics.Metrics, log *logger.Logger) *MockActuator {
	log = logger.For(log, models.ThingActuator)
	link := newPeerLink("actuator->water", models.ThingActuator, bus, m, log)
	a := &MockActuator{
		correction: NewCorrectionLoop(water, config, link, rate, log),
		bus:        bus,
		metrics:    m,
		log:        log,
	}
	a.task = sched.NewTask("actuator_correction", interval, func(ctx context.Context, now time.Time) {
		if _, err := a.RunCorrectionTick(ctx, now); err != nil {
			a.log.Debugw("correction_skipped", "error", err)
		}
	})
	return a
}

func (a *MockActuator) State() models.ActuatorState {
	a.mu.Lock()
	speed := a.speed
	a.mu.Unlock()
	return models.ActuatorState{
		PumpSpeed: speed,
		Running:   speed > 0,
		Link:      a.correction.Link(),
	}
}

// SetSpeed clamps percent into [0,100]; the correction task runs while the speed is above zero.
func (a *MockActuator) SetSpeed(ctx context.Context, percent int) models.ActuatorState {
	speed := models.ClampSpeed(percent)

	a.transitionMu.Lock()
	defer a.transitionMu.Unlock()

	a.mu.Lock()
	prev := a.speed
	a.speed = speed
	a.mu.Unlock()

	switch {
	case prev == 0 && speed > 0:
		a.task.Start()
	case prev > 0 && speed == 0:
		a.task.Stop()
	}

	a.metrics.ObservePump(models.ThingActuator, speed)
	a.log.Infow("actuator_speed_set", "requested", percent, "speed", speed)
	if a.bus != nil {
		a.bus.Emit(ctx, models.ThingEvent{
			Thing:       models.ThingActuator,
			Type:        models.EventAction,
			Description: "setPumpSpeed",
			Metadata:    map[string]any{"requested": percent, "pumpSpeed": speed},
		})
		if prev != speed {
			a.bus.Emit(ctx, models.ThingEvent{
				Thing:       models.ThingActuator,
				Type:        models.EventPropertyChange,
				Description: "pumpSpeed changed",
				Metadata:    map[string]any{"property": "pumpSpeed", "oldValue": prev, "newValue": speed},
			})
		}
	}
	return a.State()
}

func (a *MockActuator) RunCorrectionTick(ctx context.Context, now time.Time) (CorrectionResult, error) {
	a.mu.Lock()
	speed := a.speed
	a.mu.Unlock()
	return a.correction.Tick(ctx, now, speed)
}

func (a *MockActuator) CorrectionActive() bool { return a.task.Active() }

func (a *MockActuator) Link() models.ConnectionHealth { return a.correction.Link() }
