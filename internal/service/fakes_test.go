package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aquarium_wot/internal/configstore"
	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/repository"
	"aquarium_wot/internal/scheduler"
)

// fakeWater is an in-memory WaterPeer with injectable failures.
type fakeWater struct {
	mu         sync.Mutex
	values     models.WaterParameterSet
	readErr    error
	writeErr   error
	toggleErr  error
	writes     []models.ParameterChange
	startCalls int
	stopCalls  int
}

func (f *fakeWater) Read(context.Context) (models.WaterParameterSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values, f.readErr
}

func (f *fakeWater) Write(_ context.Context, p string, v float64) (models.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return models.WriteResult{}, f.writeErr
	}
	old, _ := f.values.Get(p)
	v = models.ClampParameter(p, v)
	f.values.Set(p, v)
	f.writes = append(f.writes, models.ParameterChange{Parameter: p, OldValue: old, NewValue: v})
	return models.WriteResult{Success: true, Value: v}, nil
}

func (f *fakeWater) StartDegradation(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.toggleErr
}

func (f *fakeWater) StopDegradation(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.toggleErr
}

func (f *fakeWater) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

type fakePump struct {
	mu    sync.Mutex
	state models.PumpState
	err   error
	calls int
}

func (f *fakePump) State(context.Context) (models.PumpState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.state, f.err
}

// memEventRepo journals events in memory.
type memEventRepo struct {
	mu     sync.Mutex
	events []models.ThingEvent
	err    error
}

func (m *memEventRepo) Append(_ context.Context, e models.ThingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memEventRepo) List(_ context.Context, q repository.EventQuery) ([]models.ThingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ThingEvent
	for _, e := range m.events {
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		if q.Thing != "" && e.Thing != q.Thing {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memEventRepo) ofType(typ string) []models.ThingEvent {
	out, _ := m.List(context.Background(), repository.EventQuery{Type: typ})
	return out
}

type memSampleRepo struct {
	mu      sync.Mutex
	samples []models.Sample
}

func (m *memSampleRepo) Save(_ context.Context, s models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
	return nil
}

func (m *memSampleRepo) Recent(_ context.Context, limit int) ([]models.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Sample, 0, len(m.samples))
	for i := len(m.samples) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.samples[i])
	}
	return out, nil
}

// harness bundles an unstarted scheduler, a journaled bus and a config file.
type harness struct {
	sched  *scheduler.Scheduler
	bus    *EventBus
	events *memEventRepo
	config *configstore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	events := &memEventRepo{}
	return &harness{
		sched:  scheduler.New(context.Background(), logger.Nop()),
		bus:    NewEventBus(events, nil, "aquarium", nil, logger.Nop()),
		events: events,
		config: configstore.New(filepath.Join(t.TempDir(), "parameters.json"), logger.Nop()),
	}
}

func fastPumpOptions() PumpOptions {
	o := DefaultPumpOptions()
	o.CleaningDuration = 20 * time.Millisecond
	return o
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
