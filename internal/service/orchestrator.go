package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/metrics"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/notify"
	"aquarium_wot/internal/repository"
	"aquarium_wot/internal/scheduler"
)

var (
	ErrNoThings     = errors.New("no things to host")
	ErrUnknownThing = errors.New("unknown thing")
	ErrMissingPeer  = errors.New("remote peer required")
)

// Options selects the hosted Things and their cadences.
type Options struct {
	Things []string

	// Zero values fall back to the active mode's table.
	SamplingIntervalMs          int
	FilterHealthCheckIntervalMs int

	StatusInterval     time.Duration
	CorrectionInterval time.Duration
	Water              WaterOptions
	Pump               PumpOptions
}

func DefaultOptions() Options {
	return Options{
		Things:             []string{models.ThingWater, models.ThingPump, models.ThingSensor},
		StatusInterval:     10 * time.Second,
		CorrectionInterval: time.Second,
		Water:              DefaultWaterOptions(),
		Pump:               DefaultPumpOptions(),
	}
}

// Deps are the collaborators shared by all Things. RemoteWater is required
// when pumps or the sensor run without a local water; RemotePump is optional
// and lets a local water follow a pump hosted elsewhere.
type Deps struct {
	Config      ConfigSource
	Repos       *repository.Repository
	Publisher   notify.Publisher
	TopicPrefix string
	Metrics     *metrics.Metrics
	Log         *logger.Logger
	RemoteWater WaterPeer
	RemotePump  PumpPeer
}

// SystemStatus is the orchestrator's summary of the process.
type SystemStatus struct {
	Things            []string                  `json:"things"`
	Mode              string                    `json:"mode"`
	Water             *models.WaterParameterSet `json:"water,omitempty"`
	DegradationActive *bool                     `json:"degradationActive,omitempty"`
	Pump              *models.PumpState         `json:"pump,omitempty"`
	Actuator          *models.ActuatorState     `json:"actuator,omitempty"`
	Sensor            *models.SensorReading     `json:"sensor,omitempty"`
	Links             []models.ConnectionHealth `json:"links"`
	Timestamp         time.Time                 `json:"timestamp"`
}

// Orchestrator composes the periodic tasks of the hosted Things.
type Orchestrator struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	unsub    func()
	subDone  chan struct{}
	things   []string
	opts     Options
	sched    *scheduler.Scheduler
	config   ConfigSource
	bus      *EventBus
	log      *logger.Logger
	status   *scheduler.Task
	water    *WaterService
	pump     *PumpService
	actuator *MockActuator
	sensor   *SensorService
}

// NewService builds the hosted Things and the orchestrator that runs them.
// Nothing is scheduled until Start.
func NewService(ctx context.Context, deps Deps, opts Options) (*Service, error) {
	hosted, err := normalizeThings(opts.Things)
	if err != nil {
		return nil, err
	}
	if deps.Config == nil {
		return nil, errors.New("config source is required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	var (
		eventRepo  repository.EventRepo
		sampleRepo repository.SampleRepo
	)
	if deps.Repos != nil {
		eventRepo = deps.Repos.EventRepo
		sampleRepo = deps.Repos.SampleRepo
	}

	sched := scheduler.New(ctx, log)
	bus := NewEventBus(eventRepo, deps.Publisher, deps.TopicPrefix, deps.Metrics, log)
	o := &Orchestrator{
		things: hosted,
		opts:   opts,
		sched:  sched,
		config: deps.Config,
		bus:    bus,
		log:    logger.For(log, models.ThingSystem),
	}
	svc := &Service{Events: bus, Status: o, orchestrator: o}
	if eventRepo != nil {
		svc.EventLog = NewEventLogService(eventRepo)
	}

	cfg := deps.Config.Load()
	modeSettings, _ := cfg.ModeSettings(cfg.Mode)

	var water WaterPeer = deps.RemoteWater
	if contains(hosted, models.ThingWater) {
		wopts := opts.Water
		if modeSettings.DegradationIntervalMs > 0 {
			wopts.TickInterval = msDuration(modeSettings.DegradationIntervalMs)
		}
		o.water = NewWaterService(sched, wopts, bus, deps.Metrics, log)
		if !contains(hosted, models.ThingPump) && deps.RemotePump != nil {
			o.water.WatchPump(sched, deps.RemotePump)
		}
		water = o.water
		svc.Water = o.water
	}
	needsWater := contains(hosted, models.ThingPump) || contains(hosted, models.ThingActuator) || contains(hosted, models.ThingSensor)
	if needsWater && water == nil {
		return nil, fmt.Errorf("%w: water", ErrMissingPeer)
	}

	if contains(hosted, models.ThingPump) {
		popts := opts.Pump
		popts.CorrectionInterval = orDefault(opts.CorrectionInterval, popts.CorrectionInterval)
		switch {
		case opts.FilterHealthCheckIntervalMs > 0:
			popts.DecayInterval = msDuration(opts.FilterHealthCheckIntervalMs)
		case modeSettings.FilterDegradationIntervalMs > 0:
			popts.DecayInterval = msDuration(modeSettings.FilterDegradationIntervalMs)
		}
		o.pump = NewPumpService(ctx, sched, water, deps.Config, popts, bus, deps.Metrics, log)
		svc.Pump = o.pump
	}
	if contains(hosted, models.ThingActuator) {
		o.actuator = NewMockActuator(sched, water, deps.Config, orDefault(opts.CorrectionInterval, time.Second),
			opts.Pump.CorrectionRate, bus, deps.Metrics, log)
		svc.Actuator = o.actuator
	}
	if contains(hosted, models.ThingSensor) {
		o.sensor = NewSensorService(ctx, sched, water, deps.Config, sampleRepo, opts.SamplingIntervalMs, bus, deps.Metrics, log)
		svc.Sensor = o.sensor
	}

	o.status = sched.NewTask("orchestration_status", orDefault(opts.StatusInterval, 10*time.Second), func(ctx context.Context, now time.Time) {
		o.report(ctx, now)
	})
	return svc, nil
}

// Start schedules every hosted Thing's tasks. It runs once; after Shutdown it does nothing.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started || o.stopped {
		o.mu.Unlock()
		return
	}
	o.started = true
	ch, unsub := o.bus.Subscribe(64)
	o.unsub = unsub
	o.subDone = make(chan struct{})
	o.mu.Unlock()

	go o.followConfig(ch)
	o.sched.Start()

	if o.water != nil {
		if o.pump == nil || o.waterShouldDegrade(ctx) {
			_ = o.water.StartDegradation(ctx)
		}
		o.water.StartWatch()
	}
	if o.pump != nil {
		o.pump.StartDecay()
	}
	if o.sensor != nil {
		o.sensor.Start(ctx)
	}
	o.status.Start()
	o.log.Infow("orchestrator_started", "things", o.things)
}

func (o *Orchestrator) waterShouldDegrade(ctx context.Context) bool {
	st, _ := o.pump.State(ctx)
	return st.PumpSpeed == 0
}

// Shutdown stops every task and timer. Tasks never restart afterwards.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return nil
	}
	o.stopped = true
	unsub, done := o.unsub, o.subDone
	o.mu.Unlock()

	if unsub != nil {
		unsub()
		<-done
	}
	if o.pump != nil {
		o.pump.Shutdown()
	}
	err := o.sched.Stop(ctx)
	o.log.Infow("orchestrator_stopped", "error", err)
	return err
}

// followConfig re-applies the mode's cadences after every configuration change.
func (o *Orchestrator) followConfig(ch <-chan models.ThingEvent) {
	defer close(o.subDone)
	for ev := range ch {
		if ev.Type != models.EventConfigChange {
			continue
		}
		o.applyModeIntervals(o.config.Load())
	}
}

func (o *Orchestrator) applyModeIntervals(cfg models.AppConfig) {
	ms, ok := cfg.ModeSettings(cfg.Mode)
	if !ok {
		return
	}
	if o.water != nil {
		o.water.SetDegradationInterval(msDuration(ms.DegradationIntervalMs))
	}
	if o.pump != nil && o.opts.FilterHealthCheckIntervalMs == 0 {
		o.pump.SetDecayInterval(msDuration(ms.FilterDegradationIntervalMs))
	}
}

func (o *Orchestrator) Status(ctx context.Context) SystemStatus {
	st := SystemStatus{
		Things:    append([]string(nil), o.things...),
		Mode:      o.config.Load().Mode,
		Links:     []models.ConnectionHealth{},
		Timestamp: time.Now().UTC(),
	}
	if o.water != nil {
		w, _ := o.water.Read(ctx)
		active := o.water.DegradationActive()
		st.Water = &w
		st.DegradationActive = &active
		if l, ok := o.water.Link(); ok {
			st.Links = append(st.Links, l)
		}
	}
	if o.pump != nil {
		p, _ := o.pump.State(ctx)
		st.Pump = &p
		st.Links = append(st.Links, o.pump.Link())
	}
	if o.actuator != nil {
		a := o.actuator.State()
		st.Actuator = &a
		st.Links = append(st.Links, a.Link)
	}
	if o.sensor != nil {
		r := o.sensor.Snapshot()
		st.Sensor = &r
	}
	return st
}

func (o *Orchestrator) report(ctx context.Context, _ time.Time) {
	st := o.Status(ctx)
	kv := []any{"mode", st.Mode}
	if st.Water != nil {
		kv = append(kv, "ph", st.Water.PH, "temperature", st.Water.Temperature, "oxygen_level", st.Water.OxygenLevel,
			"degradation_active", *st.DegradationActive)
	}
	if st.Pump != nil {
		kv = append(kv, "pump_speed", st.Pump.PumpSpeed, "filter_status", st.Pump.FilterStatus, "filter_health", st.Pump.FilterHealth)
	}
	if st.Actuator != nil {
		kv = append(kv, "actuator_speed", st.Actuator.PumpSpeed)
	}
	if st.Sensor != nil {
		kv = append(kv, "overall_status", st.Sensor.OverallStatus)
	}
	for _, l := range st.Links {
		kv = append(kv, "link_"+l.Peer, l.Reachable)
	}
	o.log.Infow("orchestration_status", kv...)
}

// normalizeThings validates and de-duplicates the hosted Thing names.
func normalizeThings(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		switch t {
		case models.ThingWater, models.ThingPump, models.ThingSensor, models.ThingActuator:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownThing, t)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoThings
	}
	sort.Strings(out)
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func msDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
