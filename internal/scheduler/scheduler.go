// Package scheduler runs the periodic work of the Things (degradation, decay,
// correction, sampling, status reports) as independently cancellable tasks on
// one cron instance.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"aquarium_wot/internal/logger"
)

// TickFunc is the body of a periodic task.
type TickFunc func(ctx context.Context, now time.Time)

// Scheduler owns the cron runner. Tasks are created stopped and started by
// their owning component or by the orchestrator.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	log     *logger.Logger
	running bool
	stopped bool
	tasks   []*Task
}

// New builds a scheduler. ctx is handed to every tick; it is not cancelled by
// Stop, so in-flight ticks finish their remote calls.
func New(ctx context.Context, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx: ctx,
		log: log,
	}
}

// Start begins dispatching. It is a no-op after Stop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop cancels every task and waits for in-flight ticks until ctx expires.
// Tasks cannot be restarted afterwards.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// NewTask registers a stopped task firing every interval once started.
func (s *Scheduler) NewTask(name string, interval time.Duration, fn TickFunc) *Task {
	t := &Task{name: name, interval: interval, fn: fn, sched: s}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t
}

// Entries is the number of scheduled cron entries.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) add(interval time.Duration, job cron.Job) (cron.EntryID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, false
	}
	return s.cron.Schedule(every(interval), job), true
}

// minInterval guards against a busy loop on zero or negative cadences.
const minInterval = time.Millisecond

// fixedInterval fires every d from the previous activation. cron.Every
// rounds down to whole seconds, which loses millisecond cadences.
type fixedInterval time.Duration

func every(d time.Duration) fixedInterval {
	return fixedInterval(max(d, minInterval))
}

func (f fixedInterval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(f))
}

func (s *Scheduler) remove(id cron.EntryID) {
	s.cron.Remove(id)
}

// Task is one cancellable periodic job.
type Task struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	fn       TickFunc
	sched    *Scheduler
	entry    cron.EntryID
	active   bool
}

// Start schedules the task. Starting an active task is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return
	}
	id, ok := t.sched.add(t.interval, cron.FuncJob(t.run))
	if !ok {
		return
	}
	t.entry = id
	t.active = true
}

// Stop unschedules the task. Stopping an inactive task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.sched.remove(t.entry)
	t.active = false
}

// Reschedule changes the cadence, restarting the task if it was active.
func (t *Task) Reschedule(interval time.Duration) {
	t.mu.Lock()
	wasActive := t.active
	t.interval = interval
	t.mu.Unlock()

	if wasActive {
		t.Stop()
		t.Start()
	}
}

// Active reports whether the task is scheduled.
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Interval returns the configured cadence.
func (t *Task) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *Task) Name() string { return t.name }

func (t *Task) run() {
	t.fn(t.sched.ctx, time.Now())
}
