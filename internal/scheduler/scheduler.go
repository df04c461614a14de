// Package scheduler runs a job periodically until it is stopped.
//
// A Task runs its job on its own goroutine, one invocation at a time: ticks
// that arrive while the job is still running are dropped rather than queued.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyStarted is returned by Start when the task is running.
	ErrAlreadyStarted = errors.New("scheduler: task already started")

	// ErrNotStarted is returned by Stop when the task is not running.
	ErrNotStarted = errors.New("scheduler: task not started")

	// ErrInvalidInterval is returned by New for a non-positive interval.
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
)

// Job is the unit of periodic work. It receives the task's context, which is
// cancelled when the task stops.
type Job func(ctx context.Context)

// Option configures a Task.
type Option func(*Task)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) { t.logger = logger }
}

// WithImmediate makes the task run its job once as soon as it starts,
// before the first tick.
func WithImmediate() Option {
	return func(t *Task) { t.immediate = true }
}

// Task is a named periodic job with an explicit Start/Stop lifecycle.
type Task struct {
	name      string
	interval  time.Duration
	job       Job
	immediate bool
	logger    *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a stopped task.
func New(name string, interval time.Duration, job Job, opts ...Option) (*Task, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	t := &Task{
		name:     name,
		interval: interval,
		job:      job,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the tick interval.
func (t *Task) Interval() time.Duration { return t.interval }

// Start launches the task goroutine. The task stops when ctx is cancelled
// or Stop is called. After the parent ctx ends the task is no longer
// Running and may be started again.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.started = true

	go func(done chan struct{}) {
		defer close(done)
		defer t.exited(done)
		t.loop(runCtx)
	}(t.done)

	t.logger.Debug("scheduler.started", "task", t.name, "interval", t.interval)
	return nil
}

// exited clears the running flag when the loop for done ends on its own.
func (t *Task) exited(done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == done {
		t.started = false
	}
}

// Stop cancels the task and waits for an in-flight job to return. Stop after
// the parent ctx ended still joins the goroutine and returns nil.
func (t *Task) Stop() error {
	t.mu.Lock()
	if t.done == nil {
		t.mu.Unlock()
		return ErrNotStarted
	}
	cancel, done := t.cancel, t.done
	t.started = false
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	cancel()
	<-done
	t.logger.Debug("scheduler.stopped", "task", t.name)
	return nil
}

// Running reports whether the task loop is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Run executes the task on the calling goroutine until ctx is cancelled.
// It suits errgroup-style supervision and always returns ctx.Err().
func (t *Task) Run(ctx context.Context) error {
	t.loop(ctx)
	return ctx.Err()
}

func (t *Task) loop(ctx context.Context) {
	if t.immediate {
		t.runJob(ctx)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runJob(ctx)
		}
	}
}

func (t *Task) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("scheduler.panic", "task", t.name, "panic", r)
		}
	}()
	t.job(ctx)
}
