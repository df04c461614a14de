package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/ephemera/internal/insight"
	"github.com/scrypster/ephemera/internal/scheduler"
	"github.com/scrypster/ephemera/pkg/types"
)

// LoomTickInterval is how often a started Loom decays its threads.
const LoomTickInterval = 900 * time.Millisecond

// maxSelected is the number of threads that can be paired at once.
const maxSelected = 2

var (
	// ErrEmptyTitle is returned by Weave for a blank title.
	ErrEmptyTitle = errors.New("engine: thread title is required")

	// ErrUnknownEmotion is returned by Weave for an emotion outside the catalog.
	ErrUnknownEmotion = errors.New("engine: unknown emotion")

	// ErrInvalidHorizon is returned by Weave for a negative horizon.
	ErrInvalidHorizon = errors.New("engine: horizon must not be negative")

	// ErrThreadNotFound is returned when an ID does not match any thread.
	ErrThreadNotFound = errors.New("engine: thread not found")

	// ErrInvalidResolution is returned by Resolve for an unknown resolution.
	ErrInvalidResolution = errors.New("engine: invalid resolution")

	// ErrInvalidTransition is returned when a thread cannot move to the
	// requested state.
	ErrInvalidTransition = errors.New("engine: invalid thread state transition")
)

// LoomSnapshot is an immutable view of the loom. Threads are newest first.
type LoomSnapshot struct {
	Threads  []types.Thread `json:"threads"`
	Selected []string       `json:"selected"`
}

// Metrics summarises a loom for the dashboard.
type Metrics struct {
	Looming        int     `json:"looming"`
	Reflection     int     `json:"reflection"`
	Archived       int     `json:"archived"`
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
	AverageEnergy  int     `json:"average_energy"`
}

// Loom is the in-memory collection of threads.
//
// Writers are serialised by a mutex and every mutation publishes a fresh
// snapshot through an atomic pointer, so readers never block and never see
// a partially updated thread or collection.
type Loom struct {
	opts options

	mu      sync.Mutex
	current atomic.Pointer[LoomSnapshot]
	task    *scheduler.Task
}

// NewLoom returns an empty, stopped loom.
func NewLoom(opts ...Option) *Loom {
	l := &Loom{opts: buildOptions(opts)}
	l.current.Store(&LoomSnapshot{})

	// LoomTickInterval is positive and the job is non-nil, so New cannot fail.
	l.task, _ = scheduler.New("loom.decay", LoomTickInterval, func(context.Context) {
		l.Tick(l.opts.now())
	}, scheduler.WithLogger(l.opts.logger))
	return l
}

// Start begins decaying threads every LoomTickInterval until ctx is
// cancelled or Stop is called.
func (l *Loom) Start(ctx context.Context) error {
	if err := l.task.Start(ctx); err != nil {
		return fmt.Errorf("engine: start loom: %w", err)
	}
	return nil
}

// Stop halts the decay ticker and waits for an in-flight tick.
func (l *Loom) Stop() error {
	if err := l.task.Stop(); err != nil {
		return fmt.Errorf("engine: stop loom: %w", err)
	}
	return nil
}

// Snapshot returns the current state. The returned slices are private copies.
func (l *Loom) Snapshot() LoomSnapshot {
	s := l.current.Load()
	return LoomSnapshot{
		Threads:  slices.Clone(s.Threads),
		Selected: slices.Clone(s.Selected),
	}
}

// Get returns the thread with the given ID.
func (l *Loom) Get(id string) (types.Thread, error) {
	s := l.current.Load()
	i := indexOf(s.Threads, id)
	if i < 0 {
		return types.Thread{}, ErrThreadNotFound
	}
	return s.Threads[i], nil
}

// Weave creates a looming thread from draft and places it first. Title and
// impact are trimmed; an empty emotion defaults to Curiosity.
func (l *Loom) Weave(draft insight.Draft) (types.Thread, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return types.Thread{}, ErrEmptyTitle
	}
	emotion := draft.Emotion
	if emotion == "" {
		emotion = types.EmotionCuriosity
	}
	if !insight.IsKnownEmotion(emotion) {
		return types.Thread{}, fmt.Errorf("%w: %q", ErrUnknownEmotion, emotion)
	}
	if draft.Horizon < 0 {
		return types.Thread{}, ErrInvalidHorizon
	}

	t := types.Thread{
		ID:        l.opts.newID(),
		Title:     title,
		Horizon:   draft.Horizon,
		Emotion:   emotion,
		Impact:    strings.TrimSpace(draft.Impact),
		Trigger:   draft.Trigger,
		CreatedAt: l.opts.now(),
		Lifespan:  ThreadLifespan(draft.Horizon, l.opts.rand),
		Energy:    FullEnergy,
		State:     types.StateLooming,
	}
	t.Insights = insight.Generate(insight.SeedOf(t))

	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.current.Load()
	threads := make([]types.Thread, 0, len(prev.Threads)+1)
	threads = append(threads, t)
	threads = append(threads, prev.Threads...)
	l.current.Store(&LoomSnapshot{Threads: threads, Selected: prev.Selected})

	l.opts.logger.Debug("loom.weave", "thread_id", t.ID, "emotion", t.Emotion, "lifespan", t.Lifespan)
	return t, nil
}

// Resolve archives a thread as weaved or released and removes it from the
// selection.
func (l *Loom) Resolve(id string, resolution types.Resolution) (types.Thread, error) {
	if resolution != types.ResolutionWeaved && resolution != types.ResolutionReleased {
		return types.Thread{}, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.current.Load()
	i := indexOf(prev.Threads, id)
	if i < 0 {
		return types.Thread{}, ErrThreadNotFound
	}
	if !types.IsValidThreadTransition(prev.Threads[i].State, types.StateArchived) {
		return types.Thread{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Threads[i].State, types.StateArchived)
	}

	resolved := ResolveThread(prev.Threads[i], resolution)
	threads := slices.Clone(prev.Threads)
	threads[i] = resolved
	selected := slices.DeleteFunc(slices.Clone(prev.Selected), func(s string) bool { return s == id })
	l.current.Store(&LoomSnapshot{Threads: threads, Selected: selected})

	l.opts.logger.Debug("loom.resolve", "thread_id", id, "resolution", resolution)
	return resolved, nil
}

// Toggle adds or removes a thread from the pairing selection and returns the
// new selection. Selecting a third thread drops the oldest selection.
func (l *Loom) Toggle(id string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.current.Load()
	if indexOf(prev.Threads, id) < 0 {
		return nil, ErrThreadNotFound
	}

	var selected []string
	switch {
	case slices.Contains(prev.Selected, id):
		selected = slices.DeleteFunc(slices.Clone(prev.Selected), func(s string) bool { return s == id })
	case len(prev.Selected) >= maxSelected:
		selected = append(slices.Clone(prev.Selected[len(prev.Selected)-maxSelected+1:]), id)
	default:
		selected = append(slices.Clone(prev.Selected), id)
	}
	l.current.Store(&LoomSnapshot{Threads: prev.Threads, Selected: selected})
	return slices.Clone(selected), nil
}

// Clear removes every thread and the selection.
func (l *Loom) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current.Store(&LoomSnapshot{})
}

// Tick applies energy decay at now. A new snapshot is published only when
// some thread changed.
func (l *Loom) Tick(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.current.Load()

	var next []types.Thread
	for i, t := range prev.Threads {
		d := DecayThread(t, now)
		if d.Energy == t.Energy && d.State == t.State {
			continue
		}
		if next == nil {
			next = slices.Clone(prev.Threads)
		}
		next[i] = d
		if d.State != t.State {
			l.opts.logger.Debug("loom.reflection", "thread_id", t.ID)
		}
	}
	if next == nil {
		return
	}
	l.current.Store(&LoomSnapshot{Threads: next, Selected: prev.Selected})
}

// Metrics returns state counts, the balance and the rounded mean energy.
func (l *Loom) Metrics() Metrics {
	return MetricsOf(l.current.Load().Threads)
}

// MetricsOf computes Metrics for any thread collection.
func MetricsOf(threads []types.Thread) Metrics {
	var m Metrics
	var energy float64
	for _, t := range threads {
		switch t.State {
		case types.StateLooming:
			m.Looming++
		case types.StateReflection:
			m.Reflection++
		case types.StateArchived:
			m.Archived++
		}
		energy += t.Energy
	}
	b := ComputeBalance(threads)
	m.Score = b.Score
	m.Interpretation = b.Interpretation
	if len(threads) > 0 {
		m.AverageEnergy = int(math.Floor(energy/float64(len(threads)) + 0.5))
	}
	return m
}

// Reciprocity returns the pairing narrative for the two selected threads.
// ok is false unless exactly two existing threads are selected.
func (l *Loom) Reciprocity() (narrative string, ok bool) {
	s := l.current.Load()
	if len(s.Selected) != maxSelected {
		return "", false
	}
	a, b := indexOf(s.Threads, s.Selected[0]), indexOf(s.Threads, s.Selected[1])
	if a < 0 || b < 0 {
		return "", false
	}
	return insight.PairNarrative(s.Threads[a], s.Threads[b]), true
}

func indexOf(threads []types.Thread, id string) int {
	return slices.IndexFunc(threads, func(t types.Thread) bool { return t.ID == id })
}

func newUUID() string { return uuid.New().String() }
