// Package metabolism is the lifeform's core loop: it keeps one question
// pending, absorbs replies as memories, reflects on them and drifts its
// mood and curiosity accordingly.
package metabolism

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/scrypster/ephemera/internal/llm"
	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/pkg/types"
)

// Moods in index order. The curiosity-driven index wraps around this list.
var Moods = []string{"curious", "playful", "thoughtful", "grounded", "radiant"}

const (
	moodPlayful    = 1
	moodThoughtful = 2
	moodGrounded   = 3
)

// DefaultTickInterval is how often the scheduled job makes sure a question
// is pending.
const DefaultTickInterval = 180 * time.Second

// ErrQuestionNotPending is returned by IngestReply for an unknown or
// already answered question.
var ErrQuestionNotPending = errors.New("metabolism: question not found or already answered")

// Notifier receives the state payload after every change.
type Notifier func(ctx context.Context, payload types.StatePayload)

// Option configures a Metabolism.
type Option func(*Metabolism)

// WithLogger sets the logger used for the lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metabolism) { m.logger = logger }
}

// WithClock replaces time.Now for last_reflected_at.
func WithClock(now func() time.Time) Option {
	return func(m *Metabolism) { m.now = now }
}

// WithNotifier registers a callback for state changes.
func WithNotifier(n Notifier) Option {
	return func(m *Metabolism) { m.notify = n }
}

// Metabolism coordinates the store and the thinker. Mutating operations are
// serialised so a scheduled tick and a reply never create two pending
// questions.
type Metabolism struct {
	store   storage.LifeformStore
	thinker llm.Thinker
	logger  *slog.Logger
	now     func() time.Time
	notify  Notifier

	mu sync.Mutex
}

// New creates a Metabolism.
func New(store storage.LifeformStore, thinker llm.Thinker, opts ...Option) *Metabolism {
	m := &Metabolism{
		store:   store,
		thinker: thinker,
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateQuestion returns the pending question, asking the thinker for a
// new one when none is pending.
func (m *Metabolism) GenerateQuestion(ctx context.Context) (*types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, created, err := m.ensureQuestion(ctx)
	if err != nil {
		return nil, err
	}
	if created {
		m.publish(ctx)
	}
	return q, nil
}

func (m *Metabolism) ensureQuestion(ctx context.Context) (*types.Question, bool, error) {
	state, err := m.store.EnsureState(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("metabolism: ensure state: %w", err)
	}

	existing, err := m.store.PendingQuestion(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("metabolism: pending question: %w", err)
	}

	last, err := m.latestReflection(ctx)
	if err != nil {
		return nil, false, err
	}

	text, err := m.thinker.ProposeQuestion(ctx, *state, last)
	if err != nil {
		return nil, false, fmt.Errorf("metabolism: propose question: %w", err)
	}
	q, err := m.store.CreateQuestion(ctx, text)
	if err != nil {
		return nil, false, fmt.Errorf("metabolism: create question: %w", err)
	}

	m.logger.Info("question.generated", "question_id", q.ID, "text", q.Text)
	return q, true, nil
}

// IngestReply stores text as the memory answering questionID, reflects on
// it, updates the state and makes sure a new question is pending.
func (m *Metabolism) IngestReply(ctx context.Context, questionID int64, text string) (types.StatePayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	question, err := m.store.GetQuestion(ctx, questionID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.StatePayload{}, ErrQuestionNotPending
	}
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: get question: %w", err)
	}
	if question.Status != types.QuestionPending {
		return types.StatePayload{}, ErrQuestionNotPending
	}

	state, err := m.store.EnsureState(ctx)
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: ensure state: %w", err)
	}

	memory, err := m.store.AnswerQuestion(ctx, questionID, text)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict) {
		return types.StatePayload{}, ErrQuestionNotPending
	}
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: answer question: %w", err)
	}
	question.Status = types.QuestionAnswered
	m.logger.Info("reply.ingested",
		"question_id", question.ID, "memory_id", memory.ID, "length", utf8.RuneCountInString(text))

	reflectionText, err := m.thinker.GenerateReflection(ctx, *question, *memory, *state)
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: generate reflection: %w", err)
	}

	next := Absorb(*state, memory.UserReply, m.now())
	reflection, err := m.store.RecordReflection(ctx, question.ID, reflectionText, next)
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: record reflection: %w", err)
	}
	m.logger.Info("reflection.created",
		"question_id", question.ID, "reflection_id", reflection.ID,
		"state_mood", next.Mood, "state_curiosity", next.Curiosity)

	pending, _, err := m.ensureQuestion(ctx)
	if err != nil {
		return types.StatePayload{}, err
	}

	payload, err := m.BuildPayload(ctx, next, pending, reflection)
	if err != nil {
		return types.StatePayload{}, err
	}
	m.emit(ctx, payload)
	return payload, nil
}

// State returns the current payload, generating a question when none is
// pending.
func (m *Metabolism) State(ctx context.Context) (types.StatePayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, created, err := m.ensureQuestion(ctx)
	if err != nil {
		return types.StatePayload{}, err
	}
	payload, err := m.currentPayload(ctx, pending)
	if err != nil {
		return types.StatePayload{}, err
	}
	if created {
		m.emit(ctx, payload)
	}
	return payload, nil
}

// Seed ensures the state row and a pending question exist and returns the
// resulting payload.
func (m *Metabolism) Seed(ctx context.Context) (types.StatePayload, error) {
	return m.State(ctx)
}

// Tick is the scheduled job: it logs the tick and keeps a question pending.
func (m *Metabolism) Tick(ctx context.Context) {
	m.logger.Info("scheduler.tick")
	if _, err := m.GenerateQuestion(ctx); err != nil {
		m.logger.Error("scheduler.tick failed", "error", err)
	}
}

// BuildPayload assembles the wire payload; pending and reflection may be nil.
func (m *Metabolism) BuildPayload(ctx context.Context, state types.LifeformState, pending *types.Question, reflection *types.Reflection) (types.StatePayload, error) {
	count, err := m.store.CountMemories(ctx)
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: count memories: %w", err)
	}

	payload := types.StatePayload{
		MemoriesCount: count,
		State:         types.MoodPayload{Mood: state.Mood, Curiosity: state.Curiosity},
	}
	if pending != nil {
		payload.PendingQuestion = &types.QuestionPayload{ID: pending.ID, Text: pending.Text}
	}
	if reflection != nil {
		payload.LastReflection = &types.ReflectionPayload{ID: reflection.ID, Text: reflection.Text}
	}
	return payload, nil
}

func (m *Metabolism) currentPayload(ctx context.Context, pending *types.Question) (types.StatePayload, error) {
	state, err := m.store.EnsureState(ctx)
	if err != nil {
		return types.StatePayload{}, fmt.Errorf("metabolism: ensure state: %w", err)
	}
	last, err := m.latestReflection(ctx)
	if err != nil {
		return types.StatePayload{}, err
	}
	return m.BuildPayload(ctx, *state, pending, last)
}

func (m *Metabolism) latestReflection(ctx context.Context) (*types.Reflection, error) {
	r, err := m.store.LatestReflection(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metabolism: latest reflection: %w", err)
	}
	return r, nil
}

// publish builds and emits the current payload. Errors are logged only.
func (m *Metabolism) publish(ctx context.Context) {
	if m.notify == nil {
		return
	}
	pending, err := m.store.PendingQuestion(ctx)
	if err != nil {
		pending = nil
	}
	payload, err := m.currentPayload(ctx, pending)
	if err != nil {
		m.logger.Warn("metabolism: state broadcast skipped", "error", err)
		return
	}
	m.emit(ctx, payload)
}

func (m *Metabolism) emit(ctx context.Context, payload types.StatePayload) {
	if m.notify != nil {
		m.notify(ctx, payload)
	}
}

// Absorb returns state after taking in one reply. Long replies raise
// curiosity and short ones lower it, by at most 0.08 per reply. The mood
// follows curiosity unless the reply names a calming, exciting or
// reflective word.
func Absorb(state types.LifeformState, reply string, now time.Time) types.LifeformState {
	content := strings.ToLower(strings.TrimSpace(reply))
	length := float64(utf8.RuneCountInString(content))

	delta := clamp((length-120)/800, -0.08, 0.08)
	curiosity := clamp(state.Curiosity+delta, 0, 1)

	index := int(curiosity*10) % len(Moods)
	switch {
	case containsAny(content, "calm", "ground", "rest"):
		index = moodGrounded
	case containsAny(content, "excite", "joy", "spark"):
		index = moodPlayful
	case containsAny(content, "reflect", "ponder", "learn"):
		index = moodThoughtful
	}

	state.Curiosity = curiosity
	state.Mood = Moods[index]
	state.LastReflectedAt = &now
	return state
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
