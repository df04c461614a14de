package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/pkg/types"
)

// newTestStore creates an in-memory SQLite store with migrations applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), ":memory:")
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnsureState_CreatesSingleton(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state, err := store.EnsureState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(storage.StateID), state.ID)
	assert.Equal(t, "curious", state.Mood)
	assert.Equal(t, 0.5, state.Curiosity)
	assert.Nil(t, state.LastReflectedAt)

	again, err := store.EnsureState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, again)
}

func TestQuestions_PendingOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.PendingQuestion(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first, err := store.CreateQuestion(ctx, "What sparked you today?")
	require.NoError(t, err)
	_, err = store.CreateQuestion(ctx, "What grounded you?")
	require.NoError(t, err)

	pending, err := store.PendingQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, pending.ID)
	assert.Equal(t, types.QuestionPending, pending.Status)
	assert.WithinDuration(t, first.CreatedAt, pending.CreatedAt, time.Millisecond)

	_, err = store.CreateQuestion(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestAnswerQuestion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.CreateQuestion(ctx, "What is new?")
	require.NoError(t, err)

	mem, err := store.AnswerQuestion(ctx, q.ID, "A quiet walk.")
	require.NoError(t, err)
	assert.Equal(t, q.ID, mem.QuestionID)
	assert.NotZero(t, mem.ID)

	got, err := store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, types.QuestionAnswered, got.Status)

	_, err = store.AnswerQuestion(ctx, q.ID, "twice")
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = store.AnswerQuestion(ctx, 9999, "nobody asked")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := store.CountMemories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed answers must not leave memories behind")

	_, err = store.PendingQuestion(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordReflection_UpdatesStateAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestReflection(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.EnsureState(ctx)
	require.NoError(t, err)
	q, err := store.CreateQuestion(ctx, "What did you learn?")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	next := types.LifeformState{Mood: "thoughtful", Curiosity: 0.42, LastReflectedAt: &now}
	r, err := store.RecordReflection(ctx, q.ID, "Assimilated the lesson.", next)
	require.NoError(t, err)

	latest, err := store.LatestReflection(ctx)
	require.NoError(t, err)
	assert.Equal(t, r.ID, latest.ID)
	assert.Equal(t, "Assimilated the lesson.", latest.Text)

	state, err := store.EnsureState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thoughtful", state.Mood)
	assert.InDelta(t, 0.42, state.Curiosity, 1e-9)
	require.NotNil(t, state.LastReflectedAt)
	assert.True(t, state.LastReflectedAt.Equal(now))

	bad := next
	bad.Curiosity = 1.5
	_, err = store.RecordReflection(ctx, q.ID, "too curious", bad)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	latest, err = store.LatestReflection(ctx)
	require.NoError(t, err)
	assert.Equal(t, r.ID, latest.ID, "rejected reflection must not be stored")
}

func TestRecordReflection_UnknownQuestion(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RecordReflection(context.Background(), 42, "orphan", storage.InitialState())
	assert.Error(t, err, "foreign key must reject reflections for unknown questions")
}

func TestNewStore_FileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lifeform.db")

	store, err := NewStore(ctx, path)
	require.NoError(t, err)
	_, err = store.CreateQuestion(ctx, "Still there?")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	q, err := reopened.PendingQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Still there?", q.Text)
}

func TestConcurrentAnswers_OnlyOneWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	q, err := store.CreateQuestion(ctx, "Race?")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AnswerQuestion(ctx, q.ID, "me"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestDBPathFromDSN(t *testing.T) {
	assert.Equal(t, "", dbPathFromDSN(":memory:"))
	assert.Equal(t, "/tmp/a.db", dbPathFromDSN("/tmp/a.db"))
	assert.Equal(t, "/tmp/a.db", dbPathFromDSN("file:/tmp/a.db?mode=rwc"))
	assert.Equal(t, "", dbPathFromDSN("file::memory:"))
}
