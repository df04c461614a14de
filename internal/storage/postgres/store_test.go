package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/pkg/types"
)

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore connects to the test database and empties the lifeform tables.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := NewStore(ctx, postgresTestDSN(t))
	require.NoError(t, err, "NewStore should succeed")
	require.NoError(t, store.TruncateForTest(ctx))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgres_StateLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state, err := store.EnsureState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "curious", state.Mood)
	assert.Equal(t, 0.5, state.Curiosity)

	q, err := store.CreateQuestion(ctx, "What moved you?")
	require.NoError(t, err)

	pending, err := store.PendingQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, q.ID, pending.ID)

	mem, err := store.AnswerQuestion(ctx, q.ID, "The tide.")
	require.NoError(t, err)
	assert.Equal(t, q.ID, mem.QuestionID)

	_, err = store.AnswerQuestion(ctx, q.ID, "again")
	assert.ErrorIs(t, err, storage.ErrConflict)
	_, err = store.AnswerQuestion(ctx, q.ID+100, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err = store.RecordReflection(ctx, q.ID, "Noted the tide.",
		types.LifeformState{Mood: "grounded", Curiosity: 0.45, LastReflectedAt: &now})
	require.NoError(t, err)

	state, err = store.EnsureState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "grounded", state.Mood)
	require.NotNil(t, state.LastReflectedAt)
	assert.True(t, state.LastReflectedAt.Equal(now))

	latest, err := store.LatestReflection(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Noted the tide.", latest.Text)

	count, err := store.CountMemories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgres_RejectsInvalidState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.CreateQuestion(ctx, "?")
	require.NoError(t, err)
	_, err = store.RecordReflection(ctx, q.ID, "x", types.LifeformState{Mood: "curious", Curiosity: -0.1})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.LatestReflection(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
