package backup_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ephemera/internal/backup"
	"github.com/scrypster/ephemera/internal/storage/sqlite"
)

func seededDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lifeform.db")

	store, err := sqlite.NewStore(ctx, path)
	require.NoError(t, err)
	_, err = store.EnsureState(ctx)
	require.NoError(t, err)
	_, err = store.CreateQuestion(ctx, "What did you notice today?")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	return path
}

func TestSnapshot_RestoresQuestion(t *testing.T) {
	ctx := context.Background()
	src := seededDB(t)
	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	info, err := backup.Snapshot(ctx, src, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lifeform-20260314T092653Z.db"), info.Path)
	assert.True(t, info.Verified)
	assert.Positive(t, info.Size)

	store, err := sqlite.NewStore(ctx, info.Path)
	require.NoError(t, err)
	defer store.Close()

	q, err := store.PendingQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "What did you notice today?", q.Text)
}

func TestSnapshot_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := backup.Snapshot(ctx, ":memory:", dir, time.Now())
	assert.ErrorIs(t, err, backup.ErrInMemory)

	_, err = backup.Snapshot(ctx, filepath.Join(dir, "missing.db"), dir, time.Now())
	assert.ErrorIs(t, err, os.ErrNotExist)

	src := seededDB(t)
	now := time.Now()
	_, err = backup.Snapshot(ctx, src, dir, now)
	require.NoError(t, err)
	_, err = backup.Snapshot(ctx, src, dir, now)
	assert.ErrorContains(t, err, "already exists")
}

func TestVerify_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifeform-20260101T000000Z.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database at all, just words"), 0o644))

	assert.Error(t, backup.Verify(context.Background(), path))
}

func TestListAndPrune(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		name := "lifeform-" + base.Add(time.Duration(i)*time.Hour).Format("20060102T150405Z") + ".db"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lifeform-garbled.db"), []byte("keep"), 0o644))

	snaps, err := backup.List(dir)
	require.NoError(t, err)
	require.Len(t, snaps, 5)
	assert.Equal(t, base.Add(4*time.Hour), snaps[0].Timestamp)
	assert.Equal(t, base, snaps[4].Timestamp)

	removed, err := backup.Prune(dir, 2)
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	snaps, err = backup.List(dir)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, base.Add(3*time.Hour), snaps[1].Timestamp)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "lifeform-garbled.db"))

	removed, err = backup.Prune(dir, 0)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}

func TestList_MissingDirectory(t *testing.T) {
	_, err := backup.List(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
