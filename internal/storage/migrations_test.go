package storage_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/scrypster/ephemera/internal/storage"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"m/001_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"m/001_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"m/002_gears.up.sql":     {Data: []byte("CREATE TABLE gears (id INTEGER PRIMARY KEY);")},
		"m/002_gears.down.sql":   {Data: []byte("DROP TABLE gears;")},
		"m/README.md":            {Data: []byte("ignored")},
		"m/xyz_bad.up.sql":       {Data: []byte("not sql")},
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrationManager_UpDown(t *testing.T) {
	ctx := context.Background()
	db := openMemoryDB(t)

	mgr, err := storage.NewMigrationManager(ctx, db, testMigrations(), "m", storage.PlaceholderQuestion)
	require.NoError(t, err)

	_, err = mgr.Version(ctx)
	assert.ErrorIs(t, err, storage.ErrNoMigration)

	applied, err := mgr.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.True(t, tableExists(t, db, "widgets"))
	assert.True(t, tableExists(t, db, "gears"))

	v, err := mgr.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	applied, err = mgr.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied, "second Up is a no-op")

	require.NoError(t, mgr.Down(ctx))
	assert.False(t, tableExists(t, db, "widgets"))
	_, err = mgr.Version(ctx)
	assert.ErrorIs(t, err, storage.ErrNoMigration)
}

func TestMigrationManager_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openMemoryDB(t)
	fsys := fstest.MapFS{
		"m/001_ok.up.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"m/002_broken.up.sql": {Data: []byte("CREATE TABLE nope (;")},
	}

	mgr, err := storage.NewMigrationManager(ctx, db, fsys, "m", "")
	require.NoError(t, err)

	applied, err := mgr.Up(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, applied)

	v, err := mgr.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestNewMigrationManager_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := storage.NewMigrationManager(ctx, nil, testMigrations(), "m", "")
	assert.Error(t, err)

	_, err = storage.NewMigrationManager(ctx, openMemoryDB(t), testMigrations(), "missing", "")
	assert.Error(t, err)
}

func TestValidateState(t *testing.T) {
	assert.NoError(t, storage.ValidateState(storage.InitialState()))

	bad := storage.InitialState()
	bad.Curiosity = 1.2
	assert.ErrorIs(t, storage.ValidateState(bad), storage.ErrInvalidInput)

	bad = storage.InitialState()
	bad.Mood = ""
	assert.ErrorIs(t, storage.ValidateState(bad), storage.ErrInvalidInput)
}
