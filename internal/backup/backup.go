// Package backup snapshots the lifeform's SQLite database and prunes old
// snapshots.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	filePrefix = "lifeform-"
	fileSuffix = ".db"
	stampFmt   = "20060102T150405Z"
)

// ErrInMemory is returned when the database lives only in memory.
var ErrInMemory = errors.New("backup: in-memory database has nothing to snapshot")

// Info describes one snapshot file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
	Verified  bool
}

// Snapshot writes a consistent copy of the database at dbPath into dir,
// named by now in UTC, and verifies it. VACUUM INTO reads through the WAL so
// a running server does not need to stop.
func Snapshot(ctx context.Context, dbPath, dir string, now time.Time) (Info, error) {
	if dbPath == ":memory:" {
		return Info{}, ErrInMemory
	}
	if _, err := os.Stat(dbPath); err != nil {
		return Info{}, fmt.Errorf("backup: source %s: %w", dbPath, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("backup: create directory: %w", err)
	}

	dest := filepath.Join(dir, filePrefix+now.UTC().Format(stampFmt)+fileSuffix)
	if _, err := os.Stat(dest); err == nil {
		return Info{}, fmt.Errorf("backup: %s already exists", dest)
	}

	src, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return Info{}, fmt.Errorf("backup: open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := src.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return Info{}, fmt.Errorf("backup: vacuum into %s: %w", dest, err)
	}
	if err := Verify(ctx, dest); err != nil {
		return Info{}, err
	}

	st, err := os.Stat(dest)
	if err != nil {
		return Info{}, fmt.Errorf("backup: stat snapshot: %w", err)
	}
	return Info{Path: dest, Timestamp: now.UTC().Truncate(time.Second), Size: st.Size(), Verified: true}, nil
}

// Verify runs SQLite's integrity check against a snapshot.
func Verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("backup: open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check failed: %s", result)
	}
	return nil
}

// List returns the snapshots in dir, newest first. Files that do not carry
// a snapshot name are ignored.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup: read directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ts, err := time.Parse(stampFmt, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Path: filepath.Join(dir, name), Timestamp: ts, Size: fi.Size()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Prune keeps the newest keep snapshots and removes the rest. It returns the
// removed paths. keep below one keeps one.
func Prune(dir string, keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	snaps, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(snaps) <= keep {
		return nil, nil
	}

	var removed []string
	var errs []error
	for _, s := range snaps[keep:] {
		if err := os.Remove(s.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, s.Path)
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("backup: prune: %w", errors.Join(errs...))
	}
	return removed, nil
}
