package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/internal/storage/postgres"
	"github.com/scrypster/ephemera/internal/storage/sqlite"
)

// ErrUnsupportedDatabase is returned for database URLs with an unknown scheme.
var ErrUnsupportedDatabase = errors.New("server: unsupported database url")

const sqlitePrefix = "sqlite:///"

// SQLitePath converts a sqlite:/// URL into a file path for the driver.
// "sqlite:///./data/x.db" is relative, "sqlite:////var/x.db" is absolute,
// and "sqlite:///:memory:" is an in-memory database.
func SQLitePath(databaseURL string) (string, bool) {
	if !strings.HasPrefix(databaseURL, sqlitePrefix) {
		return "", false
	}
	path := strings.TrimPrefix(databaseURL, sqlitePrefix)
	if path == "" {
		return "", false
	}
	return path, true
}

// OpenStore opens the LifeformStore named by databaseURL. For sqlite files
// the parent directory is created first.
func OpenStore(ctx context.Context, databaseURL string) (storage.LifeformStore, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite:"):
		path, ok := SQLitePath(databaseURL)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, databaseURL)
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("server: create database directory: %w", err)
			}
		}
		return sqlite.NewStore(ctx, path)

	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.NewStore(ctx, databaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, databaseURL)
}
