package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes and applies the log level
// to a LevelVar. Other fields take effect on restart.
type Watcher struct {
	path   string
	level  *slog.LevelVar
	logger *slog.Logger
	onLoad func(*Config)
}

// NewWatcher creates a watcher for path. onLoad may be nil.
func NewWatcher(path string, level *slog.LevelVar, logger *slog.Logger, onLoad func(*Config)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, level: level, logger: logger, onLoad: onLoad}
}

// Run watches the directory holding the file until ctx is done. Watching the
// directory keeps working across editors that replace the file on save.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		return errors.New("config: watcher requires a file path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)
	w.logger.Info("config.watch", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config.watch_error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfigFile(w.path)
	if err != nil {
		w.logger.Warn("config.reload_failed", "path", w.path, "error", err)
		return
	}
	if w.level != nil {
		if l, err := ParseLevel(cfg.Logging.Level); err == nil && l != w.level.Level() {
			w.level.Set(l)
			w.logger.Info("config.level_changed", "level", l.String())
		}
	}
	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}
