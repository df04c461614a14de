package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/scrypster/ephemera/internal/config"
	"github.com/scrypster/ephemera/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: EPHEMERA_CONFIG_PATH or config.yaml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, level, closeLog := config.SetupLogger(cfg.Logging)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, level, nil); err != nil {
		logger.Error("server.exit", "error", err)
		stop()
		_ = closeLog()
		os.Exit(1)
	}
	logger.Info("Shutting down gracefully...")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig()
}

// run assembles the app and serves until ctx is done. When ready is non-nil
// it receives the listening address once the listener is open.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, level *slog.LevelVar, ready chan<- net.Addr) error {
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("store.close", "error", err)
		}
	}()

	ln, err := app.Server.Listen()
	if err != nil {
		return err
	}
	if ready != nil {
		ready <- ln.Addr()
	}
	logger.Info("Ephemera lifeform running", "url", "http://"+ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx, ln)
	})
	if cfg.Path != "" && level != nil {
		watcher := config.NewWatcher(cfg.Path, level, logger, nil)
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				// A broken watcher only loses hot reload.
				logger.Warn("config.watch_failed", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
