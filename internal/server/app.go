package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/scrypster/ephemera/internal/config"
	"github.com/scrypster/ephemera/internal/llm"
	"github.com/scrypster/ephemera/internal/metabolism"
	"github.com/scrypster/ephemera/internal/scheduler"
	"github.com/scrypster/ephemera/internal/storage"
	"github.com/scrypster/ephemera/web/handlers"
)

// App is the assembled server process: store, thinker, metabolism, the
// websocket hub, the HTTP server and the metabolism tick.
type App struct {
	Store      storage.LifeformStore
	Metabolism *metabolism.Metabolism
	Hub        *handlers.WebSocketHub
	Server     *Server
	Ticker     *scheduler.Task

	logger *slog.Logger
}

// NewApp opens the configured store and wires every component. Close
// releases the store.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, err
	}

	thinker := llm.NewThinker(llm.OpenAIConfig{
		APIKey:  cfg.LLM.OpenAIAPIKey,
		Model:   cfg.LLM.OpenAIModel,
		BaseURL: cfg.LLM.OpenAIBaseURL,
		Breaker: llm.CircuitBreakerConfig{Name: "openai", Logger: logger},
	}, logger)

	app, err := assemble(cfg, store, thinker, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func assemble(cfg *config.Config, store storage.LifeformStore, thinker llm.Thinker, logger *slog.Logger) (*App, error) {
	hub := handlers.NewWebSocketHub(cfg.Server.AllowedOrigins, logger)
	m := metabolism.New(store, thinker,
		metabolism.WithLogger(logger),
		metabolism.WithNotifier(hub.NotifyState))

	ticker, err := scheduler.New("metabolism", cfg.Scheduler.Interval(), m.Tick,
		scheduler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("server: metabolism scheduler: %w", err)
	}

	return &App{
		Store:      store,
		Metabolism: m,
		Hub:        hub,
		Server:     New(cfg, m, hub, logger),
		Ticker:     ticker,
		logger:     logger,
	}, nil
}

// Bootstrap makes sure the state row exists and a question is pending.
func (a *App) Bootstrap(ctx context.Context) error {
	payload, err := a.Metabolism.Seed(ctx)
	if err != nil {
		return fmt.Errorf("server: bootstrap: %w", err)
	}
	attrs := []any{"memories", payload.MemoriesCount, "mood", payload.State.Mood}
	if payload.PendingQuestion != nil {
		attrs = append(attrs, "question_id", payload.PendingQuestion.ID)
	}
	a.logger.Info("lifeform.ready", attrs...)
	return nil
}

// Run bootstraps the lifeform, listens on ln and runs until ctx is done or a
// component fails. The hub, the server and the tick run in one errgroup.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Hub.Run()
		return nil
	})
	g.Go(func() error {
		return a.Server.Serve(gctx, ln)
	})
	g.Go(func() error {
		if err := a.Ticker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// The hub loop only ends on Stop, which Serve calls on shutdown.
		<-gctx.Done()
		a.Hub.Stop()
		return nil
	})

	return g.Wait()
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
