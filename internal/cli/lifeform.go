package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scrypster/ephemera/internal/client"
	"github.com/scrypster/ephemera/internal/llm"
	"github.com/scrypster/ephemera/internal/metabolism"
	"github.com/scrypster/ephemera/internal/server"
	"github.com/scrypster/ephemera/pkg/types"
)

func (o *rootOptions) client() (*client.Client, error) {
	base, err := o.baseURL()
	if err != nil {
		return nil, err
	}
	return client.New(base), nil
}

// friendlyError replaces an API error with the server's reason, when the
// server gave one.
func friendlyError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Friendly())
	}
	return err
}

func printState(cmd *cobra.Command, p types.StatePayload) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), renderState(p))
	return err
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the lifeform state and its pending question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			payload, err := c.FetchState(cmd.Context())
			if err != nil {
				return friendlyError(err)
			}
			return printState(cmd, *payload)
		},
	}
}

func newReplyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <question-id> <text...>",
		Short: "Answer the pending question",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("question id must be an integer, got %q", args[0])
			}
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return fmt.Errorf("text must be provided")
			}

			c, err := opts.client()
			if err != nil {
				return err
			}
			payload, err := c.PostReply(cmd.Context(), id, text)
			if err != nil {
				return friendlyError(err)
			}
			return printState(cmd, *payload)
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var noStream bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the lifeform state until interrupted",
		Long: `Poll the state every poll interval (45s by default) and, unless
--no-stream is given, also follow the server's live state stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			updates := make(chan types.StatePayload, 8)
			publish := func(p types.StatePayload) {
				select {
				case updates <- p:
				case <-gctx.Done():
				}
			}

			poller, err := client.NewPoller(c, cfg.Client.PollInterval, publish,
				func(err error) { fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", friendlyError(err)) },
				logger)
			if err != nil {
				return err
			}

			g.Go(func() error {
				_ = poller.Run(gctx)
				return nil
			})
			if !noStream {
				g.Go(func() error {
					if err := c.Subscribe(gctx, publish); err != nil {
						logger.Warn("watch.stream unavailable, polling only", "error", err)
					}
					return nil
				})
			}
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case p := <-updates:
						if err := printState(cmd, p); err != nil {
							return err
						}
					}
				}
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "poll only")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Ensure the state row and a pending question in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx := cmd.Context()

			store, err := server.OpenStore(ctx, cfg.Storage.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			logger := opts.logger(cmd.ErrOrStderr())
			thinker := llm.NewThinker(llm.OpenAIConfig{
				APIKey:  cfg.LLM.OpenAIAPIKey,
				Model:   cfg.LLM.OpenAIModel,
				BaseURL: cfg.LLM.OpenAIBaseURL,
			}, logger)

			payload, err := metabolism.New(store, thinker, metabolism.WithLogger(logger)).Seed(ctx)
			if err != nil {
				return err
			}
			if opts.verbose {
				if err := printState(cmd, payload); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Seed complete.")
			return err
		},
	}
}
