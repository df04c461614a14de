// Package cli provides the command-line interface for ephemera.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/scrypster/ephemera/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	apiURL     string
	configPath string
	verbose    bool
}

// NewRootCmd builds the command tree. Output goes to the command's writers
// so tests can capture it.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ephemera",
		Short: "Ephemeral intentions and a small curious lifeform",
		Long: `Ephemera weaves intentions into threads that fade over a playful horizon,
and talks to a lifeform server that asks one question at a time.

Offline commands (insight, pair, surprise, decay, balance, horizon) need no
server. state, reply and watch talk to the server at --api-url; seed and backup
work on the configured database directly.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "lifeform server address (default from EPHEMERA_API_URL)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default from EPHEMERA_CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newInsightCmd(),
		newPairCmd(),
		newSurpriseCmd(),
		newHorizonCmd(),
		newDecayCmd(),
		newBalanceCmd(),
		newStateCmd(opts),
		newReplyCmd(opts),
		newWatchCmd(opts),
		newSeedCmd(opts),
		newBackupCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads configuration, honouring --config.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadConfigFile(o.configPath)
	}
	return config.LoadConfig()
}

// baseURL resolves the server address: flag first, then configuration.
func (o *rootOptions) baseURL() (string, error) {
	if o.apiURL != "" {
		return o.apiURL, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Client.BaseURL, nil
}

// logger writes to stderr only with --verbose.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	if !o.verbose {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
