package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrypster/ephemera/internal/backup"
	"github.com/scrypster/ephemera/internal/server"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var (
		dir  string
		keep int
		list bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the configured SQLite database",
		Long: `Write a verified snapshot of the lifeform database into --dir and keep
only the newest --keep snapshots. Safe while the server is running.

Examples:
  ephemera backup
  ephemera backup --dir /var/backups/lifeform --keep 30
  ephemera backup --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				snaps, err := backup.List(dir)
				if err != nil {
					return err
				}
				for _, s := range snaps {
					fmt.Fprintf(out, "%s  %8d bytes  %s\n", s.Timestamp.Format(time.RFC3339), s.Size, s.Path)
				}
				return nil
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, ok := server.SQLitePath(cfg.Storage.DatabaseURL)
			if !ok {
				return fmt.Errorf("backup supports sqlite databases only, got %q", cfg.Storage.DatabaseURL)
			}

			info, err := backup.Snapshot(cmd.Context(), path, dir, time.Now())
			if err != nil {
				return err
			}
			removed, err := backup.Prune(dir, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Backup written: %s (%d bytes)\n", info.Path, info.Size)
			if len(removed) > 0 {
				fmt.Fprintf(out, "Pruned %d old snapshot(s)\n", len(removed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "backups", "snapshot directory")
	cmd.Flags().IntVar(&keep, "keep", 10, "snapshots to keep")
	cmd.Flags().BoolVar(&list, "list", false, "list snapshots instead of writing one")
	return cmd
}
