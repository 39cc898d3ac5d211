package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/backup"
	"github.com/threadher/threadher/internal/config"
)

// NewBackupCmd creates the 'backup' command and its list/restore subcommands.
func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the local sqlite result database",
		Long: `Write a verified snapshot of the sqlite result database into
THREADHER_BACKUP_DIR and prune snapshots beyond THREADHER_BACKUP_KEEP.
Only the sqlite storage engine is supported.`,
		Example: `  threadher backup
  threadher backup list
  threadher backup restore data/backups/threadher-20260301-090000.000000.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupList(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace the database with a snapshot (stop the server first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupRestore(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func backupService() (*backup.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Engine != config.EngineSQLite {
		return nil, errors.New("backup requires the sqlite storage engine")
	}
	return backup.New(filepath.Join(cfg.Storage.DataPath, app.SQLiteFile), backup.Options{
		Dir:    cfg.Backup.Dir,
		Keep:   cfg.Backup.Keep,
		Verify: cfg.Backup.Verify,
	})
}

func runBackup(ctx context.Context, out io.Writer) error {
	svc, err := backupService()
	if err != nil {
		return err
	}
	snap, err := svc.Take(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Snapshot written: %s (%d bytes, verified=%v)\n", snap.Path, snap.Size, snap.Verified)
	return nil
}

func runBackupList(out io.Writer) error {
	svc, err := backupService()
	if err != nil {
		return err
	}
	snaps, err := svc.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots.")
		return nil
	}
	fmt.Fprintf(out, "Snapshots (%d):\n", len(snaps))
	for _, s := range snaps {
		fmt.Fprintf(out, "  %s  %s  %d bytes\n", s.Taken.Format("2006-01-02 15:04:05"), s.Path, s.Size)
	}
	return nil
}

func runBackupRestore(ctx context.Context, out io.Writer, path string) error {
	svc, err := backupService()
	if err != nil {
		return err
	}
	if err := svc.Restore(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database restored from %s\n", path)
	return nil
}
