package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clinic-backup/internal/backup"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	restoreYes        bool
	restoreFile       string
	restoreDropSchema bool
)

// restoreCmd replays a snapshot into the database
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the database from a snapshot",
	Long: `Replay a snapshot into the target database.

Without --file the latest snapshot in the backup store is used,
selected by the timestamp embedded in the filename. Restore is
destructive and refuses to run without --yes; the flag is the only
confirmation mechanism, so the command is safe to script.

With --drop-schema the public schema is dropped and recreated before
the replay. If the replay then fails, the database is left without its
previous schema: the failure is reported as incomplete and the snapshot
is kept so the restore can be retried.

Examples:
  # Restore the latest snapshot
  clinic-backup restore --yes

  # Restore a specific snapshot file
  clinic-backup restore --yes --file backups/clinic-20240102090000.sql.gz

  # Drop schema public first for a clean rebuild
  clinic-backup restore --yes --drop-schema`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "confirm the destructive restore")
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "snapshot file to restore from (default: latest in store)")
	restoreCmd.Flags().BoolVar(&restoreDropSchema, "drop-schema", false, "drop and recreate schema public before replay")

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, store, eng, logger, err := components()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := backup.NewExecutor(cfg, store, eng, logger)

	if restoreDropSchema && restoreYes {
		color.Red("WARNING: schema public will be dropped before replay")
	}

	result, err := executor.Restore(ctx, backup.Request{
		SnapshotPath: restoreFile,
		DropSchema:   restoreDropSchema,
		Confirmed:    restoreYes,
	})
	if err != nil {
		if hint := describeError(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		return err
	}

	color.Green("Restored %s from %s", cfg.Database.Name, result.Snapshot.Name())
	return nil
}
