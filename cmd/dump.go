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
	dumpKeepDays int
	dumpDryRun   bool
)

// dumpCmd creates a snapshot and rotates old ones
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Create a compressed snapshot and rotate old ones",
	Long: `Create a compressed, timestamped snapshot of the target database and
delete snapshots older than the retention window.

The dump streams pg_dump output through the compression filter into a
temporary file and renames it into place only on success; a failed dump
leaves the backup store exactly as it was. The retention sweep runs
after the snapshot is published, and a snapshot exactly at the
retention boundary is kept.

Examples:
  # Snapshot with the configured retention window
  clinic-backup dump

  # Keep 30 days of snapshots for this run only
  clinic-backup dump --keep 30

  # Show what would be written and rotated without touching anything
  clinic-backup dump --dry-run`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().IntVar(&dumpKeepDays, "keep", 0, "days to keep snapshots (overrides configuration)")
	dumpCmd.Flags().BoolVar(&dumpDryRun, "dry-run", false, "show what would happen without executing pg_dump")

	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, store, eng, logger, err := components()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := backup.NewProducer(cfg, store, eng, logger)

	result, err := producer.Produce(ctx, backup.ProduceOptions{
		KeepDays: dumpKeepDays,
		DryRun:   dumpDryRun,
	})
	if err != nil {
		return err
	}

	if result.DryRun {
		color.Yellow("Dry run: no snapshot written")
	} else {
		color.Green("Snapshot written: %s (%s)", result.Snapshot.Name(), formatSize(result.Snapshot.Size))
	}

	printRetention(result.Retention)
	return nil
}

// printRetention prints a short rotation summary for the operator
func printRetention(r *backup.RetentionResult) {
	if r == nil {
		return
	}

	verb := "Rotated"
	if r.DryRun {
		verb = "Would rotate"
	}

	if len(r.Deleted) == 0 {
		fmt.Printf("%s nothing; %d snapshot(s) within %d day(s)\n", verb, len(r.Kept), r.KeepDays)
		return
	}

	fmt.Printf("%s %d snapshot(s) older than %d day(s):\n", verb, len(r.Deleted), r.KeepDays)
	for _, snap := range r.Deleted {
		fmt.Printf("  - %s\n", snap.Name())
	}
	for _, msg := range r.Errors {
		color.Yellow("  ! %s", msg)
	}
}

// formatSize renders a byte count for humans
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
