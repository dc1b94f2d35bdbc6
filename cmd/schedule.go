package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clinic-backup/internal/backup"
	"clinic-backup/internal/scheduler"

	"github.com/spf13/cobra"
)

var (
	scheduleCron     string
	scheduleKeepDays int
)

// scheduleCmd runs unattended periodic dumps
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run periodic dumps on a cron schedule",
	Long: `Run the dump producer unattended on a cron schedule until
interrupted. Each tick behaves exactly like 'clinic-backup dump':
one snapshot, then the retention sweep. Overlapping ticks are
skipped, never queued.

Examples:
  # Nightly dump at 03:00
  clinic-backup schedule --cron "0 3 * * *"

  # Hourly dumps keeping only 2 days of snapshots
  clinic-backup schedule --cron "@hourly" --keep 2`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "0 3 * * *", "cron expression for dump runs")
	scheduleCmd.Flags().IntVar(&scheduleKeepDays, "keep", 0, "days to keep snapshots (overrides configuration)")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, store, eng, logger, err := components()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := backup.NewProducer(cfg, store, eng, logger)

	return scheduler.New(logger).Run(ctx, scheduleCron, func(ctx context.Context) {
		_, err := producer.Produce(ctx, backup.ProduceOptions{KeepDays: scheduleKeepDays})
		if err != nil {
			logger.Errorf("Scheduled dump failed: %v", err)
		}
	})
}
