package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// listCmd enumerates the snapshots in the backup store
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots in the backup store",
	Long: `List the completed snapshots in the backup store, newest first,
with their creation time, age, size, and compression format.
In-progress and unrecognized files are not shown.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, store, _, _, err := components()
	if err != nil {
		return err
	}

	snaps, err := store.List()
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		fmt.Printf("No snapshots in %s\n", store.Dir())
		return nil
	}

	header := color.New(color.Bold)
	header.Printf("%-45s %-20s %-10s %-10s %s\n", "NAME", "CREATED", "AGE", "SIZE", "FORMAT")

	now := time.Now()
	for i := len(snaps) - 1; i >= 0; i-- {
		snap := snaps[i]
		fmt.Printf("%-45s %-20s %-10s %-10s %s\n",
			snap.Name(),
			snap.Timestamp.Format("2006-01-02 15:04:05"),
			formatAge(snap.Age(now)),
			formatSize(snap.Size),
			snap.Format,
		)
	}

	return nil
}

// formatAge renders a duration as short day/hour text
func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
