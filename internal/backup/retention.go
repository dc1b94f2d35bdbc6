package backup

import (
	"fmt"
	"time"

	"clinic-backup/internal/logging"
	"clinic-backup/internal/snapshot"
)

// RetentionResult reports the outcome of one retention sweep
type RetentionResult struct {
	Kept     []*snapshot.Snapshot
	Deleted  []*snapshot.Snapshot
	Errors   []string
	KeepDays int
	Cutoff   time.Time
	DryRun   bool
	Duration time.Duration
}

// Sweeper applies the age-based retention policy to the backup store.
// Only completed snapshots are considered; age comes from the timestamp
// embedded in each filename, never from file metadata.
type Sweeper struct {
	store  *snapshot.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewSweeper creates a retention sweeper over the given store
func NewSweeper(store *snapshot.Store, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Sweeper{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep deletes every snapshot strictly older than keepDays. Per-file
// deletion failures are logged and skipped so one unreadable old snapshot
// never blocks the rest of the sweep; they are reported in the result, not
// as an error.
func (s *Sweeper) Sweep(keepDays int, dryRun bool) (*RetentionResult, error) {
	if keepDays <= 0 {
		return nil, NewConfigurationError(fmt.Sprintf("keep days must be positive, got %d", keepDays), nil)
	}

	start := s.now()
	cutoff := start.Add(-time.Duration(keepDays) * 24 * time.Hour)

	snaps, err := s.store.List()
	if err != nil {
		return nil, NewBackupFailed("failed to list backup store for retention sweep", err)
	}

	result := &RetentionResult{
		KeepDays: keepDays,
		Cutoff:   cutoff,
		DryRun:   dryRun,
	}

	for _, snap := range snaps {
		if !snap.Timestamp.Before(cutoff) {
			result.Kept = append(result.Kept, snap)
			continue
		}

		if dryRun {
			result.Deleted = append(result.Deleted, snap)
			s.logger.WithField("snapshot", snap.Name()).Debug("Would delete (dry run)")
			continue
		}

		if err := s.store.Remove(snap.Name()); err != nil {
			msg := fmt.Sprintf("failed to delete %s: %v", snap.Name(), err)
			result.Errors = append(result.Errors, msg)
			result.Kept = append(result.Kept, snap)
			s.logger.Warnf("Retention sweep: %s", msg)
			continue
		}

		result.Deleted = append(result.Deleted, snap)
		s.logger.WithFields(map[string]interface{}{
			"snapshot": snap.Name(),
			"age":      snap.Age(start).Round(time.Hour).String(),
		}).Info("Deleted expired snapshot")
	}

	result.Duration = s.now().Sub(start)
	return result, nil
}
