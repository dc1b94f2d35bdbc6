package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"clinic-backup/internal/config"
	"clinic-backup/internal/engine"
	"clinic-backup/internal/logging"
	"clinic-backup/internal/snapshot"

	"github.com/google/uuid"
)

// State tracks where a restore run is in its lifecycle. Nothing persists
// across invocations; every run starts at StateIdle.
type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateConfirming State = "confirming"
	StateDropping   State = "dropping"
	StateReplaying  State = "replaying"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Request describes a single restore attempt. It is ephemeral and never
// persisted.
type Request struct {
	// SnapshotPath selects an explicit snapshot file; empty means restore
	// from the latest snapshot in the store
	SnapshotPath string
	// DropSchema drops and recreates the public schema before replay
	DropSchema bool
	// Confirmed is the mandatory safety gate. It is a required parameter
	// on this entry point, never an interactive prompt inside core logic.
	Confirmed bool
}

// Result is the outcome of a successful restore run
type Result struct {
	Snapshot      *snapshot.Snapshot
	DroppedSchema bool
	State         State
	Duration      time.Duration
}

// Executor replays snapshots into the database. It reads the backup store
// and never deletes from it.
type Executor struct {
	cfg    *config.Config
	store  *snapshot.Store
	engine engine.Engine
	logger *logging.Logger
	now    func() time.Time
}

// NewExecutor creates a restore executor
func NewExecutor(cfg *config.Config, store *snapshot.Store, eng engine.Engine, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Executor{
		cfg:    cfg,
		store:  store,
		engine: eng,
		logger: logger,
		now:    time.Now,
	}
}

// Restore resolves the target snapshot, enforces the confirmation gate,
// optionally resets the schema, and replays the snapshot. The sequence is
// Idle -> Resolving -> Confirming -> [Dropping] -> Replaying ->
// Done|Failed. Any failure after the destructive drop surfaces as
// RestoreIncomplete, never as silent success.
func (e *Executor) Restore(ctx context.Context, req Request) (*Result, error) {
	start := e.now()
	runLog := e.logger.WithFields(map[string]interface{}{
		"run_id":   uuid.NewString(),
		"database": e.engine.DatabaseName(),
	})

	snap, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	runLog.WithField("snapshot", snap.Name()).Info("Resolved restore target")

	if !req.Confirmed {
		return nil, NewConfirmationRequired(
			fmt.Sprintf("restore of %s is destructive and requires explicit confirmation", snap.Name()))
	}

	dropped := false
	if req.DropSchema {
		if err := e.engine.ResetSchema(ctx); err != nil {
			// The drop statement may have partially applied before the
			// tool reported failure; the database can no longer be assumed
			// intact.
			e.logger.LogRestoreRun(e.engine.DatabaseName(), snap.Name(), true, e.now().Sub(start), err)
			return nil, NewRestoreIncomplete("schema drop failed before replay", err)
		}
		dropped = true
	}

	if err := e.replay(ctx, snap); err != nil {
		e.logger.LogRestoreRun(e.engine.DatabaseName(), snap.Name(), dropped, e.now().Sub(start), err)
		if dropped {
			return nil, NewRestoreIncomplete("replay failed after schema drop", err)
		}
		return nil, NewRestoreFailed("import process failed", err)
	}

	e.logger.LogRestoreRun(e.engine.DatabaseName(), snap.Name(), dropped, e.now().Sub(start), nil)

	return &Result{
		Snapshot:      snap,
		DroppedSchema: dropped,
		State:         StateDone,
		Duration:      e.now().Sub(start),
	}, nil
}

// resolve picks the target snapshot: an explicit path when given,
// otherwise the latest snapshot in the store
func (e *Executor) resolve(req Request) (*snapshot.Snapshot, error) {
	if req.SnapshotPath != "" {
		snap, err := snapshot.Resolve(req.SnapshotPath)
		if err != nil {
			return nil, NewNoBackupFound(fmt.Sprintf("cannot use %s as restore source", req.SnapshotPath), err)
		}
		return snap, nil
	}

	snap, err := e.store.Latest()
	if err != nil {
		if errors.Is(err, snapshot.ErrEmpty) {
			return nil, NewNoBackupFound(fmt.Sprintf("no snapshots in %s", e.store.Dir()), err)
		}
		return nil, NewNoBackupFound("failed to scan backup store", err)
	}
	return snap, nil
}

// replay decompresses the snapshot and streams it through the import
// primitive. The snapshot file itself is never modified or deleted.
func (e *Executor) replay(ctx context.Context, snap *snapshot.Snapshot) error {
	f, err := os.Open(snap.Path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	zr, err := snap.Format.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to open compressed stream: %w", err)
	}
	defer zr.Close()

	return e.engine.Import(ctx, zr)
}
