package backup

import (
	"context"
	"fmt"
	"time"

	"clinic-backup/internal/config"
	"clinic-backup/internal/engine"
	"clinic-backup/internal/logging"
	"clinic-backup/internal/snapshot"

	"github.com/google/uuid"
)

// ProduceOptions adjusts a single producer run
type ProduceOptions struct {
	// KeepDays overrides the configured retention window when positive
	KeepDays int
	// DryRun reports what would be written and rotated without invoking
	// the export primitive or deleting anything
	DryRun bool
}

// ProduceResult is the outcome of one producer run
type ProduceResult struct {
	Snapshot  *snapshot.Snapshot
	Retention *RetentionResult
	DryRun    bool
	Duration  time.Duration
}

// Producer creates compressed, timestamped snapshots and enforces the
// retention policy. It is write-only with respect to the backup store.
type Producer struct {
	cfg     *config.Config
	store   *snapshot.Store
	engine  engine.Engine
	sweeper *Sweeper
	logger  *logging.Logger
	now     func() time.Time
}

// NewProducer creates a dump producer
func NewProducer(cfg *config.Config, store *snapshot.Store, eng engine.Engine, logger *logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Producer{
		cfg:     cfg,
		store:   store,
		engine:  eng,
		sweeper: NewSweeper(store, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Produce creates one snapshot and then runs the retention sweep.
//
// The dump streams through the compression filter into a temporary file
// that never matches the snapshot naming scheme; only after the export
// primitive exits successfully with non-empty output is the file renamed
// atomically to its final name. A same-second filename collision is a hard
// failure, never an overwrite.
func (p *Producer) Produce(ctx context.Context, opts ProduceOptions) (*ProduceResult, error) {
	start := p.now()
	runLog := p.logger.WithFields(map[string]interface{}{
		"run_id":   uuid.NewString(),
		"database": p.engine.DatabaseName(),
	})

	format, err := snapshot.ParseFormat(p.cfg.Compression)
	if err != nil {
		return nil, NewConfigurationError("invalid compression format", err)
	}

	keepDays := p.cfg.KeepDays
	if opts.KeepDays > 0 {
		keepDays = opts.KeepDays
	}

	name := snapshot.Filename(p.engine.DatabaseName(), start, format)

	if opts.DryRun {
		runLog.Infof("Dry run: would write %s", p.store.Path(name))
		retention, err := p.sweeper.Sweep(keepDays, true)
		if err != nil {
			return nil, err
		}
		return &ProduceResult{Retention: retention, DryRun: true, Duration: p.now().Sub(start)}, nil
	}

	exists, err := p.store.Exists(name)
	if err != nil {
		return nil, NewBackupFailed("failed to check backup store", err)
	}
	if exists {
		return nil, NewBackupFailed(fmt.Sprintf("snapshot %s already exists (same-second collision)", name), nil)
	}

	snap, err := p.dump(ctx, name, format)
	p.logger.LogDumpRun(p.engine.DatabaseName(), name, snapSize(snap), p.now().Sub(start), err)
	if err != nil {
		return nil, err
	}

	// Deletion failures inside the sweep are logged and skipped; only a
	// failure to read the store at all surfaces here, and even that never
	// undoes the snapshot that was just written.
	retention, err := p.sweeper.Sweep(keepDays, false)
	if err != nil {
		runLog.Warnf("Retention sweep failed: %v", err)
		retention = nil
	} else {
		p.logger.LogRetentionSweep(p.engine.DatabaseName(),
			len(retention.Kept), len(retention.Deleted), len(retention.Errors), retention.Duration)
	}

	return &ProduceResult{
		Snapshot:  snap,
		Retention: retention,
		Duration:  p.now().Sub(start),
	}, nil
}

// dump streams the export primitive into a temp file and publishes it
func (p *Producer) dump(ctx context.Context, name string, format snapshot.Format) (*snapshot.Snapshot, error) {
	tmp, err := p.store.CreateTemp(name)
	if err != nil {
		return nil, NewBackupFailed("failed to create temporary dump file", err)
	}
	tmpPath := tmp.Name()

	discard := func() {
		if derr := p.store.Discard(tmpPath); derr != nil {
			p.logger.Warnf("Failed to remove partial dump %s: %v", tmpPath, derr)
		}
	}

	zw, err := format.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		discard()
		return nil, NewBackupFailed("failed to initialize compression", err)
	}

	if err := p.engine.Export(ctx, zw); err != nil {
		zw.Close()
		tmp.Close()
		discard()
		return nil, NewBackupFailed("export process failed", err)
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		discard()
		return nil, NewBackupFailed("failed to finalize compressed dump", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		discard()
		return nil, NewBackupFailed("failed to sync dump to disk", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		discard()
		return nil, NewBackupFailed("failed to stat dump file", err)
	}

	if err := tmp.Close(); err != nil {
		discard()
		return nil, NewBackupFailed("failed to close dump file", err)
	}

	// An empty dump means the export produced nothing; a gzip/zstd header
	// alone is a handful of bytes, so require the payload to be larger.
	if info.Size() <= emptyDumpThreshold {
		discard()
		return nil, NewBackupFailed(fmt.Sprintf("dump output is empty (%d bytes)", info.Size()), nil)
	}

	if err := p.store.Publish(tmpPath, name); err != nil {
		discard()
		return nil, NewBackupFailed("failed to publish snapshot", err)
	}

	return snapshot.Resolve(p.store.Path(name))
}

// emptyDumpThreshold is the size in bytes at or below which a compressed
// dump is treated as empty. A gzip member with no payload is about 20
// bytes; a real dump of even an empty schema is far larger.
const emptyDumpThreshold = 64

func snapSize(s *snapshot.Snapshot) int64 {
	if s == nil {
		return 0
	}
	return s.Size
}
