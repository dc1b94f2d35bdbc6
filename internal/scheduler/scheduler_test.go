package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"clinic-backup/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logging.Logger {
	logger, _ := logging.NewLogger(logging.Config{
		Level:  logging.LogLevelQuiet,
		Output: io.Discard,
	})
	return logger
}

func TestScheduler_Run_InvalidSpec(t *testing.T) {
	s := New(quietLogger())

	err := s.Run(context.Background(), "not a cron spec", func(ctx context.Context) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron spec")
}

func TestScheduler_Run_ExecutesJob(t *testing.T) {
	s := New(quietLogger())

	var runs atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 450*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, "@every 100ms", func(ctx context.Context) {
		runs.Add(1)
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	s := New(quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, "@every 1h", func(ctx context.Context) {})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
