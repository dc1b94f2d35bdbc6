package backup

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	cause := errors.New("exit status 1")

	err := NewBackupFailed("export process failed", cause)
	assert.Contains(t, err.Error(), "BACKUP_FAILED")
	assert.Contains(t, err.Error(), "export process failed")
	assert.Contains(t, err.Error(), "exit status 1")

	bare := NewConfirmationRequired("confirmation flag not set")
	assert.Contains(t, bare.Error(), "CONFIRMATION_REQUIRED")
	assert.NotContains(t, bare.Error(), "caused by")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewBackupFailed("failed to publish snapshot", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsKind(t *testing.T) {
	err := NewNoBackupFound("no snapshots in /backups", nil)

	assert.True(t, IsKind(err, KindNoBackupFound))
	assert.False(t, IsKind(err, KindBackupFailed))
	assert.False(t, IsKind(errors.New("plain"), KindBackupFailed))
	assert.False(t, IsKind(nil, KindBackupFailed))
}

func TestIsKind_Wrapped(t *testing.T) {
	inner := NewRestoreIncomplete("replay failed after schema drop", errors.New("broken pipe"))
	wrapped := fmt.Errorf("restore run aborted: %w", inner)

	require.True(t, IsKind(wrapped, KindRestoreIncomplete))
	assert.False(t, IsKind(wrapped, KindRestoreFailed))
}
