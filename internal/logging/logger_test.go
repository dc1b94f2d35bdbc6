package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "default text logger",
			config: Config{Level: LogLevelNormal, Format: "text"},
		},
		{
			name:   "json logger",
			config: Config{Level: LogLevelVerbose, Format: "json"},
		},
		{
			name:   "quiet logger",
			config: Config{Level: LogLevelQuiet},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.Equal(t, tt.config.Level, logger.GetLevel())
		})
	}
}

func TestNewLogger_LogFileError(t *testing.T) {
	_, err := NewLogger(Config{
		Level:   LogLevelNormal,
		LogFile: "/nonexistent-dir/clinic-backup.log",
	})
	assert.Error(t, err)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelQuiet, Output: &buf, Format: "text"})
	require.NoError(t, err)

	logger.Info("should not appear")
	logger.Error("should appear")

	output := buf.String()
	assert.NotContains(t, output, "should not appear")
	assert.Contains(t, output, "should appear")
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelQuiet, Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.SetLevel(LogLevelNormal)
	logger.Info("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, LogLevelNormal, logger.GetLevel())
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})
	require.NoError(t, err)

	logger.WithField("database", "clinic").Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "clinic", entry["database"])
}

func TestLogger_LogDumpRun(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})
	require.NoError(t, err)

	logger.LogDumpRun("clinic", "clinic-20240102090000.sql.gz", 2048, 3*time.Second, nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "dump", entry["operation"])
	assert.Equal(t, float64(2048), entry["size_bytes"])
	assert.Equal(t, "Backup completed", entry["msg"])
}

func TestLogger_LogDumpRun_Error(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})
	require.NoError(t, err)

	logger.LogDumpRun("clinic", "", 0, time.Second, errors.New("pg_dump exited 1"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry["error"], "pg_dump exited 1")
}

func TestLogger_LogRetentionSweep(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LogLevelNormal, Output: &buf, Format: "json"})
	require.NoError(t, err)

	logger.LogRetentionSweep("clinic", 2, 3, 1, time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, float64(3), entry["deleted"])
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	require.NotNil(t, logger)
	assert.Equal(t, LogLevelNormal, logger.GetLevel())
}
