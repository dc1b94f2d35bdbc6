package backup

import (
	"context"
	"errors"
	"io"
	"strings"

	"clinic-backup/internal/logging"
)

// testLogger returns a logger that stays quiet during test runs
func testLogger() *logging.Logger {
	logger, _ := logging.NewLogger(logging.Config{
		Level:  logging.LogLevelQuiet,
		Output: io.Discard,
	})
	return logger
}

// fakeEngine records every primitive invocation so tests can assert that
// failed gates and resolutions never touch the database.
type fakeEngine struct {
	name string

	exportPayload string
	exportErr     error
	importErr     error
	resetErr      error

	exportCalls int
	importCalls int
	resetCalls  int
	imported    []string
}

// samplePayload is large enough that its compressed form clears the
// empty-dump threshold.
var samplePayload = strings.Repeat("INSERT INTO appointments (patient_id, doctor_id, scheduled_at) VALUES (1, 2, now());\n", 40)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{name: "clinic", exportPayload: samplePayload}
}

func (f *fakeEngine) Export(ctx context.Context, w io.Writer) error {
	f.exportCalls++
	if f.exportErr != nil {
		// Simulate a tool that emits partial output before dying
		io.WriteString(w, "-- partial output\n")
		return f.exportErr
	}
	_, err := io.WriteString(w, f.exportPayload)
	return err
}

func (f *fakeEngine) Import(ctx context.Context, r io.Reader) error {
	f.importCalls++
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.importErr != nil {
		return f.importErr
	}
	f.imported = append(f.imported, string(data))
	return nil
}

func (f *fakeEngine) ResetSchema(ctx context.Context) error {
	f.resetCalls++
	if f.resetErr != nil {
		return f.resetErr
	}
	return nil
}

func (f *fakeEngine) DatabaseName() string {
	return f.name
}

// mutated reports whether any database-mutating primitive ran
func (f *fakeEngine) mutated() bool {
	return f.importCalls > 0 || f.resetCalls > 0
}

var errToolExit = errors.New("exit status 1")
