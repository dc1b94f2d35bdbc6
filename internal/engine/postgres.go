package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"clinic-backup/internal/config"
	"clinic-backup/internal/logging"
)

// resetSchemaSQL drops everything in the default schema in one shot, the
// same statement the operators run by hand before a full replay.
const resetSchemaSQL = "DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;"

// stderrTailLimit caps how much of a failed tool's stderr is carried into
// the returned error.
const stderrTailLimit = 4096

// Postgres drives the PostgreSQL client tools (pg_dump and psql) as the
// export/import primitives. The password travels in the child process
// environment via PGPASSWORD, never on the command line.
type Postgres struct {
	cfg    config.DatabaseConfig
	logger *logging.Logger

	// Tool names, overridable for tests
	DumpCommand  string
	ShellCommand string
}

// NewPostgres creates an engine for the given connection parameters
func NewPostgres(cfg config.DatabaseConfig, logger *logging.Logger) *Postgres {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Postgres{
		cfg:          cfg,
		logger:       logger,
		DumpCommand:  "pg_dump",
		ShellCommand: "psql",
	}
}

// DatabaseName returns the logical name of the target database
func (p *Postgres) DatabaseName() string {
	return p.cfg.Name
}

// connArgs returns the connection arguments shared by both tools
func (p *Postgres) connArgs() []string {
	return []string{
		"-h", p.cfg.Host,
		"-p", strconv.Itoa(p.cfg.Port),
		"-U", p.cfg.User,
		"-d", p.cfg.Name,
	}
}

// exportArgs builds the pg_dump invocation: plain SQL, portable across
// roles on the restore side
func (p *Postgres) exportArgs() []string {
	return append(p.connArgs(), "--no-owner", "--no-privileges", "-F", "p")
}

// importArgs builds the psql invocation for replay: stop on first error,
// wrap the whole replay in a single transaction
func (p *Postgres) importArgs() []string {
	return append(p.connArgs(), "-v", "ON_ERROR_STOP=1", "-1")
}

// resetArgs builds the psql invocation for the schema reset
func (p *Postgres) resetArgs() []string {
	return append(p.connArgs(), "-v", "ON_ERROR_STOP=1")
}

// env returns the child environment with the password injected
func (p *Postgres) env() []string {
	return append(os.Environ(), "PGPASSWORD="+p.cfg.Password)
}

// Export streams pg_dump output into w
func (p *Postgres) Export(ctx context.Context, w io.Writer) error {
	tool, err := exec.LookPath(p.DumpCommand)
	if err != nil {
		return fmt.Errorf("%s not found in PATH, install the PostgreSQL client tools: %w", p.DumpCommand, err)
	}

	cmd := exec.CommandContext(ctx, tool, p.exportArgs()...)
	cmd.Env = p.env()
	cmd.Stdout = w

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.WithFields(map[string]interface{}{
		"tool":     tool,
		"database": p.cfg.Name,
		"host":     p.cfg.Host,
	}).Debug("Running export")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump failed: %w: %s", err, stderrTail(&stderr))
	}
	return nil
}

// Import replays the dump stream from r through psql
func (p *Postgres) Import(ctx context.Context, r io.Reader) error {
	tool, err := exec.LookPath(p.ShellCommand)
	if err != nil {
		return fmt.Errorf("%s not found in PATH, install the PostgreSQL client tools: %w", p.ShellCommand, err)
	}

	cmd := exec.CommandContext(ctx, tool, p.importArgs()...)
	cmd.Env = p.env()
	cmd.Stdin = r

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.WithFields(map[string]interface{}{
		"tool":     tool,
		"database": p.cfg.Name,
		"host":     p.cfg.Host,
	}).Debug("Running import")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql replay failed: %w: %s", err, stderrTail(&stderr))
	}
	return nil
}

// ResetSchema drops and recreates the public schema
func (p *Postgres) ResetSchema(ctx context.Context) error {
	tool, err := exec.LookPath(p.ShellCommand)
	if err != nil {
		return fmt.Errorf("%s not found in PATH, install the PostgreSQL client tools: %w", p.ShellCommand, err)
	}

	cmd := exec.CommandContext(ctx, tool, p.resetArgs()...)
	cmd.Env = p.env()
	cmd.Stdin = strings.NewReader(resetSchemaSQL)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.WithField("database", p.cfg.Name).Warn("Dropping and recreating schema public")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("schema reset failed: %w: %s", err, stderrTail(&stderr))
	}
	return nil
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
