package cmd

import (
	"fmt"
	"os"

	"clinic-backup/internal/backup"
	appconfig "clinic-backup/internal/config"
	"clinic-backup/internal/engine"
	"clinic-backup/internal/logging"
	"clinic-backup/internal/snapshot"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// CLI flag variables
var (
	dbName     string
	dbUser     string
	dbPassword string
	dbHost     string
	dbPort     int

	backupDir   string
	compression string

	verbose   bool
	quiet     bool
	logFile   string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clinic-backup",
	Short: "Backup and restore lifecycle manager for the clinic appointments database",
	Long: `clinic-backup manages PostgreSQL logical backups for the clinic
appointments database: it creates compressed, timestamped snapshots,
rotates them by age, and safely replays them back into the database.

Snapshots are plain-SQL dumps compressed with gzip (or zstd), named
<database>-<YYYYMMDDHHMMSS> with the compression suffix. Dumps stream
into a temporary file and are renamed into place only after pg_dump
exits successfully, so a crash can never leave a half-written snapshot
under the final name.

Connection parameters come from flags, a config file, a .env file, or
the environment (DB_NAME, DB_USER, DB_PASSWORD, DB_HOST, DB_PORT,
BACKUP_DIR, KEEP_DAYS).

Examples:
  # Create a snapshot and rotate anything older than the default 14 days
  clinic-backup dump

  # Keep 30 days of snapshots for this run only
  clinic-backup dump --keep 30

  # Restore the latest snapshot (requires explicit confirmation)
  clinic-backup restore --yes

  # Full rebuild: drop schema public and replay a specific snapshot
  clinic-backup restore --yes --drop-schema --file backups/clinic-20240102090000.sql.gz

  # List snapshots in the backup store
  clinic-backup list

  # Run unattended dumps every night at 03:00
  clinic-backup schedule --cron "0 3 * * *"`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clinic-backup.yaml)")

	// Database connection flags
	rootCmd.PersistentFlags().StringVar(&dbName, "db-name", "", "target database name")
	rootCmd.PersistentFlags().StringVar(&dbUser, "db-user", "", "target database user")
	rootCmd.PersistentFlags().StringVar(&dbPassword, "db-password", "", "target database password")
	rootCmd.PersistentFlags().StringVar(&dbHost, "db-host", appconfig.DefaultHost, "target database host")
	rootCmd.PersistentFlags().IntVar(&dbPort, "db-port", appconfig.DefaultPort, "target database port")

	// Store flags
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", appconfig.DefaultBackupDir, "backup store directory")
	rootCmd.PersistentFlags().StringVar(&compression, "compression", appconfig.DefaultCompression, "snapshot compression (gzip, zstd)")

	// Output flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("database.name", rootCmd.PersistentFlags().Lookup("db-name"))
	viper.BindPFlag("database.user", rootCmd.PersistentFlags().Lookup("db-user"))
	viper.BindPFlag("database.password", rootCmd.PersistentFlags().Lookup("db-password"))
	viper.BindPFlag("database.host", rootCmd.PersistentFlags().Lookup("db-host"))
	viper.BindPFlag("database.port", rootCmd.PersistentFlags().Lookup("db-port"))
	viper.BindPFlag("backup_dir", rootCmd.PersistentFlags().Lookup("backup-dir"))
	viper.BindPFlag("compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".clinic-backup")
	}

	viper.SetEnvPrefix("CLINIC_BACKUP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig builds and validates the runtime configuration
func loadConfig() (*appconfig.Config, error) {
	cfg, err := appconfig.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger from configuration and output flags
func newLogger(cfg *appconfig.Config) (*logging.Logger, error) {
	level := logging.LogLevelNormal
	if cfg.Verbose {
		level = logging.LogLevelVerbose
	}
	if cfg.Quiet {
		level = logging.LogLevelQuiet
	}

	return logging.NewLogger(logging.Config{
		Level:   level,
		Format:  logFormat,
		LogFile: cfg.LogFile,
	})
}

// components wires the store, engine, and logger shared by all commands
func components() (*appconfig.Config, *snapshot.Store, *engine.Postgres, *logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, err := snapshot.NewStore(cfg.BackupDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return cfg, store, engine.NewPostgres(cfg.Database, logger), logger, nil
}

// describeError maps the typed failure kinds to operator-facing hints
func describeError(err error) string {
	switch {
	case backup.IsKind(err, backup.KindConfirmationRequired):
		return "restore is destructive; re-run with --yes to confirm"
	case backup.IsKind(err, backup.KindNoBackupFound):
		return "no usable snapshot found; run 'clinic-backup dump' first or check --backup-dir"
	case backup.IsKind(err, backup.KindRestoreIncomplete):
		return "the schema was dropped but the replay did not finish; restore again from a known-good snapshot"
	default:
		return ""
	}
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clinic-backup version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
		},
	}
}

func init() {
	rootCmd.AddCommand(createVersionCommand())
}
