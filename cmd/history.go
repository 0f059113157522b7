package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/iocache"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := historyMigrateSetup(); err != nil {
		return err
	}

	// Initialize stores with the loaded config (no score caching for history commands)
	if err := iocache.InitStores("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup resolves the history backend without initializing stores
// or creating tables, allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := backendFromViper("history-backend", "history-db-connect")
	if err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for the migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyStore returns the initialized store or exits when history tracking is off.
func historyStore() contract.HistoryStore {
	if cfg.HistoryBackend == schema.NoneBackend {
		contract.LogFatal("History tracking is disabled", fmt.Errorf("set --history-backend to sqlite, mysql or postgresql"))
	}
	return iocache.Manager.GetHistoryStore()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by scoring commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded detection and monitoring runs",
	Long: `Manage the history of detect and monitor runs.

When --history-backend is set, every run stores:
- Run metadata (kind, feed, model, configuration, threshold, duration)
- The verdict of every scored window
- Every alert raised and the channels that delivered it

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export runs, verdicts and alerts to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  factory history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  factory history export --history-backend sqlite --output-dir history-export`,
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs, verdicts and alerts",
	Long: `Delete all recorded runs, verdicts and alerts.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  factory history export --history-backend sqlite --output-dir backup
  factory history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about recorded runs.

Displays:
- Backend type and connection status
- Total number of runs, windows and alerts
- Last and oldest run timestamps
- Row count of each history table

Examples:
  factory history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := historyStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		if err := iocache.PrintHistoryStatus(os.Stdout, status); err != nil {
			contract.LogFatal("Failed to print history status", err)
		}
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to Parquet for BI tools and analytics",
	Long: `Export all recorded history to Parquet files under --output-dir:

- runs.parquet     one row per detect or monitor run
- verdicts.parquet one row per scored window
- alerts.parquet   one row per raised alert

Examples:
  factory history export --history-backend sqlite --output-dir history-export
  duckdb -c "SELECT * FROM read_parquet('history-export/verdicts.parquet') WHERE is_anomaly"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(historyStore(), viper.GetString("output-dir")); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  factory history migrate --history-backend sqlite

  # Rollback every migration
  factory history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.HistoryBackend == schema.NoneBackend {
			contract.LogFatal("History tracking is disabled", fmt.Errorf("set --history-backend to sqlite, mysql or postgresql"))
		}
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Migrations applied successfully.")
	},
}
