package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/iocache"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := backendFromViper("cache-backend", "cache-db-connect")
	if err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheClearSetupWrapper validates the backend without opening it, so a
// corrupt SQLite file can still be removed.
func cacheClearSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := readConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("cache-backend", "cache-db-connect")
	if err != nil {
		return err
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by scoring commands. This avoids artifact and
// alert validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the window score cache (improves performance)",
	Long: `Manage the cache of reconstruction errors that speeds up repeated detection runs.

A detect run stores the score of every window keyed by the model, the scaler,
the window size and the readings. Re-evaluating the same feed with the same
artifacts skips inference entirely.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  factory cache status

  # Clear cache after retraining the model
  factory cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached window scores",
	Long: `Delete all cached window scores from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  factory cache clear

  # Clear MySQL cache (set connection string via env variable)
  FACTORY_CACHE_BACKEND=mysql FACTORY_CACHE_DB_CONNECT="..." factory cache clear`,
	PreRunE: cacheClearSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the window score cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache table size

Examples:
  factory cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetScoreStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("score cache is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		if err := iocache.PrintCacheStatus(os.Stdout, status); err != nil {
			contract.LogFatal("Failed to print cache status", err)
		}
	},
}
