package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// scoreTable is the name of the table for cached window scores.
const scoreTable = "factory_score_cache"

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate score cache and history stores.
// An empty backend leaves that store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var scoreStore contract.CacheStore
		var err error
		if cacheBackend != "" {
			scoreStore, err = NewCacheStore(scoreTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize score caching: %w", err)
				return
			}
		}

		var historyStore contract.HistoryStore
		if historyBackend != "" {
			historyStore, err = NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if scoreStore != nil {
					_ = scoreStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.score = scoreStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.score != nil {
			_ = Manager.score.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache deletes cached scores. SQLite removes the database file,
// the server backends drop the table.
func ClearCache(backend schema.DatabaseBackend, connStr string) error {
	if backend == schema.SQLiteBackend {
		return removeSQLiteFile(connStr, contract.GetCacheDBFilePath())
	}
	return clearSQLTables(backend, connStr, scoreTable)
}

// ClearHistory deletes all recorded runs, verdicts and alerts.
func ClearHistory(backend schema.DatabaseBackend, connStr string) error {
	if backend == schema.SQLiteBackend {
		return removeSQLiteFile(connStr, contract.GetHistoryDBFilePath())
	}
	return clearSQLTables(backend, connStr, append(historyTables, migrationsTable)...)
}

func removeSQLiteFile(path, defaultPath string) error {
	if path == "" {
		path = defaultPath
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
	}
	return nil
}

// clearSQLTables connects to a server backend and drops the given tables.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	switch backend {
	case schema.NoneBackend:
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}

	driver, err := driverName(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
