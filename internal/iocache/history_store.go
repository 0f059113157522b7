package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Table names for run history.
const (
	runsTable     = "factory_runs"
	verdictsTable = "factory_verdicts"
	alertsTable   = "factory_alerts"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{runsTable, verdictsTable, alertsTable}

// HistoryStoreImpl records runs, verdicts and alerts.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the backend and creates the history tables when missing.
// The none backend returns a store that records nothing.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, table := range historyTables {
		if _, err := db.Exec(getCreateHistoryQuery(table, backend)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// getCreateHistoryQuery returns the CREATE TABLE statement for one history table.
func getCreateHistoryQuery(table string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)

	switch table {
	case runsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				kind VARCHAR(16) NOT NULL,
				feed_path VARCHAR(512) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				threshold DOUBLE,
				total_windows INT NOT NULL DEFAULT 0,
				anomalies INT NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				kind TEXT NOT NULL,
				feed_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				threshold DOUBLE PRECISION,
				total_windows INT NOT NULL DEFAULT 0,
				anomalies INT NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quoted)
		default:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				kind TEXT NOT NULL,
				feed_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				threshold REAL,
				total_windows INTEGER NOT NULL DEFAULT 0,
				anomalies INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			)`, quoted)
		}

	case verdictsTable:
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				window_index INT NOT NULL,
				window_end DATETIME(6) NOT NULL,
				reconstruction_error DOUBLE NOT NULL,
				threshold DOUBLE NOT NULL,
				is_anomaly BOOLEAN NOT NULL,
				true_label VARCHAR(16),
				PRIMARY KEY (run_id, window_index)
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				window_index INT NOT NULL,
				window_end TIMESTAMPTZ NOT NULL,
				reconstruction_error DOUBLE PRECISION NOT NULL,
				threshold DOUBLE PRECISION NOT NULL,
				is_anomaly BOOLEAN NOT NULL,
				true_label TEXT,
				PRIMARY KEY (run_id, window_index)
			)`, quoted)
		default:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				window_index INTEGER NOT NULL,
				window_end TEXT NOT NULL,
				reconstruction_error REAL NOT NULL,
				threshold REAL NOT NULL,
				is_anomaly INTEGER NOT NULL,
				true_label TEXT,
				PRIMARY KEY (run_id, window_index)
			)`, quoted)
		}

	default: // alerts
		switch backend {
		case schema.MySQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				alert_id VARCHAR(36) PRIMARY KEY,
				run_id BIGINT NOT NULL,
				window_end DATETIME(6) NOT NULL,
				reconstruction_error DOUBLE NOT NULL,
				threshold DOUBLE NOT NULL,
				title VARCHAR(255) NOT NULL,
				message TEXT NOT NULL,
				raised_at DATETIME(6) NOT NULL
			)`, quoted)
		case schema.PostgreSQLBackend:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				alert_id TEXT PRIMARY KEY,
				run_id BIGINT NOT NULL,
				window_end TIMESTAMPTZ NOT NULL,
				reconstruction_error DOUBLE PRECISION NOT NULL,
				threshold DOUBLE PRECISION NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				raised_at TIMESTAMPTZ NOT NULL
			)`, quoted)
		default:
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				alert_id TEXT PRIMARY KEY,
				run_id INTEGER NOT NULL,
				window_end TEXT NOT NULL,
				reconstruction_error REAL NOT NULL,
				threshold REAL NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				raised_at TEXT NOT NULL
			)`, quoted)
		}
	}
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(kind schema.RunKind, feedPath string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, hs.backend)
	args := []any{string(kind), feedPath, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`INSERT INTO %s (kind, feed_path, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (kind, feed_path, start_time, config_params) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stores the completion data and the wall-clock duration of the run.
func (hs *HistoryStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	if hs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	var start timeScanner
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := summary.EndTime.Sub(start.Time).Milliseconds()
	var update string
	if hs.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, threshold = $3, total_windows = $4, anomalies = $5 WHERE run_id = $6`, quoted)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, threshold = ?, total_windows = ?, anomalies = ? WHERE run_id = ?`, quoted)
	}
	if _, err := hs.db.Exec(update, formatTime(summary.EndTime, hs.backend), durationMs, summary.Threshold,
		summary.Windows, summary.Anomalies, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordVerdicts stores verdicts for a run in a single transaction.
// A verdict for an index already recorded in the run replaces the earlier one.
func (hs *HistoryStoreImpl) RecordVerdicts(runID int64, verdicts []schema.Verdict) error {
	if hs.db == nil || len(verdicts) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(hs.getVerdictUpsertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare verdict insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, v := range verdicts {
		var trueLabel *string
		if v.TrueLabel != "" {
			label := string(v.TrueLabel)
			trueLabel = &label
		}
		if _, err := stmt.Exec(runID, v.Index, formatTime(v.WindowEnd, hs.backend), v.ReconstructionError,
			v.Threshold, v.IsAnomaly, trueLabel); err != nil {
			return fmt.Errorf("failed to insert verdict %d: %w", v.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verdicts: %w", err)
	}
	return nil
}

func (hs *HistoryStoreImpl) getVerdictUpsertQuery() string {
	quoted := quoteTableName(verdictsTable, hs.backend)
	const columns = "run_id, window_index, window_end, reconstruction_error, threshold, is_anomaly, true_label"
	switch hs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE window_end = new.window_end, reconstruction_error = new.reconstruction_error,
			threshold = new.threshold, is_anomaly = new.is_anomaly, true_label = new.true_label`, quoted, columns)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (run_id, window_index) DO UPDATE SET window_end = EXCLUDED.window_end,
			reconstruction_error = EXCLUDED.reconstruction_error, threshold = EXCLUDED.threshold,
			is_anomaly = EXCLUDED.is_anomaly, true_label = EXCLUDED.true_label`, quoted, columns)
	default:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`, quoted, columns)
	}
}

// RecordAlert stores an alert raised during a run.
func (hs *HistoryStoreImpl) RecordAlert(runID int64, alert schema.Alert) error {
	if hs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (alert_id, run_id, window_end, reconstruction_error, threshold, title, message, raised_at)
		VALUES (%s)`, quoteTableName(alertsTable, hs.backend), placeholders(hs.backend, 8))
	if _, err := hs.db.Exec(query, alert.ID, runID, formatTime(alert.WindowEnd, hs.backend), alert.ReconstructionError,
		alert.Threshold, alert.Title, alert.Message, formatTime(alert.RaisedAt, hs.backend)); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns run counts and table sizes.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalWindows = int(status.TableSizes[verdictsTable])
	status.TotalAlerts = int(status.TableSizes[alertsTable])

	if status.TotalRuns == 0 {
		return status, nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	var last, oldest timeScanner
	lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted)
	if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &last); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted)
	if err := hs.db.QueryRow(oldestQuery).Scan(&oldest); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.LastRunTime = last.Time
	status.OldestRunTime = oldest.Time

	return status, nil
}

// GetAllRuns returns every run ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, kind, feed_path, start_time, end_time, run_duration_ms, threshold,
		total_windows, anomalies, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var r schema.RunRecord
		var start, end timeScanner
		if err := rows.Scan(&r.RunID, &r.Kind, &r.FeedPath, &start, &end, &r.RunDurationMs, &r.Threshold,
			&r.TotalWindows, &r.Anomalies, &r.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartTime = start.Time
		r.EndTime = end.ptr()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllVerdicts returns every verdict ordered by run and window index.
func (hs *HistoryStoreImpl) GetAllVerdicts() ([]schema.VerdictRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, window_index, window_end, reconstruction_error, threshold, is_anomaly, true_label
		FROM %s ORDER BY run_id, window_index`, quoteTableName(verdictsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.VerdictRecord
	for rows.Next() {
		var r schema.VerdictRecord
		var end timeScanner
		if err := rows.Scan(&r.RunID, &r.WindowIndex, &end, &r.ReconstructionError, &r.Threshold,
			&r.IsAnomaly, &r.TrueLabel); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		r.WindowEnd = end.Time
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}
	return results, nil
}

// GetAllAlerts returns every alert ordered by raise time.
func (hs *HistoryStoreImpl) GetAllAlerts() ([]schema.AlertRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT alert_id, run_id, window_end, reconstruction_error, threshold, title, message, raised_at
		FROM %s ORDER BY raised_at, alert_id`, quoteTableName(alertsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AlertRecord
	for rows.Next() {
		var r schema.AlertRecord
		var end, raised timeScanner
		if err := rows.Scan(&r.AlertID, &r.RunID, &end, &r.ReconstructionError, &r.Threshold,
			&r.Title, &r.Message, &raised); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		r.WindowEnd = end.Time
		r.RaisedAt = raised.Time
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return results, nil
}
