package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

var runStart = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newSQLiteHistory(t *testing.T) contract.HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func verdictAt(index int, errValue float64, anomalous bool, label schema.Label) schema.Verdict {
	return schema.Verdict{
		Index:               index,
		WindowEnd:           runStart.Add(time.Duration(index) * time.Second),
		ReconstructionError: errValue,
		Threshold:           0.5,
		IsAnomaly:           anomalous,
		TrueLabel:           label,
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun(schema.DetectRun, "feed.csv", runStart, nil)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.EndRun(id, schema.RunSummary{EndTime: runStart}))
	assert.NoError(t, store.RecordVerdicts(id, []schema.Verdict{verdictAt(1, 0.1, false, "")}))
	assert.NoError(t, store.RecordAlert(id, schema.Alert{ID: "a"}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_BeginEndRun(t *testing.T) {
	store := newSQLiteHistory(t)

	id, err := store.BeginRun(schema.DetectRun, "sensor_data.csv", runStart, map[string]any{"window_size": 30})
	require.NoError(t, err)
	assert.Positive(t, id)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].EndTime, "open run has no end time")
	assert.Nil(t, runs[0].Threshold)

	require.NoError(t, store.EndRun(id, schema.RunSummary{
		EndTime:   runStart.Add(1500 * time.Millisecond),
		Threshold: 0.25,
		Windows:   70,
		Anomalies: 4,
	}))

	runs, err = store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, id, r.RunID)
	assert.Equal(t, "detect", r.Kind)
	assert.Equal(t, "sensor_data.csv", r.FeedPath)
	assert.True(t, runStart.Equal(r.StartTime))
	require.NotNil(t, r.EndTime)
	assert.True(t, runStart.Add(1500*time.Millisecond).Equal(*r.EndTime))
	require.NotNil(t, r.RunDurationMs)
	assert.Equal(t, int64(1500), *r.RunDurationMs)
	require.NotNil(t, r.Threshold)
	assert.InDelta(t, 0.25, *r.Threshold, 1e-12)
	assert.Equal(t, int32(70), r.TotalWindows)
	assert.Equal(t, int32(4), r.Anomalies)
	require.NotNil(t, r.ConfigParams)
	assert.JSONEq(t, `{"window_size":30}`, *r.ConfigParams)
}

func TestHistoryStore_EndRunUnknownID(t *testing.T) {
	store := newSQLiteHistory(t)
	assert.Error(t, store.EndRun(42, schema.RunSummary{EndTime: runStart}))
}

func TestHistoryStore_RecordVerdicts(t *testing.T) {
	store := newSQLiteHistory(t)
	id, err := store.BeginRun(schema.MonitorRun, "live.csv", runStart, nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordVerdicts(id, []schema.Verdict{
		verdictAt(31, 0.2, false, schema.NormalLabel),
		verdictAt(30, 0.9, true, ""),
	}))
	require.NoError(t, store.RecordVerdicts(id, nil))

	verdicts, err := store.GetAllVerdicts()
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	assert.Equal(t, int32(30), verdicts[0].WindowIndex, "ordered by window index")
	assert.True(t, verdicts[0].IsAnomaly)
	assert.Nil(t, verdicts[0].TrueLabel)
	assert.True(t, runStart.Add(30*time.Second).Equal(verdicts[0].WindowEnd))

	assert.Equal(t, int32(31), verdicts[1].WindowIndex)
	assert.False(t, verdicts[1].IsAnomaly)
	require.NotNil(t, verdicts[1].TrueLabel)
	assert.Equal(t, "normal", *verdicts[1].TrueLabel)

	t.Run("same index replaces", func(t *testing.T) {
		require.NoError(t, store.RecordVerdicts(id, []schema.Verdict{verdictAt(30, 0.1, false, "")}))
		verdicts, err := store.GetAllVerdicts()
		require.NoError(t, err)
		require.Len(t, verdicts, 2)
		assert.InDelta(t, 0.1, verdicts[0].ReconstructionError, 1e-12)
		assert.False(t, verdicts[0].IsAnomaly)
	})
}

func TestHistoryStore_RecordAlert(t *testing.T) {
	store := newSQLiteHistory(t)
	id, err := store.BeginRun(schema.MonitorRun, "live.csv", runStart, nil)
	require.NoError(t, err)

	alerts := []schema.Alert{
		{ID: "b", Title: "Sensor Anomaly Detected", Message: "second", WindowEnd: runStart.Add(2 * time.Minute),
			ReconstructionError: 0.8, Threshold: 0.5, RaisedAt: runStart.Add(2 * time.Minute)},
		{ID: "a", Title: "Sensor Anomaly Detected", Message: "first", WindowEnd: runStart.Add(time.Minute),
			ReconstructionError: 0.7, Threshold: 0.5, RaisedAt: runStart.Add(time.Minute)},
	}
	for _, a := range alerts {
		require.NoError(t, store.RecordAlert(id, a))
	}
	assert.Error(t, store.RecordAlert(id, alerts[0]), "duplicate alert id")

	got, err := store.GetAllAlerts()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AlertID, "ordered by raise time")
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, id, got[0].RunID)
	assert.True(t, runStart.Add(time.Minute).Equal(got[0].RaisedAt))
	assert.InDelta(t, 0.7, got[0].ReconstructionError, 1e-12)
	assert.Equal(t, "b", got[1].AlertID)
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store := newSQLiteHistory(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Len(t, status.TableSizes, 3)

	first, err := store.BeginRun(schema.DetectRun, "a.csv", runStart, nil)
	require.NoError(t, err)
	second, err := store.BeginRun(schema.MonitorRun, "b.csv", runStart.Add(time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordVerdicts(first, []schema.Verdict{verdictAt(1, 0.1, false, ""), verdictAt(2, 0.9, true, "")}))
	require.NoError(t, store.RecordAlert(second, schema.Alert{ID: "x", RaisedAt: runStart}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, second, status.LastRunID)
	assert.True(t, runStart.Add(time.Hour).Equal(status.LastRunTime))
	assert.True(t, runStart.Equal(status.OldestRunTime))
	assert.Equal(t, 2, status.TotalWindows)
	assert.Equal(t, 1, status.TotalAlerts)
	assert.Equal(t, int64(2), status.TableSizes[verdictsTable])
}

func TestGetCreateHistoryQuery(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		for _, table := range historyTables {
			t.Run(string(backend)+"/"+table, func(t *testing.T) {
				query := getCreateHistoryQuery(table, backend)
				assert.Contains(t, query, "CREATE TABLE IF NOT EXISTS "+quoteTableName(table, backend))
			})
		}
	}
	assert.Contains(t, getCreateHistoryQuery(runsTable, schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateHistoryQuery(runsTable, schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateHistoryQuery(runsTable, schema.SQLiteBackend), "AUTOINCREMENT")
}

func TestTimeScanner(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 600000000, time.UTC)
	tests := []struct {
		name  string
		src   any
		valid bool
	}{
		{"nil", nil, false},
		{"native", ts, true},
		{"rfc3339 string", ts.Format(time.RFC3339Nano), true},
		{"mysql bytes", []byte("2024-01-02 03:04:05.600000"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s timeScanner
			require.NoError(t, s.Scan(tt.src))
			assert.Equal(t, tt.valid, s.Valid)
			if tt.valid {
				assert.True(t, ts.Equal(s.Time))
				require.NotNil(t, s.ptr())
			} else {
				assert.Nil(t, s.ptr())
			}
		})
	}

	var s timeScanner
	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("yesterday"))
}
