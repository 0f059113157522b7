package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleResult() *schema.EvaluationResult {
	r := &schema.EvaluationResult{
		WindowSize:      2,
		Readings:        5,
		Threshold:       0.05,
		ThresholdSource: schema.PercentileThreshold,
		Percentile:      95,
		Skipped:         0,
	}
	errs := []float64{0.01, 0.2, 0.03}
	labels := []schema.Label{schema.NormalLabel, schema.AnomalyLabel, schema.NormalLabel}
	for i, e := range errs {
		v := schema.Verdict{
			Index:               2 + i,
			WindowEnd:           base.Add(time.Duration(2+i) * time.Minute),
			ReconstructionError: e,
			Threshold:           0.05,
			IsAnomaly:           e > 0.05,
			TrueLabel:           labels[i],
		}
		r.Verdicts = append(r.Verdicts, v)
		r.Confusion.Add(v)
	}
	return r
}

func testConfig() *contract.Config {
	return &contract.Config{
		Precision:    4,
		ResultLimit:  25,
		Width:        120,
		Workers:      2,
		CacheBackend: schema.NoneBackend,
	}
}

func TestWriteEvaluationCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, ResultsHeader, records[0])
	assert.Equal(t, []string{"2025-06-01 00:02:00", "0.01", "normal", "normal"}, records[1])
	assert.Equal(t, []string{"2025-06-01 00:03:00", "0.2", "anomaly", "anomaly"}, records[2])
}

func TestWriteEvaluationCSVDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, writeEvaluationCSV(&a, sampleResult()))
	require.NoError(t, writeEvaluationCSV(&b, sampleResult()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestWriteEvaluationJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvaluationJSON(&buf, sampleResult()))

	var decoded struct {
		Threshold  float64 `json:"threshold"`
		WindowSize int     `json:"window_size"`
		Percentile float64 `json:"percentile"`
		Summary    struct {
			Windows   int     `json:"windows"`
			Anomalies int     `json:"anomalies"`
			Precision float64 `json:"precision"`
			Recall    float64 `json:"recall"`
		} `json:"summary"`
		Verdicts []schema.Verdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 0.05, decoded.Threshold)
	assert.Equal(t, 2, decoded.WindowSize)
	assert.Equal(t, 95.0, decoded.Percentile)
	assert.Equal(t, 3, decoded.Summary.Windows)
	assert.Equal(t, 1, decoded.Summary.Anomalies)
	assert.Equal(t, 1.0, decoded.Summary.Precision)
	assert.Equal(t, 1.0, decoded.Summary.Recall)
	assert.Len(t, decoded.Verdicts, 3)
}

func TestSelectVerdicts(t *testing.T) {
	r := sampleResult()
	tests := []struct {
		name    string
		showAll bool
		limit   int
		indices []int
	}{
		{"anomalies only", false, 25, []int{3}},
		{"all", true, 25, []int{2, 3, 4}},
		{"all limited", true, 2, []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, v := range SelectVerdicts(r, tt.showAll, tt.limit) {
				got = append(got, v.Index)
			}
			assert.Equal(t, tt.indices, got)
		})
	}
}

func TestWriteEvaluationTables(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		contains []string
		missing  []string
	}{
		{"wide", 120, []string{"THRESHOLD", "TRUE LABEL", "0.2000", "ANOMALY"}, nil},
		{"narrow", 60, []string{"0.2000", "ANOMALY"}, []string{"TRUE LABEL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Width = tt.width
			var buf bytes.Buffer
			require.NoError(t, writeEvaluationTables(&buf, sampleResult(), cfg, time.Second))

			out := buf.String()
			assert.Contains(t, out, "Showing 1 of 1 anomalous windows")
			assert.Contains(t, out, "0.0500 (p95)")
			for _, s := range tt.contains {
				assert.Contains(t, strings.ToUpper(out), s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, strings.ToUpper(out), s)
			}
		})
	}
}

func TestWriteEvaluationResultsToFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		output schema.OutputMode
		file   string
	}{
		{"csv", schema.CSVOut, "results.csv"},
		{"json", schema.JSONOut, "results.json"},
		{"text", schema.TextOut, "results.txt"},
		{"parquet", schema.ParquetOut, "results.parquet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Output = tt.output
			cfg.OutputFile = filepath.Join(dir, tt.file)
			require.NoError(t, WriteEvaluationResults(sampleResult(), cfg, time.Second))

			info, err := os.Stat(cfg.OutputFile)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}

	t.Run("parquet without file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.ParquetOut
		assert.Error(t, WriteEvaluationResults(sampleResult(), cfg, time.Second))
	})
}

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "journal.csv")
	j, err := NewJournal(path)
	require.NoError(t, err)

	v := &schema.Verdict{WindowEnd: base, ReconstructionError: 0.5, Threshold: 0.1, IsAnomaly: true}
	require.NoError(t, j.Record(base, schema.PollResult{State: schema.AwaitingHistory, Rows: 3, Effective: true}))
	require.NoError(t, j.Record(base, schema.PollResult{State: schema.Monitoring, Rows: 40, Effective: true, ThresholdSet: true, Threshold: 0.1, Verdict: v, Alerted: true}))

	// Flushed per row: readable before Close.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, JournalHeader, records[0])
	assert.Equal(t, []string{"awaiting_history", "3", "", "", "", "", "false"}, records[1][1:])
	assert.Equal(t, []string{"monitoring", "40", "2025-06-01 00:00:00", "0.5", "0.1", "anomaly", "true"}, records[2][1:])
	require.NoError(t, j.Close())

	// Reopening appends without a second header.
	j, err = NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(base, schema.PollResult{State: schema.Calibrating, Rows: 31}))
	require.NoError(t, j.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "polled_at"))
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}
