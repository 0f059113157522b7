// Package parquet provides data structures and functions for exporting detection
// history and evaluation verdicts to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Run represents a single detect or monitor run.
// This struct maps to the factory_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Kind is detect or monitor
	Kind string `parquet:"kind,snappy,dict"`

	// FeedPath is the feed the run read
	FeedPath string `parquet:"feed_path,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// Threshold is the decision threshold used (nullable while a run is open)
	Threshold *float64 `parquet:"threshold,optional,snappy"`

	TotalWindows int32 `parquet:"total_windows,snappy"`
	Anomalies    int32 `parquet:"anomalies,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Verdict is the classification of one window.
// This struct maps to the factory_verdicts database table.
type Verdict struct {
	RunID               int64     `parquet:"run_id,snappy"`
	WindowIndex         int32     `parquet:"window_index,snappy"`
	WindowEnd           time.Time `parquet:"window_end,snappy"`
	ReconstructionError float64   `parquet:"reconstruction_error,snappy"`
	Threshold           float64   `parquet:"threshold,snappy"`
	IsAnomaly           bool      `parquet:"is_anomaly,snappy"`
	TrueLabel           *string   `parquet:"true_label,optional,snappy,dict"`
}

// Alert is one raised alert.
// This struct maps to the factory_alerts database table.
type Alert struct {
	AlertID             string    `parquet:"alert_id,snappy"`
	RunID               int64     `parquet:"run_id,snappy"`
	WindowEnd           time.Time `parquet:"window_end,snappy"`
	ReconstructionError float64   `parquet:"reconstruction_error,snappy"`
	Threshold           float64   `parquet:"threshold,snappy"`
	Title               string    `parquet:"title,snappy,dict"`
	Message             string    `parquet:"message,snappy"`
	RaisedAt            time.Time `parquet:"raised_at,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteVerdictsParquet writes verdicts to a Parquet file.
func WriteVerdictsParquet(data []Verdict, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAlertsParquet writes alerts to a Parquet file.
func WriteAlertsParquet(data []Alert, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer; a failure here leaves an unreadable file.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts history run records to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	out := make([]Run, len(records))
	for i, r := range records {
		out[i] = Run{
			RunID:         r.RunID,
			Kind:          r.Kind,
			FeedPath:      r.FeedPath,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			Threshold:     r.Threshold,
			TotalWindows:  r.TotalWindows,
			Anomalies:     r.Anomalies,
			ConfigParams:  r.ConfigParams,
		}
	}
	return out
}

// ConvertVerdictRecords converts history verdict records to Parquet rows.
func ConvertVerdictRecords(records []schema.VerdictRecord) []Verdict {
	out := make([]Verdict, len(records))
	for i, r := range records {
		out[i] = Verdict{
			RunID:               r.RunID,
			WindowIndex:         r.WindowIndex,
			WindowEnd:           r.WindowEnd,
			ReconstructionError: r.ReconstructionError,
			Threshold:           r.Threshold,
			IsAnomaly:           r.IsAnomaly,
			TrueLabel:           r.TrueLabel,
		}
	}
	return out
}

// ConvertAlertRecords converts history alert records to Parquet rows.
func ConvertAlertRecords(records []schema.AlertRecord) []Alert {
	out := make([]Alert, len(records))
	for i, r := range records {
		out[i] = Alert(r)
	}
	return out
}

// FromVerdicts converts evaluation verdicts to Parquet rows outside of any tracked run.
func FromVerdicts(runID int64, verdicts []schema.Verdict) []Verdict {
	out := make([]Verdict, len(verdicts))
	for i, v := range verdicts {
		var label *string
		if v.TrueLabel != "" {
			s := string(v.TrueLabel)
			label = &s
		}
		out[i] = Verdict{
			RunID:               runID,
			WindowIndex:         int32(v.Index),
			WindowEnd:           v.WindowEnd,
			ReconstructionError: v.ReconstructionError,
			Threshold:           v.Threshold,
			IsAnomaly:           v.IsAnomaly,
			TrueLabel:           label,
		}
	}
	return out
}
