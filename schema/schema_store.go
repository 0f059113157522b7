package schema

import "time"

// RunKind identifies what produced a history run.
type RunKind string

// Run kinds recorded in history.
const (
	DetectRun  RunKind = "detect"
	MonitorRun RunKind = "monitor"
)

// RunSummary is the completion data written when a run ends.
type RunSummary struct {
	EndTime   time.Time
	Threshold float64
	Windows   int
	Anomalies int
}

// RunRecord represents a row from the factory_runs table.
type RunRecord struct {
	RunID         int64
	Kind          string
	FeedPath      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	Threshold     *float64
	TotalWindows  int32
	Anomalies     int32
	ConfigParams  *string
}

// VerdictRecord represents a row from the factory_verdicts table.
type VerdictRecord struct {
	RunID               int64
	WindowIndex         int32
	WindowEnd           time.Time
	ReconstructionError float64
	Threshold           float64
	IsAnomaly           bool
	TrueLabel           *string
}

// AlertRecord represents a row from the factory_alerts table.
type AlertRecord struct {
	AlertID             string
	RunID               int64
	WindowEnd           time.Time
	ReconstructionError float64
	Threshold           float64
	Title               string
	Message             string
	RaisedAt            time.Time
}
