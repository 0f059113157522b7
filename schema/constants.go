package schema

// Custom string types for type safety.
type (
	// Label is the ground truth or predicted class of a reading.
	Label string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// MonitorState is the phase of the live monitor.
	MonitorState string

	// AlertChannel names an alert delivery mechanism.
	AlertChannel string

	// ThresholdSource records how a threshold was obtained.
	ThresholdSource string
)

// All labels supported.
const (
	NormalLabel  Label = "normal"
	AnomalyLabel Label = "anomaly"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Live monitor states.
const (
	AwaitingHistory MonitorState = "awaiting_history"
	Calibrating     MonitorState = "calibrating"
	Monitoring      MonitorState = "monitoring"
)

// All alert channels supported.
const (
	ConsoleChannel AlertChannel = "console"
	EmailChannel   AlertChannel = "email"
	VoiceChannel   AlertChannel = "voice"
	MQTTChannel    AlertChannel = "mqtt"
	KafkaChannel   AlertChannel = "kafka"
)

// Threshold sources.
const (
	PercentileThreshold ThresholdSource = "percentile"
	FixedThreshold      ThresholdSource = "fixed"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidAlertChannels lists all valid alert channels.
var ValidAlertChannels = map[AlertChannel]struct{}{
	ConsoleChannel: {},
	EmailChannel:   {},
	VoiceChannel:   {},
	MQTTChannel:    {},
	KafkaChannel:   {},
}

// ParseLabel maps feed label spellings onto a Label. Unknown text yields an empty label.
func ParseLabel(s string) Label {
	switch s {
	case "normal", "Normal", "NORMAL", "0":
		return NormalLabel
	case "anomaly", "Anomaly", "ANOMALY", "1":
		return AnomalyLabel
	default:
		return ""
	}
}

// StateGaugeValue maps a monitor state to a small integer for metrics.
func StateGaugeValue(s MonitorState) float64 {
	switch s {
	case Calibrating:
		return 1
	case Monitoring:
		return 2
	default:
		return 0
	}
}
