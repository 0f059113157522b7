package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Default values for configuration.
const (
	DefaultWindowSize     = 30
	DefaultPercentile     = 95.0
	DefaultServeThreshold = 0.001
	DefaultBatchSize      = 64
	DefaultResultLimit    = 25
	MaxResultLimit        = 100000
	DefaultPrecision      = 4
	MaxPrecision          = 8
	DefaultPollInterval   = 2 * time.Second
	DefaultStreamInterval = 250 * time.Millisecond
	DefaultModelTimeout   = 10 * time.Second
	DefaultAlertTimeout   = 15 * time.Second
	DefaultNormalRows     = 1000
	DefaultAnomalyRows    = 100
	DefaultSMTPHost       = "smtp.gmail.com"
	DefaultSMTPPort       = 465
	DefaultVoiceCommand   = "espeak"
	DefaultMQTTTopic      = "factory/alerts"
	DefaultKafkaTopic     = "factory.alerts"
	DefaultServeAddr      = ":8000"
)

// Default locations of the feed and the trained artifacts.
const (
	DefaultFeedPath   = "data/sensors/live_sensor_feed.csv"
	DefaultSourcePath = "data/sensors/sensor_data.csv"
	DefaultScalerPath = "models/lstm_scaler.npy"
	DefaultModelPath  = "models/lstm_autoencoder.json"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the timestamp layout used in feeds and result sinks.
const DateTimeFormat = "2006-01-02 15:04:05"

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// AlertConfig holds the validated alert channel settings.
type AlertConfig struct {
	Channels []schema.AlertChannel
	Timeout  time.Duration

	SMTPHost string
	SMTPPort int
	Sender   string
	Password string // Please use env var as this is plaintext
	Receiver string

	VoiceCommand string

	MQTTBroker   string
	MQTTTopic    string
	MQTTQoS      byte
	MQTTClientID string

	KafkaBrokers []string
	KafkaTopic   string
}

// Enabled reports whether the given channel is switched on.
func (a AlertConfig) Enabled(ch schema.AlertChannel) bool {
	return slices.Contains(a.Channels, ch)
}

// Config holds the runtime configuration for detection and monitoring.
// This struct is the "final, validated" config.
type Config struct {
	FeedPath     string
	ScalerPath   string
	ModelPath    string
	ModelName    string
	ModelTimeout time.Duration

	WindowSize     int
	Percentile     float64
	FixedThreshold float64 // 0 means estimate from the percentile
	BatchSize      int
	Workers        int

	PollInterval  time.Duration
	Watch         bool
	AlertCooldown time.Duration
	JournalFile   string
	MetricsAddr   string

	SourcePath     string
	StreamInterval time.Duration
	WithMonitor    bool
	NormalRows     int
	AnomalyRows    int
	Seed           uint64

	ServeAddr      string
	ServeThreshold float64

	ResultLimit int
	ShowAll     bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	Alerts AlertConfig

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel string
	LogFile  string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	FeedArg string

	// --- Artifacts and feed ---
	Feed         string `mapstructure:"feed"`
	Scaler       string `mapstructure:"scaler"`
	Model        string `mapstructure:"model"`
	ModelName    string `mapstructure:"model-name"`
	ModelTimeout string `mapstructure:"model-timeout"`

	// --- Scoring ---
	WindowSize int     `mapstructure:"window-size"`
	Percentile float64 `mapstructure:"percentile"`
	Threshold  float64 `mapstructure:"threshold"`
	BatchSize  int     `mapstructure:"batch-size"`
	Workers    int     `mapstructure:"workers"`

	// --- Fields from monitorCmd.Flags() ---
	PollInterval  string `mapstructure:"poll-interval"`
	Watch         bool   `mapstructure:"watch"`
	AlertCooldown string `mapstructure:"alert-cooldown"`
	JournalFile   string `mapstructure:"journal-file"`
	MetricsAddr   string `mapstructure:"metrics-addr"`

	// --- Fields from simulateCmd.Flags() and generateCmd.Flags() ---
	Source         string `mapstructure:"source"`
	StreamInterval string `mapstructure:"stream-interval"`
	WithMonitor    bool   `mapstructure:"with-monitor"`
	NormalRows     int    `mapstructure:"normal-rows"`
	AnomalyRows    int    `mapstructure:"anomaly-rows"`
	Seed           uint64 `mapstructure:"seed"`

	// --- Fields from serveCmd.Flags() ---
	Addr             string  `mapstructure:"addr"`
	AnomalyThreshold float64 `mapstructure:"anomaly-threshold"`

	// --- Output ---
	Limit      int    `mapstructure:"limit"`
	All        bool   `mapstructure:"all"`
	Precision  int    `mapstructure:"precision"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Alerts ---
	AlertChannels string `mapstructure:"alert-channels"`
	EmailAlerts   string `mapstructure:"email-alerts"`
	VoiceAlerts   string `mapstructure:"voice-alerts"`
	ConsoleAlerts string `mapstructure:"console-alerts"`
	AlertTimeout  string `mapstructure:"alert-timeout"`
	SMTPHost      string `mapstructure:"smtp-host"`
	SMTPPort      int    `mapstructure:"smtp-port"`
	SenderEmail   string `mapstructure:"sender-email"`
	SenderPass    string `mapstructure:"sender-pass"`
	ReceiverEmail string `mapstructure:"receiver-email"`
	VoiceCommand  string `mapstructure:"voice-command"`
	MQTTBroker    string `mapstructure:"mqtt-broker"`
	MQTTTopic     string `mapstructure:"mqtt-topic"`
	MQTTQoS       int    `mapstructure:"mqtt-qos"`
	MQTTClientID  string `mapstructure:"mqtt-client-id"`
	KafkaBrokers  string `mapstructure:"kafka-brokers"`
	KafkaTopic    string `mapstructure:"kafka-topic"`

	// --- Storage and logging ---
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	LogLevel         string `mapstructure:"log-level"`
	LogFile          string `mapstructure:"log-file"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Alerts.Channels = slices.Clone(c.Alerts.Channels)
	clone.Alerts.KafkaBrokers = slices.Clone(c.Alerts.KafkaBrokers)
	return &clone
}

// ThresholdSource reports how the threshold for a batch run is obtained.
func (c *Config) ThresholdSource() schema.ThresholdSource {
	if c.FixedThreshold > 0 {
		return schema.FixedThreshold
	}
	return schema.PercentileThreshold
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateScoringInputs(cfg, input); err != nil {
		return err
	}
	if err := validateRuntimeInputs(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	if err := processAlertConfig(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateScoringInputs handles artifact paths, window size and threshold settings.
func validateScoringInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.FeedPath = firstNonEmpty(input.FeedArg, input.Feed, DefaultFeedPath)
	cfg.ScalerPath = firstNonEmpty(input.Scaler, DefaultScalerPath)
	cfg.ModelPath = firstNonEmpty(input.Model, DefaultModelPath)
	cfg.ModelName = firstNonEmpty(input.ModelName, "lstm_autoencoder")

	timeout, err := parseDuration("model-timeout", input.ModelTimeout, DefaultModelTimeout)
	if err != nil {
		return err
	}
	cfg.ModelTimeout = timeout

	if input.WindowSize < 1 {
		return ConfigErrorf("window-size must be at least 1 (received %d)", input.WindowSize)
	}
	cfg.WindowSize = input.WindowSize

	if input.Percentile <= 0 || input.Percentile > 100 {
		return ConfigErrorf("percentile must be in (0, 100] (received %g)", input.Percentile)
	}
	cfg.Percentile = input.Percentile

	if input.Threshold < 0 {
		return ConfigErrorf("threshold cannot be negative (received %g)", input.Threshold)
	}
	cfg.FixedThreshold = input.Threshold

	if input.BatchSize < 1 {
		return ConfigErrorf("batch-size must be at least 1 (received %d)", input.BatchSize)
	}
	cfg.BatchSize = input.BatchSize

	if input.Workers <= 0 {
		return ConfigErrorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers
	return nil
}

// validateRuntimeInputs handles monitor, simulate, generate and serve settings.
func validateRuntimeInputs(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.PollInterval, err = parseDuration("poll-interval", input.PollInterval, DefaultPollInterval); err != nil {
		return err
	}
	if cfg.PollInterval <= 0 {
		return ConfigErrorf("poll-interval must be positive")
	}
	if cfg.AlertCooldown, err = parseDuration("alert-cooldown", input.AlertCooldown, 0); err != nil {
		return err
	}
	if cfg.AlertCooldown < 0 {
		return ConfigErrorf("alert-cooldown cannot be negative")
	}
	if cfg.StreamInterval, err = parseDuration("stream-interval", input.StreamInterval, DefaultStreamInterval); err != nil {
		return err
	}
	if cfg.StreamInterval <= 0 {
		return ConfigErrorf("stream-interval must be positive")
	}
	cfg.Watch = input.Watch
	cfg.JournalFile = strings.TrimSpace(input.JournalFile)
	cfg.MetricsAddr = strings.TrimSpace(input.MetricsAddr)

	cfg.SourcePath = firstNonEmpty(input.Source, DefaultSourcePath)
	cfg.WithMonitor = input.WithMonitor
	if input.NormalRows < 0 || input.AnomalyRows < 0 {
		return ConfigErrorf("row counts cannot be negative (normal=%d, anomaly=%d)", input.NormalRows, input.AnomalyRows)
	}
	cfg.NormalRows = input.NormalRows
	cfg.AnomalyRows = input.AnomalyRows
	cfg.Seed = input.Seed

	cfg.ServeAddr = firstNonEmpty(input.Addr, DefaultServeAddr)
	if input.AnomalyThreshold <= 0 {
		return ConfigErrorf("anomaly-threshold must be greater than 0 (received %g)", input.AnomalyThreshold)
	}
	cfg.ServeThreshold = input.AnomalyThreshold

	cfg.LogLevel = firstNonEmpty(input.LogLevel, "info")
	cfg.LogFile = strings.TrimSpace(input.LogFile)
	return nil
}

// validateOutputInputs handles the result presentation settings.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.ShowAll = input.All
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return ConfigErrorf("invalid --color value: %v", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return ConfigErrorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return ConfigErrorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return ConfigErrorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return ConfigErrorf("parquet output requires --output-file")
	}
	return nil
}

// processAlertConfig resolves which alert channels are active and their settings.
// The email, voice and console toggles are applied first, then --alert-channels adds more.
func processAlertConfig(cfg *Config, input *ConfigRawInput) error {
	a := AlertConfig{
		SMTPHost:     firstNonEmpty(input.SMTPHost, DefaultSMTPHost),
		SMTPPort:     input.SMTPPort,
		Sender:       strings.TrimSpace(input.SenderEmail),
		Password:     input.SenderPass,
		Receiver:     strings.TrimSpace(input.ReceiverEmail),
		VoiceCommand: firstNonEmpty(input.VoiceCommand, DefaultVoiceCommand),
		MQTTBroker:   strings.TrimSpace(input.MQTTBroker),
		MQTTTopic:    firstNonEmpty(input.MQTTTopic, DefaultMQTTTopic),
		MQTTClientID: firstNonEmpty(input.MQTTClientID, "factory-monitor"),
		KafkaTopic:   firstNonEmpty(input.KafkaTopic, DefaultKafkaTopic),
	}
	if a.SMTPPort == 0 {
		a.SMTPPort = DefaultSMTPPort
	}
	if input.MQTTQoS < 0 || input.MQTTQoS > 2 {
		return ConfigErrorf("mqtt-qos must be 0, 1 or 2 (received %d)", input.MQTTQoS)
	}
	a.MQTTQoS = byte(input.MQTTQoS)

	timeout, err := parseDuration("alert-timeout", input.AlertTimeout, DefaultAlertTimeout)
	if err != nil {
		return err
	}
	a.Timeout = timeout

	toggles := []struct {
		raw     string
		def     bool
		channel schema.AlertChannel
	}{ // all three are on unless switched off
		{input.ConsoleAlerts, true, schema.ConsoleChannel},
		{input.EmailAlerts, true, schema.EmailChannel},
		{input.VoiceAlerts, true, schema.VoiceChannel},
	}
	for _, tg := range toggles {
		on := tg.def
		if strings.TrimSpace(tg.raw) != "" {
			on, err = ParseBoolString(strings.TrimSpace(tg.raw))
			if err != nil {
				return ConfigErrorf("invalid %s alerts toggle: %v", tg.channel, err)
			}
		}
		if on {
			a.Channels = append(a.Channels, tg.channel)
		}
	}

	for p := range strings.SplitSeq(input.AlertChannels, ",") {
		ch := schema.AlertChannel(strings.ToLower(strings.TrimSpace(p)))
		if ch == "" {
			continue
		}
		if _, ok := schema.ValidAlertChannels[ch]; !ok {
			return ConfigErrorf("invalid alert channel '%s'. must be console, email, voice, mqtt, kafka", p)
		}
		if !slices.Contains(a.Channels, ch) {
			a.Channels = append(a.Channels, ch)
		}
	}

	for p := range strings.SplitSeq(input.KafkaBrokers, ",") {
		if b := strings.TrimSpace(p); b != "" {
			a.KafkaBrokers = append(a.KafkaBrokers, b)
		}
	}

	if a.Enabled(schema.MQTTChannel) && a.MQTTBroker == "" {
		return ConfigErrorf("mqtt-broker is required when the mqtt alert channel is enabled")
	}
	if a.Enabled(schema.KafkaChannel) && len(a.KafkaBrokers) == 0 {
		return ConfigErrorf("kafka-brokers is required when the kafka alert channel is enabled")
	}

	cfg.Alerts = a
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return ConfigErrorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return ConfigErrorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return ConfigErrorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return ConfigErrorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return ConfigErrorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return ConfigErrorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return ConfigErrorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return ConfigErrorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := firstNonEmpty(cfg.CacheDBConnect, GetCacheDBFilePath())
		historyPath := firstNonEmpty(cfg.HistoryDBConnect, GetHistoryDBFilePath())
		if cachePath == historyPath {
			return ConfigErrorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q: %v", ErrConfig, name, raw, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
