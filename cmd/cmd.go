// Package cmd defines the command-line interface for factory.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Flags shared by more than one command. Each set is bound to Viper once and
// added to every command that reads it, so a flag set on any of them is seen.
var (
	monitorFlags = pflag.NewFlagSet("monitor", pflag.ContinueOnError)
	alertFlags   = pflag.NewFlagSet("alerts", pflag.ContinueOnError)
	sourceFlags  = pflag.NewFlagSet("source", pflag.ContinueOnError)
	serveFlags   = pflag.NewFlagSet("serve", pflag.ContinueOnError)
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scalerCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	scalerCmd.AddCommand(scalerFitCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("feed", "", "Path to the live sensor feed CSV (default "+contract.DefaultFeedPath+")")
	rootCmd.PersistentFlags().String("scaler", "", "Path to the fitted scaler .npy (default "+contract.DefaultScalerPath+")")
	rootCmd.PersistentFlags().String("model", "", "Dense model JSON file or TF Serving URL (default "+contract.DefaultModelPath+")")
	rootCmd.PersistentFlags().String("model-name", "", "Model name when --model is a TF Serving URL")
	rootCmd.PersistentFlags().String("model-timeout", contract.DefaultModelTimeout.String(), "Timeout for a single remote inference request")
	rootCmd.PersistentFlags().IntP("window-size", "w", contract.DefaultWindowSize, "Number of consecutive readings per window")
	rootCmd.PersistentFlags().Float64("percentile", contract.DefaultPercentile, "Percentile of reconstruction errors used as threshold")
	rootCmd.PersistentFlags().Float64("threshold", 0, "Fixed anomaly threshold (0 = estimate from --percentile)")
	rootCmd.PersistentFlags().Int("batch-size", contract.DefaultBatchSize, "Windows per model request")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent inference workers")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Score cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file, rotated")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of detectCmd to Viper
	detectCmd.Flags().IntP("limit", "l", contract.DefaultResultLimit, "Number of verdicts to display")
	detectCmd.Flags().Bool("all", false, "Show every verdict, not only anomalies")
	detectCmd.Flags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	detectCmd.Flags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	detectCmd.Flags().String("output-file", "", "Optional path to write output to")
	detectCmd.Flags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	if err := viper.BindPFlags(detectCmd.Flags()); err != nil {
		contract.LogFatal("Error binding detect flags", err)
	}

	monitorFlags.String("poll-interval", contract.DefaultPollInterval.String(), "How often the feed is re-read")
	monitorFlags.Bool("watch", false, "Also re-read the feed as soon as the file changes")
	monitorFlags.String("alert-cooldown", "0s", "Minimum time between two alerts (0 = alert on every anomalous poll)")
	monitorFlags.String("journal-file", "", "Append one CSV row per poll to this file")
	monitorFlags.String("metrics-addr", "", "Expose Prometheus /metrics on this address (e.g. :9100)")

	alertFlags.String("alert-channels", "", "Extra alert channels: mqtt,kafka (console, email, voice use their toggles)")
	alertFlags.String("console-alerts", "", "Console alerts toggle (default on)")
	alertFlags.String("email-alerts", "", "Email alerts toggle (default on)")
	alertFlags.String("voice-alerts", "", "Voice alerts toggle (default on)")
	alertFlags.String("alert-timeout", contract.DefaultAlertTimeout.String(), "Deadline for delivering one alert to all channels")
	alertFlags.String("smtp-host", contract.DefaultSMTPHost, "SMTP server host")
	alertFlags.Int("smtp-port", contract.DefaultSMTPPort, "SMTP server port (implicit TLS)")
	alertFlags.String("sender-email", "", "Alert sender address")
	alertFlags.String("sender-pass", "", "Alert sender password (prefer FACTORY_SENDER_PASS)")
	alertFlags.String("receiver-email", "", "Alert receiver address")
	alertFlags.String("voice-command", contract.DefaultVoiceCommand, "Text-to-speech command used for voice alerts")
	alertFlags.String("mqtt-broker", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	alertFlags.String("mqtt-topic", contract.DefaultMQTTTopic, "MQTT topic for alerts")
	alertFlags.Int("mqtt-qos", 1, "MQTT QoS level: 0, 1 or 2")
	alertFlags.String("mqtt-client-id", "", "MQTT client ID")
	alertFlags.String("kafka-brokers", "", "Comma-separated Kafka brokers")
	alertFlags.String("kafka-topic", contract.DefaultKafkaTopic, "Kafka topic for alerts")

	sourceFlags.String("source", "", "Path to the labelled source dataset CSV (default "+contract.DefaultSourcePath+")")

	serveFlags.Float64("anomaly-threshold", contract.DefaultServeThreshold, "Fixed threshold for single-reading predictions")

	for _, fs := range []*pflag.FlagSet{monitorFlags, alertFlags, sourceFlags, serveFlags} {
		if err := viper.BindPFlags(fs); err != nil {
			contract.LogFatal("Error binding "+fs.Name()+" flags", err)
		}
	}

	monitorCmd.Flags().AddFlagSet(monitorFlags)
	monitorCmd.Flags().AddFlagSet(alertFlags)

	// Bind all flags of simulateCmd to Viper
	simulateCmd.Flags().String("stream-interval", contract.DefaultStreamInterval.String(), "Delay between streamed readings")
	simulateCmd.Flags().Bool("with-monitor", false, "Run the live monitor in-process while streaming")
	if err := viper.BindPFlags(simulateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding simulate flags", err)
	}
	simulateCmd.Flags().AddFlagSet(sourceFlags)
	simulateCmd.Flags().AddFlagSet(monitorFlags)
	simulateCmd.Flags().AddFlagSet(alertFlags)

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().Int("normal-rows", contract.DefaultNormalRows, "Number of normal readings")
	generateCmd.Flags().Int("anomaly-rows", contract.DefaultAnomalyRows, "Number of anomalous readings")
	generateCmd.Flags().Uint64("seed", 42, "Random seed")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}
	generateCmd.Flags().AddFlagSet(sourceFlags)

	scalerFitCmd.Flags().AddFlagSet(sourceFlags)

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Listen address for the prediction API")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
	serveCmd.Flags().AddFlagSet(serveFlags)
	mcpCmd.Flags().AddFlagSet(serveFlags)

	// Bind all flags of historyExportCmd to Viper
	historyExportCmd.Flags().String("output-dir", "", "Directory to write runs, verdicts and alerts Parquet files to")
	if err := viper.BindPFlags(historyExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history export flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
