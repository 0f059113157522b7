package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// monitorCmd watches the live feed and raises alerts.
var monitorCmd = &cobra.Command{
	Use:   "monitor [feed.csv]",
	Short: "Watch a growing sensor feed and alert on anomalous windows.",
	Long: `Re-read the live feed every --poll-interval and score its latest window.

The monitor waits until the feed holds a full window, calibrates a threshold from
the errors seen so far (or uses --threshold), then reports every new window and
alerts when it is anomalous. Stop it with Ctrl+C.

Alert channels:
- console, email and voice are on by default; switch them off with their toggles
- mqtt and kafka are added with --alert-channels

Examples:
  # Monitor the default feed with console alerts only
  factory monitor --email-alerts no --voice-alerts no

  # Wake up on file changes and expose Prometheus metrics
  factory monitor --watch --metrics-addr :9100

  # Publish alerts to MQTT and keep a poll journal
  factory monitor --alert-channels mqtt --mqtt-broker tcp://localhost:1883 --journal-file polls.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMonitor(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Monitor stopped", err)
		}
	},
}
