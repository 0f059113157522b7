package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// detectCmd evaluates every window of a recorded feed.
var detectCmd = &cobra.Command{
	Use:   "detect [feed.csv]",
	Short: "Score every window of a sensor feed and report the anomalies.",
	Long: `Slide a window over the whole feed, score each window by its reconstruction
error and compare it with a threshold.

The threshold is the --percentile of the feed's own reconstruction errors unless
--threshold fixes it. When the feed is labelled, a confusion matrix against the
label of each window's last reading is reported too.

Examples:
  # Evaluate the default live feed
  factory detect

  # Evaluate a recorded feed with a 10-reading window
  factory detect data/sensors/sensor_data.csv --window-size 10

  # Use a fixed threshold and list every window
  factory detect --threshold 0.02 --all

  # Export the results sink for a dashboard
  factory detect --output csv --output-file results.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDetect(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run detection", err)
		}
	},
}
