package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// simulateCmd replays a recorded dataset into the live feed.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Stream a recorded dataset into the live feed.",
	Long: `Copy the readings of --source into the live feed one at a time, waiting
--stream-interval between readings, the way a data logger on the line would.

With --with-monitor the live monitor runs in the same process and stops once
streaming finishes or fails.

Examples:
  # Stream at the default 4 readings per second
  factory simulate

  # Stream and monitor at once
  factory simulate --with-monitor --email-alerts no --voice-alerts no`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSimulate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Simulation failed", err)
		}
	},
}
