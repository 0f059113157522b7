package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// generateCmd writes the synthetic labelled dataset.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic labelled sensor dataset.",
	Long: `Generate normal readings around the nominal operating point followed by
anomalous readings, one minute apart, and write them to --source.

The same --seed always produces the same dataset.

Examples:
  factory generate
  factory generate --normal-rows 5000 --anomaly-rows 250 --source data/sensors/big.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot generate dataset", err)
		}
	},
}
