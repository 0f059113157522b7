package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// scalerCmd groups scaler artifact operations.
var scalerCmd = &cobra.Command{
	Use:   "scaler",
	Short: "Manage the feature scaler artifact",
}

// scalerFitCmd fits the scaler from the reference dataset.
var scalerFitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit the per-feature scaler from a reference dataset.",
	Long: `Compute the per-feature maximum of --source and save it to --scaler.

When the dataset is labelled only normal readings are used.

Examples:
  factory scaler fit --source data/sensors/sensor_data.csv --scaler models/lstm_scaler.npy`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScalerFit(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot fit scaler", err)
		}
	},
}
