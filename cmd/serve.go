package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/httpapi"
)

// serveCmd runs the single-reading prediction API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-reading predictions over HTTP.",
	Long: `Start the prediction API.

Routes:
  POST /predict-sensor  {"vibration": .., "temperature": .., "pressure": ..}
  GET  /healthz
  GET  /metrics

A reading is scaled, repeated to fill a window and scored against
--anomaly-threshold.

Examples:
  factory serve --addr :8000
  curl -XPOST localhost:8000/predict-sensor -d '{"vibration": 0.4, "temperature": 70, "pressure": 1.1}'`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		arts, err := core.LoadArtifacts(rootCtx, cfg)
		if err != nil {
			contract.LogFatal("Cannot load model artifacts", err)
		}
		if err := httpapi.NewServer(cfg, arts, os.Stdout).ListenAndServe(rootCtx, cfg.ServeAddr); err != nil {
			contract.LogFatal("Prediction server failed", err)
		}
	},
}
