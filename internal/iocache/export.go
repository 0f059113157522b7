package iocache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/parquet"
)

// Export file names written under the output directory.
const (
	runsExportFile     = "runs.parquet"
	verdictsExportFile = "verdicts.parquet"
	alertsExportFile   = "alerts.parquet"
)

// ExecuteHistoryExport writes every run, verdict and alert to Parquet files in outputDir.
func ExecuteHistoryExport(store contract.HistoryStore, outputDir string) error {
	if outputDir == "" {
		return errors.New("--output-dir is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	verdicts, err := store.GetAllVerdicts()
	if err != nil {
		return fmt.Errorf("failed to retrieve verdicts: %w", err)
	}
	alerts, err := store.GetAllAlerts()
	if err != nil {
		return fmt.Errorf("failed to retrieve alerts: %w", err)
	}

	runsFile := filepath.Join(outputDir, runsExportFile)
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	verdictsFile := filepath.Join(outputDir, verdictsExportFile)
	if err := parquet.WriteVerdictsParquet(parquet.ConvertVerdictRecords(verdicts), verdictsFile); err != nil {
		return fmt.Errorf("failed to write verdicts: %w", err)
	}
	fmt.Printf("Exported %d verdicts to: %s\n", len(verdicts), verdictsFile)

	alertsFile := filepath.Join(outputDir, alertsExportFile)
	if err := parquet.WriteAlertsParquet(parquet.ConvertAlertRecords(alerts), alertsFile); err != nil {
		return fmt.Errorf("failed to write alerts: %w", err)
	}
	fmt.Printf("Exported %d alerts to: %s\n", len(alerts), alertsFile)

	return nil
}
