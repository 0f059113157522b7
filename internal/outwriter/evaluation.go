package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/parquet"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ResultsHeader is the column layout of the CSV results sink.
var ResultsHeader = []string{"timestamp", "reconstruction_error", "true_label", "predicted_label"}

// WriteEvaluationResults outputs an evaluation, dispatching based on the output format configured.
func WriteEvaluationResults(result *schema.EvaluationResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationCSV(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := parquet.WriteVerdictsParquet(parquet.FromVerdicts(0, result.Verdicts), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d verdicts to %s\n", len(result.Verdicts), cfg.OutputFile)
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvaluationTables(w, result, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeEvaluationCSV writes one row per verdict in reading order.
func writeEvaluationCSV(w io.Writer, result *schema.EvaluationResult) error {
	return writeCSVWithHeader(w, ResultsHeader, func(cw *csv.Writer) error {
		for _, v := range result.Verdicts {
			rec := []string{
				v.WindowEnd.Format(contract.DateTimeFormat),
				strconv.FormatFloat(v.ReconstructionError, 'g', -1, 64),
				string(v.TrueLabel),
				string(v.PredictedLabel()),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// evaluationSummary is the JSON summary block.
type evaluationSummary struct {
	Readings  int              `json:"readings"`
	Windows   int              `json:"windows"`
	Anomalies int              `json:"anomalies"`
	Skipped   int              `json:"skipped"`
	Confusion schema.Confusion `json:"confusion"`
	Precision float64          `json:"precision"`
	Recall    float64          `json:"recall"`
	F1        float64          `json:"f1"`
	Accuracy  float64          `json:"accuracy"`
}

// writeEvaluationJSON writes the whole evaluation, every verdict included.
func writeEvaluationJSON(w io.Writer, result *schema.EvaluationResult) error {
	output := struct {
		Threshold       float64                `json:"threshold"`
		ThresholdSource schema.ThresholdSource `json:"threshold_source"`
		Percentile      float64                `json:"percentile,omitempty"`
		WindowSize      int                    `json:"window_size"`
		Summary         evaluationSummary      `json:"summary"`
		Verdicts        []schema.Verdict       `json:"verdicts"`
	}{
		Threshold:       result.Threshold,
		ThresholdSource: result.ThresholdSource,
		WindowSize:      result.WindowSize,
		Summary:         summarize(result),
		Verdicts:        result.Verdicts,
	}
	if result.ThresholdSource == schema.PercentileThreshold {
		output.Percentile = result.Percentile
	}
	return writeJSON(w, output)
}

func summarize(result *schema.EvaluationResult) evaluationSummary {
	c := result.Confusion
	return evaluationSummary{
		Readings:  result.Readings,
		Windows:   len(result.Verdicts),
		Anomalies: result.Anomalies(),
		Skipped:   result.Skipped,
		Confusion: c,
		Precision: c.Precision(),
		Recall:    c.Recall(),
		F1:        c.F1(),
		Accuracy:  c.Accuracy(),
	}
}

// SelectVerdicts returns the verdicts shown in tables: anomalies only unless showAll,
// capped at limit.
func SelectVerdicts(result *schema.EvaluationResult, showAll bool, limit int) []schema.Verdict {
	verdicts := result.Verdicts
	if !showAll {
		verdicts = result.AnomalousVerdicts()
	}
	if limit > 0 && len(verdicts) > limit {
		verdicts = verdicts[:limit]
	}
	return verdicts
}

// writeEvaluationTables writes the summary table followed by the verdict table.
func writeEvaluationTables(w io.Writer, result *schema.EvaluationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	if err := writeSummaryTable(w, result, fmtFloat); err != nil {
		return err
	}

	verdicts := SelectVerdicts(result, cfg.ShowAll, cfg.ResultLimit)
	if len(verdicts) > 0 {
		if err := writeVerdictTable(w, verdicts, cfg, fmtFloat); err != nil {
			return err
		}
	}

	kind := "anomalous"
	total := result.Anomalies()
	if cfg.ShowAll {
		kind, total = "", len(result.Verdicts)
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d %s windows\n", len(verdicts), total, kind); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Detection completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

func writeSummaryTable(w io.Writer, result *schema.EvaluationResult, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	source := string(result.ThresholdSource)
	if result.ThresholdSource == schema.PercentileThreshold {
		source = fmt.Sprintf("p%g", result.Percentile)
	}
	data := [][]string{
		{"Threshold", fmtFloat(result.Threshold) + " (" + source + ")"},
		{"Readings", strconv.Itoa(result.Readings)},
		{"Windows", strconv.Itoa(len(result.Verdicts))},
		{"Anomalies", strconv.Itoa(result.Anomalies())},
		{"Skipped", strconv.Itoa(result.Skipped)},
	}
	if c := result.Confusion; c.Total() > 0 {
		data = append(data,
			[]string{"TP / FP / TN / FN", fmt.Sprintf("%d / %d / %d / %d", c.TruePositives, c.FalsePositives, c.TrueNegatives, c.FalseNegatives)},
			[]string{"Precision", fmtFloat(c.Precision())},
			[]string{"Recall", fmtFloat(c.Recall())},
			[]string{"F1", fmtFloat(c.F1())},
			[]string{"Accuracy", fmtFloat(c.Accuracy())},
		)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeVerdictTable(w io.Writer, verdicts []schema.Verdict, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	wide := getTableLayout(cfg) == wideLayout
	headers := []string{"Index", "Window End", "Error", "Label"}
	if wide {
		headers = append(headers, "Threshold", "True Label")
	}
	table.Header(headers)

	// 2. Configure alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	data := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		label := contract.GetPlainLabel(v.IsAnomaly)
		if cfg.UseColors {
			label = contract.GetColorLabel(v.IsAnomaly)
		}
		row := []string{
			strconv.Itoa(v.Index),
			v.WindowEnd.Format(contract.DateTimeFormat),
			fmtFloat(v.ReconstructionError),
			label,
		}
		if wide {
			trueLabel := string(v.TrueLabel)
			if trueLabel == "" {
				trueLabel = "-"
			}
			row = append(row, fmtFloat(v.Threshold), trueLabel)
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
