//go:build basic

// Package integration contains end-to-end tests for the factory CLI.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database tests need Docker: go test -tags database ./integration
package integration

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/outwriter"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// TestDetectMatchesInProcessEvaluation runs factory detect --output csv and checks
// every row against an in-process evaluation of the same feed.
func TestDetectMatchesInProcessEvaluation(t *testing.T) {
	ws := prepareWorkspace(t)
	resultsPath := filepath.Join(ws.Dir, "results.csv")

	_, err := runFactoryCommand(t, ws.Dir, ws.detectArgs(
		"--cache-backend", "none",
		"--output", "csv",
		"--output-file", resultsPath,
	)...)
	require.NoError(t, err)

	f, err := os.Open(resultsPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, outwriter.ResultsHeader, rows[0])
	rows = rows[1:]

	cfg := &contract.Config{
		FeedPath:   ws.Source,
		ScalerPath: ws.Scaler,
		ModelPath:  ws.Model,
		WindowSize: testWindow,
		Percentile: contract.DefaultPercentile,
		BatchSize:  contract.DefaultBatchSize,
		Workers:    2,
	}
	arts, err := core.LoadArtifacts(context.Background(), cfg)
	require.NoError(t, err)
	want, err := core.DetectFeed(core.WithSuppressHeader(context.Background()), cfg, nil, arts)
	require.NoError(t, err)

	require.Len(t, rows, len(want.Verdicts))
	assert.Equal(t, 220-testWindow, len(rows))
	for i, v := range want.Verdicts {
		got, err := strconv.ParseFloat(rows[i][1], 64)
		require.NoError(t, err)
		assert.InDelta(t, v.ReconstructionError, got, 1e-12, "row %d", i)
		assert.Equal(t, string(v.TrueLabel), rows[i][2], "row %d", i)
		assert.Equal(t, string(v.PredictedLabel()), rows[i][3], "row %d", i)
	}
}

// TestDetectFixedThresholdJSON checks the JSON summary of a fixed-threshold run.
func TestDetectFixedThresholdJSON(t *testing.T) {
	ws := prepareWorkspace(t)

	jsonPath := filepath.Join(ws.Dir, "results.json")

	_, err := runFactoryCommand(t, ws.Dir, ws.detectArgs(
		"--cache-backend", "none",
		"--output", "json",
		"--output-file", jsonPath,
		"--threshold", "1000",
	)...)
	require.NoError(t, err)
	out, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var body struct {
		Threshold  float64          `json:"threshold"`
		WindowSize int              `json:"window_size"`
		Verdicts   []schema.Verdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(out, &body))
	assert.InDelta(t, 1000, body.Threshold, 1e-9)
	assert.Equal(t, testWindow, body.WindowSize)
	for _, v := range body.Verdicts {
		assert.False(t, v.IsAnomaly)
	}
}
