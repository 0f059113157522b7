package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// spikeReadings holds ten readings with a single spike at index 7.
func spikeReadings() []schema.SensorReading {
	return readingsOf(0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 2, 0.1, 0.1)
}

func TestEvaluateAlignment(t *testing.T) {
	cfg := testConfig(3)
	cfg.FixedThreshold = 0.5
	readings := spikeReadings()

	result, err := Evaluate(context.Background(), cfg, unitScaler, NewScorer(&zeroModel{}, 2, 2), readings)
	require.NoError(t, err)

	assert.Equal(t, 3, result.WindowSize)
	assert.Equal(t, 10, result.Readings)
	assert.Equal(t, schema.FixedThreshold, result.ThresholdSource)
	assert.InDelta(t, 0.5, result.Threshold, 1e-12)
	require.Len(t, result.Verdicts, 7, "n readings yield n-size windows")

	for i, v := range result.Verdicts {
		assert.Equal(t, i+3, v.Index, "window %d ends on reading %d", i, i+3)
		assert.Equal(t, readings[v.Index].Timestamp, v.WindowEnd)
		assert.Equal(t, readings[v.Index].Label, v.TrueLabel)
		assert.InDelta(t, 0.5, v.Threshold, 1e-12)
		assert.Equal(t, v.Index >= 7, v.IsAnomaly, "index %d", v.Index)
	}
	assert.Equal(t, 3, result.Anomalies())
	assert.Equal(t, schema.Confusion{TruePositives: 1, FalsePositives: 2, TrueNegatives: 4}, result.Confusion)
}

func TestEvaluatePercentileThreshold(t *testing.T) {
	cfg := testConfig(3)
	cfg.Percentile = 50

	result, err := Evaluate(context.Background(), cfg, unitScaler, NewScorer(&zeroModel{}, 4, 1), spikeReadings())
	require.NoError(t, err)

	assert.Equal(t, schema.PercentileThreshold, result.ThresholdSource)
	assert.InDelta(t, 0.01, result.Threshold, 1e-12)
	// Quiet windows score exactly the threshold and stay normal.
	assert.Equal(t, 3, result.Anomalies())
	for _, v := range result.AnomalousVerdicts() {
		assert.GreaterOrEqual(t, v.Index, 7)
	}
}

func TestEvaluateScalesReadings(t *testing.T) {
	cfg := testConfig(2)
	cfg.FixedThreshold = 1
	params := schema.ScalerParams{FeatureMax: schema.Vector{10, 10, 10}}

	result, err := Evaluate(context.Background(), cfg, params, NewScorer(&zeroModel{}, 4, 1), readingsOf(5, 5, 5))
	require.NoError(t, err)
	require.Len(t, result.Verdicts, 1)
	assert.InDelta(t, 0.25, result.Verdicts[0].ReconstructionError, 1e-12)
}

func TestEvaluateSkipsFailedWindows(t *testing.T) {
	cfg := testConfig(3)
	cfg.FixedThreshold = 0.5

	// The last window starts on the spike and cannot be scored.
	scorer := NewScorer(&zeroModel{fail: failOnValue(2)}, 1, 2)
	result, err := Evaluate(context.Background(), cfg, unitScaler, scorer, spikeReadings())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Verdicts, 6)
	for _, v := range result.Verdicts {
		assert.NotEqual(t, 9, v.Index)
	}
	assert.Equal(t, 6, result.Confusion.Total())
}

func TestEvaluateErrors(t *testing.T) {
	t.Run("too few readings", func(t *testing.T) {
		_, err := Evaluate(context.Background(), testConfig(3), unitScaler, NewScorer(&zeroModel{}, 1, 1), readingsOf(0.1, 0.1, 0.1))
		assert.ErrorIs(t, err, contract.ErrInsufficientData)
	})

	t.Run("every window failed", func(t *testing.T) {
		scorer := NewScorer(&zeroModel{fail: func([]schema.Window) error { return errMarker }}, 4, 1)
		_, err := Evaluate(context.Background(), testConfig(3), unitScaler, scorer, spikeReadings())
		assert.ErrorIs(t, err, contract.ErrInsufficientData)
	})

	t.Run("score func error stops the chain", func(t *testing.T) {
		cfg := testConfig(3)
		_, err := NewEvaluationBuilder(cfg, unitScaler, NewScorer(&zeroModel{}, 1, 1), spikeReadings()).
			WithScoreFunc(func(context.Context, []schema.Window) ([]float64, error) { return nil, context.DeadlineExceeded }).
			Scale().
			Sequence().
			Score(context.Background()).
			Threshold().
			Classify().
			Build()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		_, err := Evaluate(ctx, testConfig(3), unitScaler, NewScorer(&zeroModel{}, 1, 1), spikeReadings())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
