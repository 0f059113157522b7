package core

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

func TestPredictReading(t *testing.T) {
	arts := &Artifacts{
		Scaler: schema.ScalerParams{FeatureMax: schema.Vector{2, 100, 4}},
		Scorer: NewScorer(&zeroModel{}, 8, 1),
	}

	tests := []struct {
		name      string
		raw       schema.Vector
		threshold float64
		wantErr   float64
		anomalous bool
	}{
		// Scaled to (0.5, 0.5, 0.5), so the error is 0.25.
		{"above threshold", schema.Vector{1, 50, 2}, 0.001, 0.25, true},
		{"equal is normal", schema.Vector{1, 50, 2}, 0.25, 0.25, false},
		{"zero reading", schema.Vector{0, 0, 0}, 0.001, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PredictReading(context.Background(), arts, 30, tt.threshold, tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantErr, got.ReconstructionError, 1e-12)
			assert.Equal(t, tt.anomalous, got.IsAnomaly)
			assert.Equal(t, got.IsAnomaly, got.Anomaly)
			assert.InDelta(t, tt.threshold, got.Threshold, 1e-12)
		})
	}
}

func TestPredictReadingErrors(t *testing.T) {
	arts := &Artifacts{Scaler: unitScaler, Scorer: NewScorer(&zeroModel{}, 8, 1)}

	for _, raw := range []schema.Vector{{math.NaN(), 0, 0}, {0, math.Inf(1), 0}, {0, 0, math.Inf(-1)}} {
		_, err := PredictReading(context.Background(), arts, 30, 0.1, raw)
		assert.ErrorIs(t, err, ErrInvalidReading)
		assert.NotErrorIs(t, err, contract.ErrModelInference)
	}

	_, err := PredictReading(context.Background(), arts, 30, 0.1, schema.Vector{1, 1, 1})
	require.NoError(t, err)

	_, err = PredictReading(context.Background(), arts, 0, 0.1, schema.Vector{1, 1, 1})
	assert.ErrorIs(t, err, contract.ErrConfig)

	failing := &Artifacts{Scaler: unitScaler, Scorer: NewScorer(&zeroModel{fail: func([]schema.Window) error { return errMarker }}, 8, 1)}
	_, err = PredictReading(context.Background(), failing, 30, 0.1, schema.Vector{1, 1, 1})
	assert.ErrorIs(t, err, contract.ErrModelInference)
}
