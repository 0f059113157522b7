package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/SohamS7S/Smart-factory-ai/core/algo"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ErrInvalidReading marks a reading the caller must correct, such as a NaN or infinite value.
var ErrInvalidReading = errors.New("invalid reading")

// PredictReading classifies a single raw reading without any history. The scaled
// reading is repeated windowSize times and that window's error is compared with threshold.
func PredictReading(ctx context.Context, arts *Artifacts, windowSize int, threshold float64, raw schema.Vector) (schema.PredictResponse, error) {
	if !raw.IsFinite() {
		return schema.PredictResponse{}, fmt.Errorf("%w: values must be finite, got %v", ErrInvalidReading, raw)
	}
	if windowSize < 1 {
		return schema.PredictResponse{}, contract.ConfigErrorf("window size must be at least 1, got %d", windowSize)
	}

	scaled := Transform(arts.Scaler, raw)
	w := make(schema.Window, windowSize)
	for i := range w {
		w[i] = scaled
	}

	score, err := arts.Scorer.Score(ctx, w)
	if err != nil {
		return schema.PredictResponse{}, err
	}
	anomalous := algo.IsAnomaly(score, threshold)
	return schema.PredictResponse{
		IsAnomaly:           anomalous,
		Anomaly:             anomalous,
		ReconstructionError: score,
		Threshold:           threshold,
	}, nil
}
