package core

import (
	"github.com/SohamS7S/Smart-factory-ai/internal/artifact"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// FitScaler builds scaler parameters from explicit per-feature maxima.
func FitScaler(maxima []float64) (schema.ScalerParams, error) {
	return artifact.ValidateMaxima(maxima)
}

// FitScalerFromReadings computes per-feature maxima over the reference readings.
// Readings labelled anomalous are excluded so the scale reflects normal operation.
func FitScalerFromReadings(readings []schema.SensorReading) (schema.ScalerParams, error) {
	var (
		maxima schema.Vector
		used   int
	)
	for _, r := range readings {
		if r.Label == schema.AnomalyLabel {
			continue
		}
		for f, v := range r.Values {
			if used == 0 || v > maxima[f] {
				maxima[f] = v
			}
		}
		used++
	}
	if used == 0 {
		return schema.ScalerParams{}, contract.InsufficientDataf("no normal readings to fit the scaler")
	}
	return FitScaler(maxima[:])
}

// Transform scales one reading by the per-feature maxima.
func Transform(p schema.ScalerParams, v schema.Vector) schema.Vector {
	var out schema.Vector
	for f := range v {
		out[f] = v[f] / p.FeatureMax[f]
	}
	return out
}

// TransformAll scales every reading, preserving order.
func TransformAll(p schema.ScalerParams, readings []schema.SensorReading) []schema.Vector {
	out := make([]schema.Vector, len(readings))
	for i, r := range readings {
		out[i] = Transform(p, r.Values)
	}
	return out
}
