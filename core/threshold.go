package core

import (
	"github.com/SohamS7S/Smart-factory-ai/core/algo"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// EstimateThreshold returns the given percentile of a population of reconstruction errors.
// Failed scores (NaN) are not part of the population.
func EstimateThreshold(errors []float64, percentile float64) (float64, error) {
	if !(percentile > 0 && percentile <= 100) {
		return 0, contract.ConfigErrorf("percentile must be in (0, 100], got %g", percentile)
	}
	t, ok := algo.Percentile(errors, percentile)
	if !ok {
		return 0, contract.InsufficientDataf("no reconstruction errors to estimate a threshold from")
	}
	return t, nil
}
