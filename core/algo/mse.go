package algo

import (
	"fmt"
	"math"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// MeanSquaredError returns the mean of squared differences over every cell of two
// equally shaped windows. A shape mismatch or a non-finite result is an error.
func MeanSquaredError(input, output schema.Window) (float64, error) {
	if len(input) == 0 {
		return 0, fmt.Errorf("empty window")
	}
	if len(input) != len(output) {
		return 0, fmt.Errorf("shape mismatch: input has %d steps, output has %d", len(input), len(output))
	}

	var sum float64
	for t := range input {
		for f := range schema.NumFeatures {
			d := input[t][f] - output[t][f]
			sum += d * d
		}
	}
	mse := sum / float64(len(input)*schema.NumFeatures)
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return 0, fmt.Errorf("non-finite reconstruction error")
	}
	return mse, nil
}
