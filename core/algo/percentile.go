package algo

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile of values using linear interpolation
// between closest ranks (position p/100*(n-1) in the sorted sample).
// NaN values are ignored. ok is false when no values remain or p is outside (0, 100].
func Percentile(values []float64, p float64) (result float64, ok bool) {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return 0, false
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, false
	}
	slices.Sort(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, true
}
