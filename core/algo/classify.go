package algo

// IsAnomaly reports whether a reconstruction error exceeds the threshold.
// The comparison is strict: an error equal to the threshold is normal.
func IsAnomaly(reconstructionError, threshold float64) bool {
	return reconstructionError > threshold
}
