// Package algo holds the numeric kernels of anomaly detection: reconstruction error,
// percentile thresholds and classification.
package algo
