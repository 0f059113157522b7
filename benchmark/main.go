// Package main provides a performance benchmarking tool for the factory CLI.
// It generates synthetic feeds of increasing size and times `factory detect` on each,
// running each test multiple times, treating the first successful cached run as cold
// and averaging the rest as warm, generating CSV output for performance analysis.
//
// Prerequisites:
// - factory binary installed and available in PATH
// - A fitted scaler and a trained model in the artifact directory:
//   lstm_scaler.npy and lstm_autoencoder.json
//
// Usage: go run benchmark/main.go [artifact-dir]
//
//	artifact-dir: Directory containing the scaler and model artifacts
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Feed        string
	Readings    int
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ArtifactDir string
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	FeedSizes   []int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [artifact-dir]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "factory-benchmark-")
	if err != nil {
		fmt.Printf("Failed to create work directory: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		ArtifactDir: os.Args[1],
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		FeedSizes:   []int{1_000, 10_000, 50_000},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

func scalerPath(config BenchmarkConfig) string {
	return filepath.Join(config.ArtifactDir, "lstm_scaler.npy")
}

func modelPath(config BenchmarkConfig) string {
	return filepath.Join(config.ArtifactDir, "lstm_autoencoder.json")
}

// checkPrerequisites verifies that the factory binary and the artifacts exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("factory"); err != nil {
		return fmt.Errorf("factory binary not found in PATH")
	}

	for _, path := range []string{scalerPath(config), modelPath(config)} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("artifact not found at %s", path)
		}
	}

	return nil
}

// runBenchmarks generates one feed per size and benchmarks detection on it
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d feeds, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.FeedSizes), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.FeedSizes {
		name := fmt.Sprintf("feed_%d", size)
		feedPath := filepath.Join(config.WorkDir, name+".csv")

		fmt.Printf("Generating %s\n", name)
		anomalies := max(size/10, 1)
		gen := exec.Command("factory", "generate",
			"--source", feedPath,
			"--normal-rows", strconv.Itoa(size-anomalies),
			"--anomaly-rows", strconv.Itoa(anomalies))
		if output, err := gen.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\nOutput: %s\n", name, err, string(output))
			continue
		}

		results = append(results, runBenchmarkSuite(config, name, feedPath, size))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a feed
func runBenchmarkSuite(config BenchmarkConfig, name, feedPath string, size int) BenchmarkResult {
	fmt.Printf("Running detection on %s\n", name)

	cacheDB := filepath.Join(config.WorkDir, name+".cache.db")

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, feedPath, cacheArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh SQLite file
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheDB}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Feed:        name,
		Readings:    size,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes factory detect multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, feedPath string, cacheArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"detect", feedPath,
		"--scaler", scalerPath(config),
		"--model", modelPath(config),
		"--workers", strconv.Itoa(config.Workers),
		"--color", "no",
	}
	args = append(args, cacheArgs...)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("factory", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Detection completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/factory_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"feed", "readings", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Feed, strconv.Itoa(result.Readings), result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	fmt.Printf("Detection:\n")
	for _, result := range results {
		fmt.Printf("  %-14s: No-cache: %s, Cold: %s, Warm: %s\n", result.Feed, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
