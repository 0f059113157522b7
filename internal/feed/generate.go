package feed

import (
	"math/rand/v2"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Distribution is a per-feature normal distribution.
type Distribution struct {
	Mean   schema.Vector
	StdDev schema.Vector
}

// Reference distributions of the synthetic dataset.
var (
	NormalDistribution = Distribution{
		Mean:   schema.Vector{1.0, 37.0, 2.4},
		StdDev: schema.Vector{0.05, 0.3, 0.1},
	}
	AnomalyDistribution = Distribution{
		Mean:   schema.Vector{3.0, 60.0, 8.0},
		StdDev: schema.Vector{0.2, 2.5, 0.5},
	}
)

// GenerateStart is the timestamp of the first synthetic reading.
var GenerateStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// GenerateOptions controls the synthetic dataset.
type GenerateOptions struct {
	NormalRows  int
	AnomalyRows int
	Seed        uint64
	Start       time.Time     // GenerateStart when zero
	Cadence     time.Duration // one minute when zero
}

// Generate produces NormalRows labelled normal readings followed by AnomalyRows labelled
// anomalies at a fixed cadence. The same seed always yields the same dataset.
func Generate(opts GenerateOptions) []schema.SensorReading {
	start := opts.Start
	if start.IsZero() {
		start = GenerateStart
	}
	cadence := opts.Cadence
	if cadence <= 0 {
		cadence = time.Minute
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	total := opts.NormalRows + opts.AnomalyRows
	out := make([]schema.SensorReading, total)
	for i := range total {
		dist, label := NormalDistribution, schema.NormalLabel
		if i >= opts.NormalRows {
			dist, label = AnomalyDistribution, schema.AnomalyLabel
		}
		var v schema.Vector
		for f := range schema.NumFeatures {
			v[f] = dist.Mean[f] + dist.StdDev[f]*rng.NormFloat64()
		}
		out[i] = schema.SensorReading{
			Timestamp: start.Add(time.Duration(i) * cadence),
			Values:    v,
			Label:     label,
		}
	}
	return out
}
