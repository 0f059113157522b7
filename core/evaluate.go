package core

import (
	"context"
	"errors"

	"github.com/SohamS7S/Smart-factory-ai/core/algo"
	"github.com/SohamS7S/Smart-factory-ai/core/window"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ScoreFunc scores windows in order. It has the semantics of Scorer.ScoreMany.
type ScoreFunc func(ctx context.Context, windows []schema.Window) ([]float64, error)

// EvaluationBuilder runs the batch evaluation steps over a fixed set of readings.
// The first failing step stores its error and turns the remaining steps into no-ops.
type EvaluationBuilder struct {
	cfg      *contract.Config
	params   schema.ScalerParams
	readings []schema.SensorReading
	scoreFn  ScoreFunc

	// Internal data collected during the build process
	scaled    []schema.Vector
	windows   []schema.Window
	scores    []float64
	failures  *contract.InferenceError
	threshold float64
	source    schema.ThresholdSource
	result    *schema.EvaluationResult
	err       error
}

// NewEvaluationBuilder is the starting point for evaluating a recorded feed.
func NewEvaluationBuilder(cfg *contract.Config, params schema.ScalerParams, scorer *Scorer, readings []schema.SensorReading) *EvaluationBuilder {
	return &EvaluationBuilder{
		cfg:      cfg,
		params:   params,
		readings: readings,
		scoreFn:  scorer.ScoreMany,
	}
}

// WithScoreFunc replaces the scoring step, for example with a cached lookup.
func (b *EvaluationBuilder) WithScoreFunc(fn ScoreFunc) *EvaluationBuilder {
	b.scoreFn = fn
	return b
}

// Scale applies the scaler to every reading.
func (b *EvaluationBuilder) Scale() *EvaluationBuilder {
	if b.err != nil {
		return b
	}
	b.scaled = TransformAll(b.params, b.readings)
	return b
}

// Sequence cuts the scaled series into sliding windows.
func (b *EvaluationBuilder) Sequence() *EvaluationBuilder {
	if b.err != nil {
		return b
	}
	size := b.cfg.WindowSize
	if window.Count(len(b.scaled), size) == 0 {
		b.err = contract.InsufficientDataf("need more than %d readings, have %d", size, len(b.scaled))
		return b
	}
	b.windows = window.MakeWindows(b.scaled, size)
	return b
}

// Score computes the reconstruction error of every window. Windows the model
// could not score are remembered and left out of later steps.
func (b *EvaluationBuilder) Score(ctx context.Context) *EvaluationBuilder {
	if b.err != nil {
		return b
	}
	scores, err := b.scoreFn(ctx, b.windows)
	var inferErr *contract.InferenceError
	switch {
	case errors.As(err, &inferErr):
		contract.LogWarn("Skipping windows the model could not score", err)
		b.failures = inferErr
	case err != nil:
		b.err = err
		return b
	}
	b.scores = scores
	return b
}

// Threshold picks the decision threshold, either fixed or estimated from the scored windows.
func (b *EvaluationBuilder) Threshold() *EvaluationBuilder {
	if b.err != nil {
		return b
	}
	if b.cfg.FixedThreshold > 0 {
		b.threshold = b.cfg.FixedThreshold
		b.source = schema.FixedThreshold
		return b
	}
	// Failed windows are NaN and filtered by the estimator.
	t, err := EstimateThreshold(b.scores, b.cfg.Percentile)
	if err != nil {
		b.err = err
		return b
	}
	b.threshold = t
	b.source = schema.PercentileThreshold
	return b
}

// Classify turns every scored window into a verdict aligned with the reading it ends at.
func (b *EvaluationBuilder) Classify() *EvaluationBuilder {
	if b.err != nil {
		return b
	}
	size := b.cfg.WindowSize
	result := &schema.EvaluationResult{
		WindowSize:      size,
		Readings:        len(b.readings),
		Threshold:       b.threshold,
		ThresholdSource: b.source,
		Percentile:      b.cfg.Percentile,
		Verdicts:        make([]schema.Verdict, 0, len(b.scores)),
	}
	for i, score := range b.scores {
		if b.failures != nil && b.failures.Failed(i) {
			result.Skipped++
			continue
		}
		end := window.EndIndex(i, size)
		v := schema.Verdict{
			Index:               end,
			WindowEnd:           b.readings[end].Timestamp,
			ReconstructionError: score,
			Threshold:           b.threshold,
			IsAnomaly:           algo.IsAnomaly(score, b.threshold),
			TrueLabel:           b.readings[end].Label,
		}
		result.Verdicts = append(result.Verdicts, v)
		result.Confusion.Add(v)
	}
	b.result = result
	return b
}

// Build returns the finished evaluation or the first error encountered.
func (b *EvaluationBuilder) Build() (*schema.EvaluationResult, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.result, nil
}

// Evaluate runs the full batch evaluation over readings with the given scorer.
func Evaluate(ctx context.Context, cfg *contract.Config, params schema.ScalerParams, scorer *Scorer, readings []schema.SensorReading) (*schema.EvaluationResult, error) {
	return NewEvaluationBuilder(cfg, params, scorer, readings).
		Scale().
		Sequence().
		Score(ctx).
		Threshold().
		Classify().
		Build()
}
