package core

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/core/algo"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/metrics"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Scorer turns windows into reconstruction errors using an autoencoder.
type Scorer struct {
	model     contract.Autoencoder
	batchSize int
	workers   int
}

// NewScorer creates a scorer that sends at most batchSize windows per model call
// and keeps up to workers calls in flight.
func NewScorer(model contract.Autoencoder, batchSize, workers int) *Scorer {
	return &Scorer{
		model:     model,
		batchSize: max(1, batchSize),
		workers:   max(1, workers),
	}
}

// Fingerprint identifies the underlying model.
func (s *Scorer) Fingerprint() string { return s.model.Fingerprint() }

// Score returns the reconstruction error of a single window.
func (s *Scorer) Score(ctx context.Context, w schema.Window) (float64, error) {
	scores, err := s.ScoreMany(ctx, []schema.Window{w})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ScoreMany scores every window, returning errors in input order. The result does not
// depend on the batch size or worker count. Windows the model could not score are NaN
// in the result and listed in the returned *contract.InferenceError.
func (s *Scorer) ScoreMany(ctx context.Context, windows []schema.Window) ([]float64, error) {
	scores := make([]float64, len(windows))
	if len(windows) == 0 {
		return scores, nil
	}

	numBatches := (len(windows) + s.batchSize - 1) / s.batchSize
	batchCh := make(chan int, numBatches)
	for b := range numBatches {
		batchCh <- b
	}
	close(batchCh)

	var (
		mu       sync.Mutex
		failed   []int
		firstErr error
		wg       sync.WaitGroup
	)
	fail := func(idx []int, err error) {
		mu.Lock()
		defer mu.Unlock()
		for _, i := range idx {
			scores[i] = math.NaN()
		}
		failed = append(failed, idx...)
		if firstErr == nil {
			firstErr = err
		}
	}

	for range min(s.workers, numBatches) {
		wg.Go(func() {
			for b := range batchCh {
				if ctx.Err() != nil {
					return
				}
				lo := b * s.batchSize
				hi := min(lo+s.batchSize, len(windows))
				s.scoreBatch(ctx, windows, lo, hi, scores, fail)
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		slices.Sort(failed)
		return scores, &contract.InferenceError{Indices: failed, Err: firstErr}
	}
	return scores, nil
}

// scoreBatch scores windows[lo:hi] into scores. Each goroutine owns a disjoint index range.
func (s *Scorer) scoreBatch(ctx context.Context, windows []schema.Window, lo, hi int, scores []float64, fail func([]int, error)) {
	batch := windows[lo:hi]
	start := time.Now()
	recon, err := s.model.Reconstruct(ctx, batch)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	if err == nil && len(recon) != len(batch) {
		err = fmt.Errorf("model returned %d windows for a batch of %d", len(recon), len(batch))
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		idx := make([]int, 0, len(batch))
		for i := lo; i < hi; i++ {
			idx = append(idx, i)
		}
		fail(idx, err)
		return
	}

	for k, w := range batch {
		mse, err := algo.MeanSquaredError(w, recon[k])
		if err != nil {
			fail([]int{lo + k}, fmt.Errorf("window %d: %w", lo+k, err))
			continue
		}
		scores[lo+k] = mse
	}
}
