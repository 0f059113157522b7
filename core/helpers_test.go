package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// unitScaler leaves readings unchanged.
var unitScaler = schema.ScalerParams{FeatureMax: schema.Vector{1, 1, 1}}

// zeroModel reconstructs every window as all zeros, so the score of a window is
// the mean of its squared inputs. fail, when set, decides which batches error out.
type zeroModel struct {
	mu      sync.Mutex
	calls   int
	batches []int
	fail    func(batch []schema.Window) error
	shorten bool
}

var _ contract.Autoencoder = &zeroModel{}

func (m *zeroModel) Reconstruct(_ context.Context, batch []schema.Window) ([]schema.Window, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, len(batch))
	m.mu.Unlock()

	if m.fail != nil {
		if err := m.fail(batch); err != nil {
			return nil, err
		}
	}
	n := len(batch)
	if m.shorten {
		n--
	}
	out := make([]schema.Window, n)
	for i := range out {
		out[i] = make(schema.Window, len(batch[i]))
	}
	return out, nil
}

func (m *zeroModel) Fingerprint() string { return "zero" }

func (m *zeroModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var errMarker = errors.New("model unavailable")

// failOnValue fails any batch holding a window whose first reading equals v.
func failOnValue(v float64) func([]schema.Window) error {
	return func(batch []schema.Window) error {
		for _, w := range batch {
			if w[0][0] == v {
				return errMarker
			}
		}
		return nil
	}
}

// constWindow returns a window of size readings all equal to v.
func constWindow(size int, v float64) schema.Window {
	w := make(schema.Window, size)
	for i := range w {
		w[i] = schema.Vector{v, v, v}
	}
	return w
}

// readingsOf builds one reading per value, a second apart, with all features equal.
// Values above 1 are labelled anomalous, the rest normal.
func readingsOf(values ...float64) []schema.SensorReading {
	out := make([]schema.SensorReading, len(values))
	for i, v := range values {
		label := schema.NormalLabel
		if v > 1 {
			label = schema.AnomalyLabel
		}
		out[i] = schema.SensorReading{
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
			Values:    schema.Vector{v, v, v},
			Label:     label,
		}
	}
	return out
}

// repeat returns n copies of v.
func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testConfig(windowSize int) *contract.Config {
	return &contract.Config{
		WindowSize:   windowSize,
		Percentile:   contract.DefaultPercentile,
		BatchSize:    4,
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
		ResultLimit:  contract.DefaultResultLimit,
		Precision:    contract.DefaultPrecision,
		Output:       schema.TextOut,
	}
}

// fakeFeed serves a scripted sequence of snapshots, repeating the last one.
type fakeFeed struct {
	mu    sync.Mutex
	steps []fakeStep
	pos   int
}

type fakeStep struct {
	readings []schema.SensorReading
	err      error
}

var _ contract.FeedSource = &fakeFeed{}

func (f *fakeFeed) Snapshot(context.Context) (schema.FeedSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step := f.steps[min(f.pos, len(f.steps)-1)]
	f.pos++
	if step.err != nil {
		return schema.FeedSnapshot{}, step.err
	}
	return schema.FeedSnapshot{Readings: step.readings}, nil
}

func (f *fakeFeed) Path() string { return "live.csv" }

// growingFeed returns steps that reveal readings n at a time.
func growingFeed(readings []schema.SensorReading, counts ...int) *fakeFeed {
	f := &fakeFeed{}
	for _, n := range counts {
		f.steps = append(f.steps, fakeStep{readings: readings[:n]})
	}
	return f
}
