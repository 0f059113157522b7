package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SohamS7S/Smart-factory-ai/internal/artifact"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/feed"
	"github.com/SohamS7S/Smart-factory-ai/internal/iocache"
	"github.com/SohamS7S/Smart-factory-ai/internal/model"
	"github.com/SohamS7S/Smart-factory-ai/internal/outwriter"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// writeFeed writes readings to a CSV feed in dir and returns its path.
func writeFeed(t *testing.T, dir string, readings []schema.SensorReading) string {
	t.Helper()
	path := filepath.Join(dir, "feed.csv")
	w, err := feed.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.AppendAll(readings))
	require.NoError(t, w.Close())
	return path
}

// writeZeroModel writes a dense network whose output is always zero.
func writeZeroModel(t *testing.T, dir string, windowSize int) string {
	t.Helper()
	n := windowSize * schema.NumFeatures
	weights := make([][]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	spec := model.DenseSpec{
		WindowSize: windowSize,
		Features:   schema.NumFeatures,
		Layers:     []model.Layer{{Weights: weights, Bias: make([]float64, n), Activation: model.ActivationLinear}},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectFeed(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(3)
	cfg.FixedThreshold = 0.5
	cfg.FeedPath = writeFeed(t, dir, spikeReadings())
	arts := &Artifacts{Scaler: unitScaler, Scorer: NewScorer(&zeroModel{}, 4, 2)}

	t.Run("without stores", func(t *testing.T) {
		result, err := DetectFeed(context.Background(), cfg, nil, arts)
		require.NoError(t, err)
		require.Len(t, result.Verdicts, 7)
		assert.Equal(t, 3, result.Anomalies())
		assert.Equal(t, 1, result.Confusion.TruePositives)
	})

	t.Run("records the run", func(t *testing.T) {
		history := &iocache.MockHistoryStore{}
		history.On("BeginRun", schema.DetectRun, cfg.FeedPath, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(3), nil)
		history.On("RecordVerdicts", int64(3), mock.MatchedBy(func(v []schema.Verdict) bool { return len(v) == 7 })).Return(nil)
		history.On("EndRun", int64(3), mock.MatchedBy(func(s schema.RunSummary) bool {
			return s.Windows == 7 && s.Anomalies == 3 && s.Threshold == 0.5
		})).Return(nil)

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(history)
		mgr.On("GetScoreStore").Return(nil)

		_, err := DetectFeed(context.Background(), cfg, mgr, arts)
		require.NoError(t, err)
		history.AssertExpectations(t)
	})

	t.Run("failed evaluation still closes the run", func(t *testing.T) {
		short := cfg.Clone()
		short.FeedPath = writeFeed(t, t.TempDir(), readingsOf(0.1, 0.1))

		history := &iocache.MockHistoryStore{}
		history.On("BeginRun", schema.DetectRun, short.FeedPath, mock.Anything, mock.Anything).Return(int64(4), nil)
		history.On("EndRun", int64(4), mock.MatchedBy(func(s schema.RunSummary) bool { return s.Windows == 0 })).Return(nil)

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(history)
		mgr.On("GetScoreStore").Return(nil)

		_, err := DetectFeed(context.Background(), short, mgr, arts)
		assert.ErrorIs(t, err, contract.ErrInsufficientData)
		history.AssertExpectations(t)
		history.AssertNotCalled(t, "RecordVerdicts", mock.Anything, mock.Anything)
	})

	t.Run("history failure does not stop detection", func(t *testing.T) {
		history := &iocache.MockHistoryStore{}
		history.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(history)
		mgr.On("GetScoreStore").Return(nil)

		result, err := DetectFeed(context.Background(), cfg, mgr, arts)
		require.NoError(t, err)
		assert.Len(t, result.Verdicts, 7)
		history.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything)
	})

	t.Run("missing feed", func(t *testing.T) {
		missing := cfg.Clone()
		missing.FeedPath = filepath.Join(dir, "absent.csv")
		_, err := DetectFeed(context.Background(), missing, nil, arts)
		assert.Error(t, err)
	})
}

// jitterModel delays each batch by a varying amount so later batches often finish first.
type jitterModel struct {
	zeroModel
}

func (m *jitterModel) Reconstruct(ctx context.Context, batch []schema.Window) ([]schema.Window, error) {
	m.mu.Lock()
	delay := time.Duration(3-m.calls%4) * time.Millisecond
	m.mu.Unlock()
	time.Sleep(delay)
	return m.zeroModel.Reconstruct(ctx, batch)
}

func TestDetectFeedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	values := make([]float64, 60)
	for i := range values {
		values[i] = 0.1 + 0.01*float64(i%7)
	}
	values[23], values[47] = 2, 3

	cfg := testConfig(5)
	cfg.Percentile = 90
	cfg.FeedPath = writeFeed(t, dir, readingsOf(values...))

	run := func(n int, output schema.OutputMode) []byte {
		arts := &Artifacts{Scaler: unitScaler, Scorer: NewScorer(&jitterModel{}, 3, 4)}
		result, err := DetectFeed(WithSuppressHeader(context.Background()), cfg, nil, arts)
		require.NoError(t, err)

		outCfg := cfg.Clone()
		outCfg.Output = output
		outCfg.OutputFile = filepath.Join(dir, fmt.Sprintf("run%d.%s", n, output))
		require.NoError(t, outwriter.WriteEvaluationResults(result, outCfg, 0))
		data, err := os.ReadFile(outCfg.OutputFile)
		require.NoError(t, err)
		return data
	}

	for _, output := range []schema.OutputMode{schema.CSVOut, schema.JSONOut} {
		t.Run(string(output), func(t *testing.T) {
			first, second := run(1, output), run(2, output)
			require.NotEmpty(t, first)
			assert.Equal(t, first, second, "identical feed must give byte-identical output")
		})
	}
}

func TestDetectFeedUsesScoreCache(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(3)
	cfg.FixedThreshold = 0.5
	cfg.FeedPath = writeFeed(t, dir, spikeReadings())

	store, err := iocache.NewCacheStore("factory_score_cache", schema.SQLiteBackend, filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	mgr := iocache.NewStoreManager(store, nil)

	m := &zeroModel{}
	arts := &Artifacts{Scaler: unitScaler, Scorer: NewScorer(m, 4, 1)}

	cold, err := DetectFeed(context.Background(), cfg, mgr, arts)
	require.NoError(t, err)
	calls := m.callCount()
	assert.Positive(t, calls)

	warm, err := DetectFeed(context.Background(), cfg, mgr, arts)
	require.NoError(t, err)
	assert.Equal(t, calls, m.callCount(), "second run is served from the cache")
	assert.Equal(t, cold.Verdicts, warm.Verdicts)
}

func TestExecuteDetect(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(3)
	cfg.FixedThreshold = 0.5
	cfg.FeedPath = writeFeed(t, dir, spikeReadings())
	cfg.ModelPath = writeZeroModel(t, dir, 3)
	cfg.ScalerPath = filepath.Join(dir, "scaler.json")
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(dir, "out.json")
	require.NoError(t, artifact.SaveScaler(cfg.ScalerPath, unitScaler))

	require.NoError(t, ExecuteDetect(WithSuppressHeader(context.Background()), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	t.Run("window size mismatch", func(t *testing.T) {
		bad := cfg.Clone()
		bad.WindowSize = 4
		err := ExecuteDetect(context.Background(), bad, nil)
		assert.ErrorIs(t, err, contract.ErrConfig)
	})

	t.Run("missing scaler", func(t *testing.T) {
		bad := cfg.Clone()
		bad.ScalerPath = filepath.Join(dir, "absent.npy")
		err := ExecuteDetect(context.Background(), bad, nil)
		assert.ErrorIs(t, err, contract.ErrConfig)
	})
}

func TestExecuteGenerateAndScalerFit(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(3)
	cfg.SourcePath = filepath.Join(dir, "sensor_data.csv")
	cfg.ScalerPath = filepath.Join(dir, "models", "scaler.npy")
	cfg.NormalRows = 50
	cfg.AnomalyRows = 5
	cfg.Seed = 7

	require.NoError(t, ExecuteGenerate(context.Background(), cfg, nil))
	snap, err := feed.ReadFile(cfg.SourcePath)
	require.NoError(t, err)
	assert.Len(t, snap.Readings, 55)

	require.NoError(t, ExecuteScalerFit(context.Background(), cfg, nil))
	params, err := artifact.LoadScaler(cfg.ScalerPath)
	require.NoError(t, err)

	want, err := FitScalerFromReadings(snap.Readings)
	require.NoError(t, err)
	assert.Equal(t, want, params)
}

func TestExecuteSimulateStreamsFeed(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(3)
	cfg.SourcePath = writeFeed(t, dir, readingsOf(0.1, 0.2, 0.3, 0.4))
	cfg.FeedPath = filepath.Join(dir, "live.csv")
	cfg.StreamInterval = 1

	require.NoError(t, ExecuteSimulate(context.Background(), cfg, nil))
	snap, err := feed.ReadFile(cfg.FeedPath)
	require.NoError(t, err)
	assert.Len(t, snap.Readings, 4)
}
