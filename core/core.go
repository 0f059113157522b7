// Package core has core logic for scaling, scoring, evaluation and live monitoring.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/alert"
	"github.com/SohamS7S/Smart-factory-ai/internal/artifact"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/feed"
	"github.com/SohamS7S/Smart-factory-ai/internal/metrics"
	"github.com/SohamS7S/Smart-factory-ai/internal/model"
	"github.com/SohamS7S/Smart-factory-ai/internal/outwriter"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// Artifacts are the trained scaler and the scorer wrapping the loaded model.
type Artifacts struct {
	Scaler schema.ScalerParams
	Scorer *Scorer
}

// LoadArtifacts reads the scaler and opens the model named in cfg.
func LoadArtifacts(ctx context.Context, cfg *contract.Config) (*Artifacts, error) {
	params, err := artifact.LoadScaler(cfg.ScalerPath)
	if err != nil {
		return nil, err
	}
	m, err := model.Load(ctx, cfg.ModelPath, model.Options{
		WindowSize: cfg.WindowSize,
		Name:       cfg.ModelName,
		Timeout:    cfg.ModelTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Artifacts{Scaler: params, Scorer: NewScorer(m, cfg.BatchSize, cfg.Workers)}, nil
}

// ExecuteDetect evaluates the recorded feed and writes the verdicts.
// It serves as the main entry point for the 'detect' command.
func ExecuteDetect(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	arts, err := LoadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) && (cfg.Output == schema.TextOut || cfg.OutputFile != "") {
		logDetectHeader(cfg)
	}
	result, err := DetectFeed(ctx, cfg, mgr, arts)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteEvaluation(result, cfg, time.Since(start))
}

// DetectFeed reads cfg.FeedPath and evaluates it. Scores come from the score cache when
// possible, and the run is recorded in the history store when one is configured.
func DetectFeed(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, arts *Artifacts) (*schema.EvaluationResult, error) {
	snap, err := feed.ReadFile(cfg.FeedPath)
	if err != nil {
		return nil, err
	}
	if snap.TrailingIgnored {
		contract.Logger().Info("ignored incomplete trailing row", zap.String("feed", cfg.FeedPath))
	}
	if snap.Malformed > 0 {
		contract.Logger().Warn("skipped malformed rows", zap.String("feed", cfg.FeedPath),
			zap.Int("malformed", snap.Malformed), zap.String("first", snap.FirstMalformed))
	}

	var history contract.HistoryStore
	if mgr != nil {
		history = mgr.GetHistoryStore()
	}
	ctx = beginDetectRun(ctx, cfg, history, arts)

	result, err := NewEvaluationBuilder(cfg, arts.Scaler, arts.Scorer, snap.Readings).
		WithScoreFunc(cachedScoreFunc(cfg, arts.Scaler, arts.Scorer, snap.Readings, mgr)).
		Scale().
		Sequence().
		Score(ctx).
		Threshold().
		Classify().
		Build()

	endDetectRun(ctx, history, result)
	return result, err
}

func beginDetectRun(ctx context.Context, cfg *contract.Config, history contract.HistoryStore, arts *Artifacts) context.Context {
	if history == nil {
		return ctx
	}
	params := map[string]any{
		"window_size": cfg.WindowSize,
		"percentile":  cfg.Percentile,
		"threshold":   cfg.FixedThreshold,
		"batch_size":  cfg.BatchSize,
		"workers":     cfg.Workers,
		"model":       arts.Scorer.Fingerprint(),
	}
	id, err := history.BeginRun(schema.DetectRun, cfg.FeedPath, time.Now(), params)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx
	}
	return withRunID(ctx, id)
}

// endDetectRun records the verdicts and closes the run. A failed evaluation still
// closes the run with empty totals.
func endDetectRun(ctx context.Context, history contract.HistoryStore, result *schema.EvaluationResult) {
	id, ok := getRunID(ctx)
	if history == nil || !ok {
		return
	}
	summary := schema.RunSummary{EndTime: time.Now()}
	if result != nil {
		if err := history.RecordVerdicts(id, result.Verdicts); err != nil {
			logTrackingError("RecordVerdicts", err)
		}
		summary.Threshold = result.Threshold
		summary.Windows = len(result.Verdicts)
		summary.Anomalies = result.Anomalies()
	}
	if err := history.EndRun(id, summary); err != nil {
		logTrackingError("EndRun", err)
	}
}

// ExecuteMonitor watches the live feed until ctx is cancelled.
// It serves as the main entry point for the 'monitor' command.
func ExecuteMonitor(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	arts, err := LoadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	sinks, err := alert.BuildSinks(cfg.Alerts)
	if err != nil {
		return err
	}
	dispatcher := alert.NewDispatcher(sinks, cfg.Alerts.Timeout)

	deps := MonitorDeps{
		Config:  cfg,
		Feed:    feed.NewFile(cfg.FeedPath),
		Scaler:  arts.Scaler,
		Scorer:  arts.Scorer,
		Alerter: dispatcher,
	}
	if mgr != nil {
		deps.History = mgr.GetHistoryStore()
	}

	if cfg.JournalFile != "" {
		journal, err := outwriter.NewJournal(cfg.JournalFile)
		if err != nil {
			_ = dispatcher.Close()
			return fmt.Errorf("open poll journal: %w", err)
		}
		deps.Journal = journal
	}

	if cfg.Watch {
		watcher, err := feed.NewWatcher(cfg.FeedPath)
		if err != nil {
			contract.LogWarn("Feed watch disabled, falling back to polling", err)
		} else {
			defer func() { _ = watcher.Close() }()
			deps.Changes = watcher.Changes()
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				contract.LogWarn("Metrics listener stopped", err)
			}
		}()
	}

	return NewMonitor(deps).Run(ctx)
}

// ExecuteSimulate replays the source dataset into the live feed. With
// cfg.WithMonitor the monitor watches the feed in-process until ctx is cancelled.
func ExecuteSimulate(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if !cfg.WithMonitor {
		return streamFeed(ctx, cfg)
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	streamErr := make(chan error, 1)
	go func() {
		err := streamFeed(ctx, cfg)
		if err != nil {
			cancel()
		}
		streamErr <- err
	}()

	monitorErr := ExecuteMonitor(monitorCtx, cfg, mgr)
	if monitorErr != nil {
		cancel()
	}
	return errors.Join(<-streamErr, monitorErr)
}

func streamFeed(ctx context.Context, cfg *contract.Config) error {
	n, err := feed.Stream(ctx, cfg.SourcePath, cfg.FeedPath, cfg.StreamInterval)
	if err != nil {
		return err
	}
	fmt.Printf("Streamed %d readings from %s into %s\n", n, cfg.SourcePath, cfg.FeedPath)
	return nil
}

// ExecuteGenerate writes the synthetic labelled dataset to cfg.SourcePath.
func ExecuteGenerate(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	readings := feed.Generate(feed.GenerateOptions{
		NormalRows:  cfg.NormalRows,
		AnomalyRows: cfg.AnomalyRows,
		Seed:        cfg.Seed,
	})

	w, err := feed.Create(cfg.SourcePath)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", cfg.SourcePath, err)
	}
	if err := w.AppendAll(readings); err != nil {
		_ = w.Close()
		return fmt.Errorf("write dataset %s: %w", cfg.SourcePath, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d readings (%d normal, %d anomalous) to %s\n",
		len(readings), cfg.NormalRows, cfg.AnomalyRows, cfg.SourcePath)
	return nil
}

// ExecuteScalerFit fits the scaler on the normal rows of cfg.SourcePath and saves it to cfg.ScalerPath.
func ExecuteScalerFit(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	snap, err := feed.ReadFile(cfg.SourcePath)
	if err != nil {
		return err
	}
	params, err := FitScalerFromReadings(snap.Readings)
	if err != nil {
		return err
	}
	if err := artifact.SaveScaler(cfg.ScalerPath, params); err != nil {
		return err
	}
	fmt.Printf("Saved scaler to %s (max vibration=%g temperature=%g pressure=%g)\n",
		cfg.ScalerPath, params.FeatureMax[schema.Vibration], params.FeatureMax[schema.Temperature], params.FeatureMax[schema.Pressure])
	return nil
}

// logDetectHeader prints a concise header for a detection run.
func logDetectHeader(cfg *contract.Config) {
	threshold := fmt.Sprintf("p%g", cfg.Percentile)
	if cfg.ThresholdSource() == schema.FixedThreshold {
		threshold = fmt.Sprintf("fixed %g", cfg.FixedThreshold)
	}
	fmt.Printf("🏭 Feed: %s (window: %d, threshold: %s)\n", cfg.FeedPath, cfg.WindowSize, threshold)
	fmt.Printf("🧠 Model: %s\n", cfg.ModelPath)
}
