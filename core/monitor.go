package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/core/algo"
	"github.com/SohamS7S/Smart-factory-ai/core/window"
	"github.com/SohamS7S/Smart-factory-ai/internal/alert"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/metrics"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Poll results used as metric labels.
const (
	pollUnchanged      = "unchanged"
	pollFeedError      = "feed_error"
	pollAwaiting       = "awaiting_history"
	pollCalibrating    = "calibrating"
	pollScored         = "scored"
	pollInferenceError = "inference_error"
)

// MonitorDeps bundles everything the live monitor talks to. History, Journal,
// Changes and Out are optional.
type MonitorDeps struct {
	Config  *contract.Config
	Feed    contract.FeedSource
	Scaler  schema.ScalerParams
	Scorer  *Scorer
	Alerter contract.Alerter
	History contract.HistoryStore
	Journal contract.PollJournal
	Changes <-chan struct{}
	Out     io.Writer
	Now     func() time.Time
}

// Monitor watches an append-only feed and classifies the newest window on every
// poll that brings new rows. It moves from AWAITING_HISTORY to CALIBRATING once a
// full window exists, and to MONITORING once a threshold is known.
type Monitor struct {
	deps MonitorDeps
	cfg  *contract.Config

	mu           sync.Mutex
	ring         *window.Ring
	rows         int
	malformed    int
	state        schema.MonitorState
	threshold    float64
	thresholdSet bool
	lastAlert    time.Time
	runID        int64
	windows      int
	anomalies    int
}

// NewMonitor creates a monitor in the AWAITING_HISTORY state.
func NewMonitor(deps MonitorDeps) *Monitor {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Monitor{
		deps:  deps,
		cfg:   deps.Config,
		ring:  window.NewRing(deps.Config.WindowSize),
		state: schema.AwaitingHistory,
	}
}

// State returns the current phase.
func (m *Monitor) State() schema.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Threshold returns the threshold in effect and whether one has been set.
func (m *Monitor) Threshold() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold, m.thresholdSet
}

// Poll reads the feed once and advances the monitor. Feed and inference failures
// are logged; the monitor keeps its state and tries again on the next poll.
func (m *Monitor) Poll(ctx context.Context) schema.PollResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.deps.Feed.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return m.result(false)
		}
		metrics.MonitorPolls.WithLabelValues(pollFeedError).Inc()
		contract.LogWarn(fmt.Sprintf("Failed to read feed %s", m.deps.Feed.Path()), err)
		return m.result(false)
	}

	readings := snap.Readings
	switch {
	case len(readings) == m.rows:
		metrics.MonitorPolls.WithLabelValues(pollUnchanged).Inc()
		return m.result(false)
	case len(readings) < m.rows:
		contract.Logger().Info("feed restarted, discarding buffered readings",
			zap.Int("previous_rows", m.rows), zap.Int("rows", len(readings)))
		m.ring.Reset()
		m.rows = 0
	}
	if snap.TrailingIgnored {
		contract.Logger().Debug("ignoring incomplete trailing feed row")
	}
	if snap.Malformed > m.malformed {
		contract.Logger().Warn("skipping malformed feed rows",
			zap.Int("malformed", snap.Malformed), zap.String("first", snap.FirstMalformed))
	}
	m.malformed = snap.Malformed

	for _, r := range readings[m.rows:] {
		m.ring.Push(Transform(m.deps.Scaler, r.Values))
	}
	m.rows = len(readings)

	res := m.advance(ctx, readings)
	m.report(res)
	return res
}

// advance runs the state machine after new rows were buffered.
func (m *Monitor) advance(ctx context.Context, readings []schema.SensorReading) schema.PollResult {
	if !m.ring.Full() {
		m.setState(schema.AwaitingHistory)
		metrics.MonitorPolls.WithLabelValues(pollAwaiting).Inc()
		return m.result(true)
	}

	if !m.thresholdSet {
		m.setState(schema.Calibrating)
		if !m.calibrate(ctx, readings) {
			metrics.MonitorPolls.WithLabelValues(pollCalibrating).Inc()
			return m.result(true)
		}
	}
	m.setState(schema.Monitoring)

	w, _ := m.ring.Window()
	score, err := m.deps.Scorer.Score(ctx, w)
	if err != nil {
		metrics.MonitorPolls.WithLabelValues(pollInferenceError).Inc()
		contract.LogWarn("Failed to score newest window", err)
		return m.result(true)
	}
	metrics.MonitorPolls.WithLabelValues(pollScored).Inc()
	metrics.ReconstructionError.Set(score)

	latest := readings[len(readings)-1]
	v := schema.Verdict{
		Index:               len(readings) - 1,
		WindowEnd:           latest.Timestamp,
		ReconstructionError: score,
		Threshold:           m.threshold,
		IsAnomaly:           algo.IsAnomaly(score, m.threshold),
		TrueLabel:           latest.Label,
	}
	m.windows++

	res := m.result(true)
	res.Verdict = &v
	if v.IsAnomaly {
		m.anomalies++
		metrics.AnomaliesTotal.Inc()
		res.Alerted = m.maybeAlert(ctx, v)
	}
	return res
}

// calibrate sets the threshold from configuration or from the feed's history.
// It reports false when no threshold could be established yet.
func (m *Monitor) calibrate(ctx context.Context, readings []schema.SensorReading) bool {
	if m.cfg.FixedThreshold > 0 {
		m.setThreshold(m.cfg.FixedThreshold, schema.FixedThreshold)
		return true
	}

	series := TransformAll(m.deps.Scaler, readings)
	windows := window.MakeWindows(series, m.cfg.WindowSize)
	if len(windows) == 0 {
		return false
	}

	scores, err := m.deps.Scorer.ScoreMany(ctx, windows)
	var inferErr *contract.InferenceError
	if err != nil && !errors.As(err, &inferErr) {
		contract.LogWarn("Calibration scoring failed", err)
		return false
	}
	if inferErr != nil {
		contract.LogWarn("Some calibration windows could not be scored", err)
	}

	t, err := EstimateThreshold(scores, m.cfg.Percentile)
	if err != nil {
		contract.LogWarn("Calibration produced no threshold", err)
		return false
	}
	m.setThreshold(t, schema.PercentileThreshold)
	return true
}

func (m *Monitor) setThreshold(t float64, source schema.ThresholdSource) {
	m.threshold = t
	m.thresholdSet = true
	metrics.Threshold.Set(t)
	contract.Logger().Info("threshold calibrated",
		zap.Float64("threshold", t), zap.String("source", string(source)), zap.Int("rows", m.rows))
}

// maybeAlert raises one alert for the verdict unless the cooldown is still running.
func (m *Monitor) maybeAlert(ctx context.Context, v schema.Verdict) bool {
	now := m.deps.Now()
	if m.cfg.AlertCooldown > 0 && !m.lastAlert.IsZero() && now.Sub(m.lastAlert) < m.cfg.AlertCooldown {
		return false
	}
	m.lastAlert = now

	a := alert.New(v, now)
	if m.deps.Alerter != nil {
		m.deps.Alerter.Raise(ctx, a)
	}
	if m.deps.History != nil && m.runID > 0 {
		if err := m.deps.History.RecordAlert(m.runID, a); err != nil {
			logTrackingError("RecordAlert", err)
		}
	}
	return true
}

func (m *Monitor) setState(s schema.MonitorState) {
	if m.state != s {
		contract.Logger().Info("monitor state changed",
			zap.String("from", string(m.state)), zap.String("to", string(s)))
	}
	m.state = s
	metrics.ObserveState(s)
}

func (m *Monitor) result(effective bool) schema.PollResult {
	return schema.PollResult{
		State:        m.state,
		Rows:         m.rows,
		Effective:    effective,
		ThresholdSet: m.thresholdSet,
		Threshold:    m.threshold,
	}
}

// report prints the status line and records the poll in the journal and history.
func (m *Monitor) report(res schema.PollResult) {
	now := m.deps.Now()
	_, _ = fmt.Fprintln(m.deps.Out, FormatStatusLine(now, res, m.cfg.UseColors))

	if m.deps.Journal != nil {
		if err := m.deps.Journal.Record(now, res); err != nil {
			contract.LogWarn("Failed to append to poll journal", err)
		}
	}
	if m.deps.History != nil && m.runID > 0 && res.Verdict != nil {
		if err := m.deps.History.RecordVerdicts(m.runID, []schema.Verdict{*res.Verdict}); err != nil {
			logTrackingError("RecordVerdicts", err)
		}
	}
}

// FormatStatusLine renders one monitor poll for the terminal.
func FormatStatusLine(at time.Time, res schema.PollResult, useColors bool) string {
	state := contract.GetStateLabel(res.State, useColors)
	stamp := at.Format("15:04:05")
	if res.Verdict == nil {
		return fmt.Sprintf("[%s] %-16s rows=%d", stamp, state, res.Rows)
	}
	label := contract.GetPlainLabel(res.Verdict.IsAnomaly)
	if useColors {
		label = contract.GetColorLabel(res.Verdict.IsAnomaly)
	}
	return fmt.Sprintf("[%s] %-16s rows=%d error=%.6f threshold=%.6f %s",
		stamp, state, res.Rows, res.Verdict.ReconstructionError, res.Verdict.Threshold, label)
}

// Run polls until ctx is cancelled, waking on every tick and on every feed change
// notification. It returns nil on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	if !shouldSuppressHeader(ctx) {
		_, _ = fmt.Fprintln(m.deps.Out, "Monitoring live sensor feed...")
	}
	m.beginRun()
	defer m.finish()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	m.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Poll(ctx)
		case <-m.deps.Changes:
			m.Poll(ctx)
		}
	}
}

func (m *Monitor) beginRun() {
	if m.deps.History == nil {
		return
	}
	params := map[string]any{
		"window_size":   m.cfg.WindowSize,
		"percentile":    m.cfg.Percentile,
		"threshold":     m.cfg.FixedThreshold,
		"poll_interval": m.cfg.PollInterval.String(),
		"model":         m.deps.Scorer.Fingerprint(),
	}
	id, err := m.deps.History.BeginRun(schema.MonitorRun, m.deps.Feed.Path(), m.deps.Now(), params)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return
	}
	m.runID = id
}

// finish waits for in-flight alerts and closes the journal and history run.
func (m *Monitor) finish() {
	if c, ok := m.deps.Alerter.(io.Closer); ok {
		if err := c.Close(); err != nil {
			contract.LogWarn("Failed to close alert sinks", err)
		}
	}
	if m.deps.Journal != nil {
		if err := m.deps.Journal.Close(); err != nil {
			contract.LogWarn("Failed to close poll journal", err)
		}
	}
	if m.deps.History != nil && m.runID > 0 {
		m.mu.Lock()
		summary := schema.RunSummary{
			EndTime:   m.deps.Now(),
			Threshold: m.threshold,
			Windows:   m.windows,
			Anomalies: m.anomalies,
		}
		m.mu.Unlock()
		if err := m.deps.History.EndRun(m.runID, summary); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}
}

// logTrackingError logs history tracking errors without disrupting detection.
func logTrackingError(operation string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s", operation), err)
}
