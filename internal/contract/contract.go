// Package contract provides interfaces and shared utilities for the factory engine's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Autoencoder is a trained sequence model that reconstructs windows of scaled readings.
// Implementations must return one output window per input window, each with the input's shape.
type Autoencoder interface {
	// Reconstruct runs a forward pass over a batch of windows.
	Reconstruct(ctx context.Context, batch []schema.Window) ([]schema.Window, error)

	// Fingerprint identifies the loaded artifact so cached scores can be invalidated when it changes.
	Fingerprint() string
}

// FeedSource yields the current contents of an append-only sensor feed.
type FeedSource interface {
	// Snapshot reads every complete reading currently in the feed.
	Snapshot(ctx context.Context) (schema.FeedSnapshot, error)

	// Path returns the location of the feed, for logging and run records.
	Path() string
}

// Alerter accepts anomaly alerts. Raise never fails and never blocks on delivery.
type Alerter interface {
	Raise(ctx context.Context, alert schema.Alert)
}

// AlertSink delivers alerts over one channel.
type AlertSink interface {
	Name() schema.AlertChannel
	Send(ctx context.Context, alert schema.Alert) error
	Close() error
}

// CacheManager defines the interface for managing the score cache and history stores.
// This allows the storage layer to be mocked for testing.
type CacheManager interface {
	GetScoreStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for key/value cache storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore records detection runs, their verdicts and the alerts they raised.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(kind schema.RunKind, feedPath string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data.
	EndRun(runID int64, summary schema.RunSummary) error

	// RecordVerdicts stores verdicts for a run in a single transaction.
	RecordVerdicts(runID int64, verdicts []schema.Verdict) error

	// RecordAlert stores an alert raised during a run.
	RecordAlert(runID int64, alert schema.Alert) error

	// GetStatus returns status information about the history store.
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every run ordered by ID.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllVerdicts returns every verdict ordered by run and window index.
	GetAllVerdicts() ([]schema.VerdictRecord, error)

	// GetAllAlerts returns every alert ordered by raise time.
	GetAllAlerts() ([]schema.AlertRecord, error)

	// Close closes the underlying connection.
	Close() error
}

// PollJournal keeps a durable line-per-poll record of the live monitor.
type PollJournal interface {
	Record(polledAt time.Time, result schema.PollResult) error
	Close() error
}
