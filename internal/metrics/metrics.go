// Package metrics exposes Prometheus collectors for detection, monitoring, alerting and serving.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// Monitor metrics
	MonitorPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_monitor_polls_total",
			Help: "Total number of feed polls by result",
		},
		[]string{"result"}, // unchanged, awaiting_history, calibrating, scored, feed_error, inference_error
	)

	MonitorState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_monitor_state",
			Help: "Monitor phase: 0 awaiting history, 1 calibrating, 2 monitoring",
		},
	)

	ReconstructionError = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_reconstruction_error",
			Help: "Reconstruction error of the newest scored window",
		},
	)

	Threshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_threshold",
			Help: "Anomaly threshold in effect",
		},
	)

	AnomaliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factory_anomalies_total",
			Help: "Total number of anomalous windows seen by the monitor",
		},
	)

	// Alert metrics
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_alerts_total",
			Help: "Total number of alert deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Inference metrics
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factory_inference_seconds",
			Help:    "Model inference latency per batch in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
	)

	// Serving metrics
	PredictRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_predict_requests_total",
			Help: "Total number of single-reading predictions by outcome",
		},
		[]string{"outcome"}, // normal, anomaly, bad_request, error
	)
)

// ObserveState records the monitor phase.
func ObserveState(state schema.MonitorState) {
	MonitorState.Set(schema.StateGaugeValue(state))
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		contract.Logger().Info("metrics listener started", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
