// Package httpapi serves single-reading anomaly predictions, health and metrics over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/metrics"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Outcome labels for factory_predict_requests_total.
const (
	outcomeNormal     = "normal"
	outcomeAnomaly    = "anomaly"
	outcomeBadRequest = "bad_request"
	outcomeError      = "error"
)

// maxBodyBytes bounds the size of a prediction request.
const maxBodyBytes = 1 << 16

const shutdownTimeout = 5 * time.Second

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Server answers prediction requests with a fixed threshold.
type Server struct {
	cfg       *contract.Config
	arts      *core.Artifacts
	accessLog io.Writer
}

// NewServer creates a server scoring with arts. Access logs go to accessLog
// in Apache combined format; nil disables them.
func NewServer(cfg *contract.Config, arts *core.Artifacts, accessLog io.Writer) *Server {
	return &Server{cfg: cfg, arts: arts, accessLog: accessLog}
}

// Router returns the routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/predict-sensor", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/predict-sensor/", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

// Handler returns the router wrapped with recovery, CORS and access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		contract.Logger().Info("prediction server started",
			zap.String("addr", addr),
			zap.Float64("threshold", s.cfg.ServeThreshold),
			zap.Int("window_size", s.cfg.WindowSize))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown prediction server: %w", err)
		}
		contract.Logger().Info("prediction server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req schema.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, outcomeBadRequest, "invalid JSON body: "+err.Error(), "")
		return
	}
	raw, missing := req.Values()
	if missing != "" {
		fail(w, http.StatusBadRequest, outcomeBadRequest, fmt.Sprintf("missing field %q", missing), "")
		return
	}

	res, err := core.PredictReading(r.Context(), s.arts, s.cfg.WindowSize, s.cfg.ServeThreshold, raw)
	if err != nil {
		status, outcome, kind := classifyPredictError(err)
		if status >= http.StatusInternalServerError {
			contract.LogWarn("Sensor prediction failed", err)
		}
		fail(w, status, outcome, err.Error(), kind)
		return
	}

	outcome := outcomeNormal
	if res.IsAnomaly {
		outcome = outcomeAnomaly
	}
	metrics.PredictRequests.WithLabelValues(outcome).Inc()
	contract.Logger().Debug("sensor prediction",
		zap.Bool("anomaly", res.IsAnomaly), zap.Float64("reconstruction_error", res.ReconstructionError))
	writeJSON(w, http.StatusOK, res)
}

// classifyPredictError maps a prediction failure to its HTTP status, metric outcome and error kind.
func classifyPredictError(err error) (int, string, string) {
	if errors.Is(err, core.ErrInvalidReading) {
		return http.StatusBadRequest, outcomeBadRequest, ""
	}
	return http.StatusInternalServerError, outcomeError, "ModelInferenceError"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"model":       s.arts.Scorer.Fingerprint(),
		"window_size": s.cfg.WindowSize,
		"threshold":   s.cfg.ServeThreshold,
	})
}

func fail(w http.ResponseWriter, status int, outcome, msg, kind string) {
	metrics.PredictRequests.WithLabelValues(outcome).Inc()
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
