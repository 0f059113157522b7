package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identitySpec returns a single linear layer that reproduces its input.
func identitySpec(windowSize int) DenseSpec {
	n := windowSize * schema.NumFeatures
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, n)
		w[i][i] = 1
	}
	return DenseSpec{
		WindowSize: windowSize,
		Features:   schema.NumFeatures,
		Layers:     []Layer{{Weights: w, Bias: make([]float64, n), Activation: ActivationLinear}},
	}
}

func TestDenseIdentity(t *testing.T) {
	d, err := NewDense(identitySpec(2))
	require.NoError(t, err)

	in := []schema.Window{{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}}
	out, err := d.Reconstruct(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NotEmpty(t, d.Fingerprint())
	assert.Equal(t, 2, d.WindowSize())
}

func TestDenseActivations(t *testing.T) {
	assert.Equal(t, 0.0, activate(ActivationReLU, -2))
	assert.Equal(t, 2.0, activate(ActivationReLU, 2))
	assert.InDelta(t, 0.5, activate(ActivationSigmoid, 0), 1e-12)
	assert.InDelta(t, 0.0, activate(ActivationTanh, 0), 1e-12)
	assert.Equal(t, -3.0, activate(ActivationLinear, -3))
}

func TestDenseRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DenseSpec)
	}{
		{"wrong features", func(s *DenseSpec) { s.Features = 4 }},
		{"no layers", func(s *DenseSpec) { s.Layers = nil }},
		{"bias mismatch", func(s *DenseSpec) { s.Layers[0].Bias = s.Layers[0].Bias[:1] }},
		{"row width", func(s *DenseSpec) { s.Layers[0].Weights[0] = []float64{1} }},
		{"unknown activation", func(s *DenseSpec) { s.Layers[0].Activation = "softmax" }},
		{"output width", func(s *DenseSpec) {
			s.Layers[0].Weights = s.Layers[0].Weights[:3]
			s.Layers[0].Bias = s.Layers[0].Bias[:3]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := identitySpec(2)
			tt.mutate(&spec)
			_, err := NewDense(spec)
			assert.ErrorIs(t, err, contract.ErrConfig)
		})
	}
}

func TestDenseWrongWindowLength(t *testing.T) {
	d, err := NewDense(identitySpec(2))
	require.NoError(t, err)
	_, err = d.Reconstruct(context.Background(), []schema.Window{{{1, 1, 1}}})
	assert.ErrorIs(t, err, contract.ErrModelInference)
}

func TestLoadDenseFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ae.json")
	data, err := json.Marshal(identitySpec(3))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := Load(context.Background(), path, Options{WindowSize: 3})
	require.NoError(t, err)
	assert.Contains(t, m.Fingerprint(), "dense:")

	_, err = Load(context.Background(), path, Options{WindowSize: 30})
	assert.ErrorIs(t, err, contract.ErrConfig)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.json"), Options{})
	assert.ErrorIs(t, err, contract.ErrConfig)
}

func TestServingClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/models/ae":
			_, _ = w.Write([]byte(`{"model_version_status":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/models/ae:predict":
			var req predictRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(predictResponse{Predictions: req.Instances})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m, err := Load(context.Background(), srv.URL, Options{Name: "ae"})
	require.NoError(t, err)
	assert.Equal(t, "serving:"+srv.URL+"/v1/models/ae:predict", m.Fingerprint())

	in := []schema.Window{{{0.1, 0.2, 0.3}}, {{0.4, 0.5, 0.6}}}
	out, err := m.Reconstruct(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Load(context.Background(), srv.URL, Options{Name: "other"})
	assert.ErrorIs(t, err, contract.ErrConfig)
}

func TestServingClientBadPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			return
		}
		_, _ = w.Write([]byte(`{"predictions": [[[1, 2]]]}`))
	}))
	defer srv.Close()

	m, err := NewServingClient(context.Background(), srv.URL, Options{Name: "ae"})
	require.NoError(t, err)
	_, err = m.Reconstruct(context.Background(), []schema.Window{{{1, 1, 1}}})
	assert.ErrorIs(t, err, contract.ErrModelInference)
}
