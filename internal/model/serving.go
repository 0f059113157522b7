package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ServingClient calls a TensorFlow Serving REST endpoint for reconstructions.
type ServingClient struct {
	predictURL string
	statusURL  string
	name       string
	httpClient *http.Client
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][][]float64 `json:"predictions"`
	Error       string        `json:"error,omitempty"`
}

// NewServingClient builds a client for base (e.g. http://localhost:8501) and checks
// that the model is reachable. An unreachable model is a configuration error.
func NewServingClient(ctx context.Context, base string, opts Options) (*ServingClient, error) {
	name := opts.Name
	if name == "" {
		return nil, contract.ConfigErrorf("a model name is required for remote serving")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = contract.DefaultModelTimeout
	}
	base = strings.TrimRight(base, "/")
	c := &ServingClient{
		predictURL: fmt.Sprintf("%s/v1/models/%s:predict", base, name),
		statusURL:  fmt.Sprintf("%s/v1/models/%s", base, name),
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
	}
	if err := c.ping(ctx); err != nil {
		return nil, contract.ConfigErrorf("model server %s: %v", base, err)
	}
	return c, nil
}

func (c *ServingClient) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Fingerprint identifies the remote model by its predict URL.
func (c *ServingClient) Fingerprint() string { return "serving:" + c.predictURL }

// Reconstruct posts the batch and converts the predictions back into windows.
func (c *ServingClient) Reconstruct(ctx context.Context, batch []schema.Window) ([]schema.Window, error) {
	body := predictRequest{Instances: make([][][]float64, len(batch))}
	for i, w := range batch {
		rows := make([][]float64, len(w))
		for t, v := range w {
			rows[t] = []float64{v[0], v[1], v[2]}
		}
		body.Instances[i] = rows
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", contract.ErrModelInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrModelInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: request to %s: %v", contract.ErrModelInference, c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", contract.ErrModelInference, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model server returned %d after %s: %s", contract.ErrModelInference, resp.StatusCode, time.Since(start).Round(time.Millisecond), strings.TrimSpace(string(data)))
	}

	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", contract.ErrModelInference, err)
	}
	if len(out.Predictions) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d predictions, got %d", contract.ErrModelInference, len(batch), len(out.Predictions))
	}

	result := make([]schema.Window, len(batch))
	for i, pred := range out.Predictions {
		w := make(schema.Window, len(pred))
		for t, row := range pred {
			if len(row) != schema.NumFeatures {
				return nil, fmt.Errorf("%w: prediction %d step %d has %d features", contract.ErrModelInference, i, t, len(row))
			}
			copy(w[t][:], row)
		}
		result[i] = w
	}
	return result, nil
}
