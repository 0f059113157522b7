package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Activation names supported by dense layers.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationTanh    = "tanh"
	ActivationSigmoid = "sigmoid"
)

// Layer is one fully connected layer. Weights are indexed [out][in].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

// DenseSpec is the on-disk description of a dense autoencoder over flattened windows.
type DenseSpec struct {
	WindowSize int     `json:"window_size"`
	Features   int     `json:"features"`
	Layers     []Layer `json:"layers"`
}

// Dense runs a feed-forward autoencoder in process. It is safe for concurrent use.
type Dense struct {
	spec        DenseSpec
	fingerprint string
}

// LoadDense reads and validates a dense autoencoder file.
// windowSize, when positive, must match the window size the network was built for.
func LoadDense(path string, windowSize int) (*Dense, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, contract.ConfigErrorf("cannot read model %s: %v", path, err)
	}
	var spec DenseSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, contract.ConfigErrorf("malformed model %s: %v", path, err)
	}
	d, err := NewDense(spec)
	if err != nil {
		return nil, err
	}
	if windowSize > 0 && spec.WindowSize != windowSize {
		return nil, contract.ConfigErrorf("model %s expects windows of %d readings, configured window size is %d", path, spec.WindowSize, windowSize)
	}
	sum := sha256.Sum256(data)
	d.fingerprint = "dense:" + hex.EncodeToString(sum[:])
	return d, nil
}

// NewDense validates layer shapes and builds a Dense model.
func NewDense(spec DenseSpec) (*Dense, error) {
	if spec.Features != schema.NumFeatures {
		return nil, contract.ConfigErrorf("model must have %d features, got %d", schema.NumFeatures, spec.Features)
	}
	if spec.WindowSize < 1 {
		return nil, contract.ConfigErrorf("model window size must be positive, got %d", spec.WindowSize)
	}
	if len(spec.Layers) == 0 {
		return nil, contract.ConfigErrorf("model has no layers")
	}

	width := spec.WindowSize * spec.Features
	in := width
	for i, l := range spec.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Bias) {
			return nil, contract.ConfigErrorf("layer %d: %d weight rows and %d biases", i, len(l.Weights), len(l.Bias))
		}
		for r, row := range l.Weights {
			if len(row) != in {
				return nil, contract.ConfigErrorf("layer %d row %d: expected %d inputs, got %d", i, r, in, len(row))
			}
		}
		switch l.Activation {
		case "", ActivationLinear, ActivationReLU, ActivationTanh, ActivationSigmoid:
		default:
			return nil, contract.ConfigErrorf("layer %d: unknown activation %q", i, l.Activation)
		}
		in = len(l.Weights)
	}
	if in != width {
		return nil, contract.ConfigErrorf("model output width %d does not match input width %d", in, width)
	}

	sum := sha256.Sum256(fmt.Appendf(nil, "%v", spec))
	return &Dense{spec: spec, fingerprint: "dense:" + hex.EncodeToString(sum[:])}, nil
}

// WindowSize returns the number of readings per window the network expects.
func (d *Dense) WindowSize() int { return d.spec.WindowSize }

// Fingerprint identifies the loaded network.
func (d *Dense) Fingerprint() string { return d.fingerprint }

// Reconstruct runs every window through the network. A window of the wrong length is an
// inference error for the whole batch.
func (d *Dense) Reconstruct(ctx context.Context, batch []schema.Window) ([]schema.Window, error) {
	out := make([]schema.Window, len(batch))
	for i, w := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(w) != d.spec.WindowSize {
			return nil, fmt.Errorf("%w: window %d has %d readings, model expects %d", contract.ErrModelInference, i, len(w), d.spec.WindowSize)
		}
		out[i] = d.forward(w)
	}
	return out, nil
}

func (d *Dense) forward(w schema.Window) schema.Window {
	x := make([]float64, 0, len(w)*schema.NumFeatures)
	for _, v := range w {
		x = append(x, v[:]...)
	}
	for _, l := range d.spec.Layers {
		y := make([]float64, len(l.Weights))
		for o, row := range l.Weights {
			s := l.Bias[o]
			for k, wk := range row {
				s += wk * x[k]
			}
			y[o] = activate(l.Activation, s)
		}
		x = y
	}

	out := make(schema.Window, len(w))
	for t := range out {
		copy(out[t][:], x[t*schema.NumFeatures:(t+1)*schema.NumFeatures])
	}
	return out
}

func activate(name string, v float64) float64 {
	switch name {
	case ActivationReLU:
		return math.Max(0, v)
	case ActivationTanh:
		return math.Tanh(v)
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-v))
	default:
		return v
	}
}
