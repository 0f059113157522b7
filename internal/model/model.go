// Package model loads the trained sequence autoencoder, either as a local dense network
// evaluated in process or as a remote TensorFlow Serving endpoint.
package model

import (
	"context"
	"strings"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// Options tune how a model location is opened.
type Options struct {
	WindowSize int           // expected time steps per window
	Name       string        // model name for remote serving
	Timeout    time.Duration // per-request timeout for remote serving
}

// Load opens the autoencoder at location. URLs are served remotely; anything else
// is read as a dense network description from disk.
func Load(ctx context.Context, location string, opts Options) (contract.Autoencoder, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		c, err := NewServingClient(ctx, location, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	d, err := LoadDense(location, opts.WindowSize)
	if err != nil {
		return nil, err
	}
	return d, nil
}
