package alert

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// ConsoleSink prints alerts to a terminal.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSink writes alerts to out, or stdout when out is nil.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out}
}

// Name implements contract.AlertSink.
func (s *ConsoleSink) Name() schema.AlertChannel { return schema.ConsoleChannel }

// Send implements contract.AlertSink.
func (s *ConsoleSink) Send(_ context.Context, alert schema.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s: %s\n", contract.AnomalyColor.Sprint(alert.Title), alert.Message)
	return err
}

// Close implements contract.AlertSink.
func (s *ConsoleSink) Close() error { return nil }
