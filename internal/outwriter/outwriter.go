// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteEvaluation prints batch evaluation results using the configured output format.
func (ow *OutWriter) WriteEvaluation(result *schema.EvaluationResult, cfg *contract.Config, duration time.Duration) error {
	return WriteEvaluationResults(result, cfg, duration)
}

// Table layouts chosen from the available terminal width.
const (
	narrowLayout = iota
	wideLayout
)

// wideTableWidth is the width needed to show every verdict column.
const wideTableWidth = 100

// getTableLayout picks the verdict table layout from the terminal width.
func getTableLayout(cfg *contract.Config) int {
	if getTerminalWidth(cfg) < wideTableWidth {
		return narrowLayout
	}
	return wideLayout
}

// getTerminalWidth returns the width override or the detected terminal width.
func getTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}
