package outwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// JournalHeader is the column layout of the monitor poll journal.
var JournalHeader = []string{"polled_at", "state", "rows", "window_end", "reconstruction_error", "threshold", "predicted_label", "alerted"}

// Journal appends one CSV row per effective monitor poll and flushes after each row,
// so the file is complete up to the last poll even if the process is killed.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	csv  *csv.Writer
}

var _ contract.PollJournal = &Journal{} // Compile-time check

// NewJournal opens path for appending, writing the header when the file is new.
func NewJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	j := &Journal{file: file, csv: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := j.write(JournalHeader); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return j, nil
}

// Record implements contract.PollJournal.
func (j *Journal) Record(polledAt time.Time, res schema.PollResult) error {
	rec := []string{
		polledAt.Format(time.RFC3339),
		string(res.State),
		strconv.Itoa(res.Rows),
		"", "", "", "",
		strconv.FormatBool(res.Alerted),
	}
	if res.ThresholdSet {
		rec[5] = strconv.FormatFloat(res.Threshold, 'g', -1, 64)
	}
	if v := res.Verdict; v != nil {
		rec[3] = v.WindowEnd.Format(contract.DateTimeFormat)
		rec[4] = strconv.FormatFloat(v.ReconstructionError, 'g', -1, 64)
		rec[6] = string(v.PredictedLabel())
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.write(rec)
}

func (j *Journal) write(rec []string) error {
	if err := j.csv.Write(rec); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	j.csv.Flush()
	return j.csv.Error()
}

// Close implements contract.PollJournal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.csv.Flush()
	return j.file.Close()
}
