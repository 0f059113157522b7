package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Writer appends readings to a feed file. Each row reaches the file as one whole line,
// so concurrent readers never see a row split across two writes.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	rows int
}

// Create truncates (or creates) the feed at path and writes the header.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: f, csv: csv.NewWriter(f)}
	if err := w.writeRecord(Header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// Append writes one reading and flushes it to the file.
func (w *Writer) Append(r schema.SensorReading) error {
	if err := w.writeRecord(FormatRecord(r)); err != nil {
		return err
	}
	w.rows++
	return nil
}

// AppendAll writes every reading in order.
func (w *Writer) AppendAll(readings []schema.SensorReading) error {
	for i, r := range readings {
		if err := w.Append(r); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Rows returns the number of readings written so far.
func (w *Writer) Rows() int { return w.rows }

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}

func (w *Writer) writeRecord(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// FormatRecord renders a reading in Header column order.
func FormatRecord(r schema.SensorReading) []string {
	return []string{
		r.Timestamp.Format(contract.DateTimeFormat),
		strconv.FormatFloat(r.Values[schema.Vibration], 'f', -1, 64),
		strconv.FormatFloat(r.Values[schema.Temperature], 'f', -1, 64),
		strconv.FormatFloat(r.Values[schema.Pressure], 'f', -1, 64),
		string(r.Label),
	}
}
