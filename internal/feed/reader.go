// Package feed reads, writes, generates and watches the append-only sensor feed CSV.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Header is the column layout written by Writer.
var Header = []string{"timestamp", "vibration", "temp", "pressure", "label"}

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	contract.DateTimeFormat,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// columns maps the feed's header onto field positions. label is -1 when absent.
type columns struct {
	timestamp int
	values    [schema.NumFeatures]int
	label     int
	width     int
}

// File is a FeedSource backed by a CSV file on disk.
type File struct {
	path string
}

// NewFile returns a FeedSource for the CSV at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the location of the feed.
func (f *File) Path() string { return f.path }

// Snapshot reads the feed from disk.
func (f *File) Snapshot(ctx context.Context) (schema.FeedSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return schema.FeedSnapshot{}, err
	}
	return ReadFile(f.path)
}

// ReadFile reads every complete reading in the feed at path.
func ReadFile(path string) (schema.FeedSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.FeedSnapshot{}, contract.FeedReadErrorf("cannot read %s: %v", path, err)
	}
	snap, err := Parse(data)
	if err != nil {
		return schema.FeedSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes feed CSV content. The last line is dropped and TrailingIgnored set when it is
// unterminated or malformed, since a writer may be part way through appending it.
// Malformed rows elsewhere are skipped and counted in Malformed. Only a bad header is an ErrFeedRead.
func Parse(data []byte) (schema.FeedSnapshot, error) {
	var snap schema.FeedSnapshot

	complete := data
	if i := bytes.LastIndexByte(data, '\n'); i < len(data)-1 {
		complete = data[:i+1]
		if len(bytes.TrimSpace(data[i+1:])) > 0 {
			snap.TrailingIgnored = true
		}
	}

	lines := strings.Split(string(complete), "\n")
	// Drop the empty element after the final newline and any blank lines.
	rows := make([]string, 0, len(lines))
	lineNos := make([]int, 0, len(lines))
	for n, l := range lines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		rows = append(rows, l)
		lineNos = append(lineNos, n+1)
	}
	if len(rows) == 0 {
		return snap, nil
	}

	cols, err := parseHeader(rows[0])
	if err != nil {
		return schema.FeedSnapshot{}, err
	}

	snap.Readings = make([]schema.SensorReading, 0, len(rows)-1)
	for k, row := range rows[1:] {
		r, err := parseRow(row, cols)
		if err != nil {
			if k == len(rows)-2 {
				snap.TrailingIgnored = true
				break
			}
			if snap.Malformed == 0 {
				snap.FirstMalformed = fmt.Sprintf("line %d: %v", lineNos[k+1], err)
			}
			snap.Malformed++
			continue
		}
		snap.Readings = append(snap.Readings, r)
	}
	return snap, nil
}

func parseHeader(line string) (columns, error) {
	cols := columns{timestamp: -1, label: -1, values: [schema.NumFeatures]int{-1, -1, -1}}
	fields := strings.Split(line, ",")
	cols.width = len(fields)
	for i, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "timestamp":
			cols.timestamp = i
		case "vibration":
			cols.values[schema.Vibration] = i
		case "temperature", "temp":
			cols.values[schema.Temperature] = i
		case "pressure":
			cols.values[schema.Pressure] = i
		case "label":
			cols.label = i
		}
	}
	if cols.timestamp < 0 {
		return cols, contract.FeedReadErrorf("header is missing the timestamp column")
	}
	for i, c := range cols.values {
		if c < 0 {
			return cols, contract.FeedReadErrorf("header is missing the %s column", schema.FeatureNames[i])
		}
	}
	return cols, nil
}

func parseRow(line string, cols columns) (schema.SensorReading, error) {
	var r schema.SensorReading
	fields := strings.Split(line, ",")
	if len(fields) < cols.width {
		return r, fmt.Errorf("expected %d fields, got %d", cols.width, len(fields))
	}

	ts, err := ParseTimestamp(fields[cols.timestamp])
	if err != nil {
		return r, err
	}
	r.Timestamp = ts

	for i, c := range cols.values {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[c]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return r, fmt.Errorf("invalid %s value %q", schema.FeatureNames[i], fields[c])
		}
		r.Values[i] = v
	}

	if cols.label >= 0 {
		r.Label = schema.ParseLabel(strings.TrimSpace(fields[cols.label]))
	}
	return r, nil
}

// ParseTimestamp accepts the timestamp layouts found in sensor feeds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
