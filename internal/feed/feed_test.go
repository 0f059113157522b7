package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `timestamp,vibration,temp,pressure,label
2025-06-01 00:00:00,1.01,37.2,2.41,normal
2025-06-01 00:01:00,0.98,36.9,2.38,normal
2025-06-01 00:02:00,3.1,61.5,8.2,anomaly
`

func TestParse(t *testing.T) {
	snap, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)
	assert.False(t, snap.TrailingIgnored)
	require.Len(t, snap.Readings, 3)

	first := snap.Readings[0]
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, schema.Vector{1.01, 37.2, 2.41}, first.Values)
	assert.Equal(t, schema.NormalLabel, first.Label)
	assert.Equal(t, schema.AnomalyLabel, snap.Readings[2].Label)
}

func TestParseEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		readings  int
		trailing  bool
		malformed int
		wantErr   bool
	}{
		{name: "empty file", data: "", readings: 0},
		{name: "header only", data: "timestamp,vibration,temp,pressure\n", readings: 0},
		{name: "partial header", data: "timestamp,vibr", readings: 0, trailing: true},
		{
			name:     "unterminated last row",
			data:     sampleFeed + "2025-06-01 00:03:00,1.0,37",
			readings: 3,
			trailing: true,
		},
		{
			name:     "unterminated but complete looking row",
			data:     sampleFeed + "2025-06-01 00:03:00,1.0,37.0,2.4,normal",
			readings: 3,
			trailing: true,
		},
		{
			name:     "malformed terminated last row",
			data:     sampleFeed + "2025-06-01 00:03:00,abc,37.0,2.4,normal\n",
			readings: 3,
			trailing: true,
		},
		{
			name:      "malformed interior row",
			data:      "timestamp,vibration,temp,pressure\n2025-06-01 00:00:00,x,1,1\n2025-06-01 00:01:00,1,1,1\n",
			readings:  1,
			malformed: 1,
		},
		{
			name:      "truncated row followed by appends",
			data:      sampleFeed + "2025-06-01 00:03:00,0.1\n2025-06-01 00:04:00,1,37,2.4,normal\n2025-06-01 00:05:00,1,37,2.4,normal\n",
			readings:  5,
			malformed: 1,
		},
		{
			name:      "malformed interior and trailing rows",
			data:      sampleFeed + "bad\n2025-06-01 00:04:00,1,37,2.4,normal\n2025-06-01 00:05:00,1,37",
			readings:  4,
			trailing:  true,
			malformed: 1,
		},
		{
			name:    "missing pressure column",
			data:    "timestamp,vibration,temp\n2025-06-01 00:00:00,1,1\n",
			wantErr: true,
		},
		{
			name:     "temperature column name and crlf",
			data:     "timestamp,vibration,temperature,pressure\r\n2025-06-01T00:00:00Z,1,37,2.4\r\n",
			readings: 1,
		},
		{
			name:     "blank lines skipped",
			data:     "timestamp,vibration,temp,pressure\n\n2025-06-01 00:00:00,1,37,2.4\n\n",
			readings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, contract.ErrFeedRead)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snap.Readings, tt.readings)
			assert.Equal(t, tt.trailing, snap.TrailingIgnored)
			assert.Equal(t, tt.malformed, snap.Malformed)
			if tt.malformed > 0 {
				assert.Contains(t, snap.FirstMalformed, "line ")
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, contract.ErrFeedRead)
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors", "feed.csv")
	readings := Generate(GenerateOptions{NormalRows: 5, AnomalyRows: 2, Seed: 7})

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.AppendAll(readings))
	assert.Equal(t, 7, w.Rows())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n')

	src := NewFile(path)
	assert.Equal(t, path, src.Path())
	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, readings, snap.Readings)
}

func TestGenerate(t *testing.T) {
	a := Generate(GenerateOptions{NormalRows: 1000, AnomalyRows: 100, Seed: 42})
	b := Generate(GenerateOptions{NormalRows: 1000, AnomalyRows: 100, Seed: 42})
	c := Generate(GenerateOptions{NormalRows: 1000, AnomalyRows: 100, Seed: 43})

	require.Len(t, a, 1100)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	assert.Equal(t, GenerateStart, a[0].Timestamp)
	assert.Equal(t, GenerateStart.Add(1099*time.Minute), a[1099].Timestamp)
	assert.Equal(t, schema.NormalLabel, a[999].Label)
	assert.Equal(t, schema.AnomalyLabel, a[1000].Label)

	var normalMean, anomalyMean schema.Vector
	for i, r := range a {
		for f := range schema.NumFeatures {
			if i < 1000 {
				normalMean[f] += r.Values[f] / 1000
			} else {
				anomalyMean[f] += r.Values[f] / 100
			}
		}
	}
	assert.InDelta(t, 1.0, normalMean[schema.Vibration], 0.02)
	assert.InDelta(t, 37.0, normalMean[schema.Temperature], 0.1)
	assert.InDelta(t, 2.4, normalMean[schema.Pressure], 0.03)
	assert.InDelta(t, 60.0, anomalyMean[schema.Temperature], 1.5)
	assert.InDelta(t, 8.0, anomalyMean[schema.Pressure], 0.3)
}

func TestStream(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	dst := filepath.Join(dir, "live.csv")

	w, err := Create(src)
	require.NoError(t, err)
	require.NoError(t, w.AppendAll(Generate(GenerateOptions{NormalRows: 4, Seed: 1})))
	require.NoError(t, w.Close())

	n, err := Stream(context.Background(), src, dst, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	snap, err := ReadFile(dst)
	require.NoError(t, err)
	assert.Len(t, snap.Readings, 4)
}

func TestStreamStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	w, err := Create(src)
	require.NoError(t, err)
	require.NoError(t, w.AppendAll(Generate(GenerateOptions{NormalRows: 50, Seed: 1})))
	require.NoError(t, w.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := Stream(ctx, src, filepath.Join(dir, "live.csv"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStreamEmptySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	w, err := Create(src)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Stream(context.Background(), src, filepath.Join(dir, "live.csv"), time.Millisecond)
	assert.ErrorIs(t, err, contract.ErrInsufficientData)
}

func TestWatcherSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	fw, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()
	require.NoError(t, fw.Append(Generate(GenerateOptions{NormalRows: 1})[0]))

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal")
	}
}
