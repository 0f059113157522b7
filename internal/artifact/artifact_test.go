package artifact

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadScaler(t *testing.T) {
	params := schema.ScalerParams{FeatureMax: schema.Vector{3.5, 66.2, 9.1}}
	for _, name := range []string{"scaler.npy", "scaler.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "models", name)
			require.NoError(t, SaveScaler(path, params))
			got, err := LoadScaler(path)
			require.NoError(t, err)
			assert.Equal(t, params, got)
		})
	}
}

func TestEncodeNpyHeaderAlignment(t *testing.T) {
	data := encodeNpy([]float64{1, 2, 3})
	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	assert.Zero(t, (10+headerLen)%64)
	assert.Equal(t, byte('\n'), data[10+headerLen-1])
	assert.Len(t, data, 10+headerLen+3*8)
}

func TestDecodeNpyFloat32(t *testing.T) {
	header := "{'descr': '<f4', 'fortran_order': False, 'shape': (3,), }\n"
	data := append([]byte("\x93NUMPY\x01\x00"), byte(len(header)), 0)
	data = append(data, header...)
	for _, v := range []float32{1.5, 40, 8} {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}

	got, err := decodeNpy(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 40, 8}, got)
}

func TestDecodeNpyVersion2(t *testing.T) {
	header := "{'descr': '<f8', 'fortran_order': False, 'shape': (3,), }\n"
	data := []byte("\x93NUMPY\x02\x00")
	data = binary.LittleEndian.AppendUint32(data, uint32(len(header)))
	data = append(data, header...)
	for _, v := range []float64{1, 2, 3} {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}

	got, err := decodeNpy(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestLoadScalerErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.npy")},
		{"not npy", write("garbage.npy", []byte("hello world, not numpy"))},
		{"wrong length", write("two.json", []byte(`{"feature_max":[1,2]}`))},
		{"zero maximum", write("zero.json", []byte(`{"feature_max":[1,0,2]}`))},
		{"missing key", write("empty.json", []byte(`{}`))},
		{"bad json", write("bad.json", []byte(`{`))},
		{"two dimensional", write("matrix.npy", func() []byte {
			header := "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 3), }\n"
			d := append([]byte("\x93NUMPY\x01\x00"), byte(len(header)), 0)
			return append(d, header...)
		}())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScaler(tt.path)
			assert.ErrorIs(t, err, contract.ErrConfig)
		})
	}
}

func TestValidateMaxima(t *testing.T) {
	p, err := ValidateMaxima([]float64{3, 60, 8})
	require.NoError(t, err)
	assert.Equal(t, schema.Vector{3, 60, 8}, p.FeatureMax)

	_, err = ValidateMaxima([]float64{3, math.Inf(1), 8})
	assert.ErrorIs(t, err, contract.ErrConfig)
	_, err = ValidateMaxima([]float64{3, -1, 8})
	assert.ErrorIs(t, err, contract.ErrConfig)
}
