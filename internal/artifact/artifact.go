// Package artifact loads and saves the scaler parameters produced at training time.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// LoadScaler reads per-feature maxima from a .npy or .json file.
// Any failure, including values that cannot scale a reading, is reported as ErrConfig.
func LoadScaler(path string) (schema.ScalerParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.ScalerParams{}, contract.ConfigErrorf("cannot read scaler %s: %v", path, err)
	}

	var values []float64
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		values, err = decodeJSON(data)
	default:
		values, err = decodeNpy(data)
	}
	if err != nil {
		return schema.ScalerParams{}, contract.ConfigErrorf("malformed scaler %s: %v", path, err)
	}
	return ValidateMaxima(values)
}

// SaveScaler writes scaler parameters as .json or .npy, chosen by file extension.
func SaveScaler(path string, params schema.ScalerParams) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(jsonScaler{FeatureMax: params.FeatureMax[:]}, "", "  ")
	default:
		data = encodeNpy(params.FeatureMax[:])
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ValidateMaxima checks that values hold one finite, positive maximum per feature.
func ValidateMaxima(values []float64) (schema.ScalerParams, error) {
	if len(values) != schema.NumFeatures {
		return schema.ScalerParams{}, contract.ConfigErrorf("scaler must hold %d maxima, got %d", schema.NumFeatures, len(values))
	}
	var p schema.ScalerParams
	copy(p.FeatureMax[:], values)
	if !p.FeatureMax.IsFinite() {
		return schema.ScalerParams{}, contract.ConfigErrorf("scaler maxima must be finite: %v", values)
	}
	for i, m := range p.FeatureMax {
		if m <= 0 {
			return schema.ScalerParams{}, contract.ConfigErrorf("scaler maximum for %s must be positive, got %g", schema.FeatureNames[i], m)
		}
	}
	return p, nil
}

type jsonScaler struct {
	FeatureMax []float64 `json:"feature_max"`
}

func decodeJSON(data []byte) ([]float64, error) {
	var s jsonScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.FeatureMax == nil {
		return nil, fmt.Errorf("missing feature_max")
	}
	return s.FeatureMax, nil
}
