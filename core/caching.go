package core

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// currentCacheVersion defines the version of the cached score layout
const currentCacheVersion = 1

// cacheMaxAge bounds how long a cached score vector is trusted
const cacheMaxAge = 7 * 24 * time.Hour

// cachedScoreFunc wraps the scorer with a lookup in the score cache. Scores are
// cached only when every window was scored.
func cachedScoreFunc(cfg *contract.Config, params schema.ScalerParams, scorer *Scorer, readings []schema.SensorReading, mgr contract.CacheManager) ScoreFunc {
	if mgr == nil {
		return scorer.ScoreMany
	}
	store := mgr.GetScoreStore()
	if store == nil {
		return scorer.ScoreMany
	}

	key := generateCacheKey(cfg, params, scorer.Fingerprint(), readings)
	return func(ctx context.Context, windows []schema.Window) ([]float64, error) {
		// Check for cache hit
		if scores := checkCacheHit(store, key, len(windows)); scores != nil {
			return scores, nil
		}

		// Cache miss: compute and store
		return computeAndStore(ctx, scorer, store, key, windows)
	}
}

// checkCacheHit attempts to retrieve and validate a cached score vector
func checkCacheHit(store contract.CacheStore, key string, expected int) []float64 {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return nil // Stale or version mismatch
	}

	var scores []float64
	if err := json.Unmarshal(data, &scores); err != nil || len(scores) != expected {
		return nil
	}
	return scores
}

// computeAndStore scores the windows and stores a complete result in the cache
func computeAndStore(ctx context.Context, scorer *Scorer, store contract.CacheStore, key string, windows []schema.Window) ([]float64, error) {
	scores, err := scorer.ScoreMany(ctx, windows)
	if err != nil {
		return scores, err
	}

	if data, err := json.Marshal(scores); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store scores in cache", err)
		}
	}
	return scores, nil
}

// generateCacheKey creates a key from everything that determines the score vector:
// the readings, the model, the scaler and the window size.
func generateCacheKey(cfg *contract.Config, params schema.ScalerParams, fingerprint string, readings []schema.SensorReading) string {
	key := fmt.Sprintf("%s:%s:%v:%d",
		digestReadings(readings),
		fingerprint,
		params.FeatureMax,
		cfg.WindowSize,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// digestReadings hashes the timestamps and values of the readings in order.
func digestReadings(readings []schema.SensorReading) string {
	h := sha256.New()
	var buf [8 * (1 + schema.NumFeatures)]byte
	for _, r := range readings {
		binary.LittleEndian.PutUint64(buf[0:], uint64(r.Timestamp.UnixNano()))
		for f, v := range r.Values {
			binary.LittleEndian.PutUint64(buf[8*(f+1):], math.Float64bits(v))
		}
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
