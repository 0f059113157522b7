package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// Stream replays the readings of src into a fresh feed at dst, one row per interval,
// until the source is exhausted or ctx is cancelled. It returns the number of rows written.
func Stream(ctx context.Context, src, dst string, interval time.Duration) (int, error) {
	snap, err := ReadFile(src)
	if err != nil {
		return 0, err
	}
	if len(snap.Readings) == 0 {
		return 0, contract.InsufficientDataf("source %s has no readings", src)
	}

	w, err := Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create feed %s: %w", dst, err)
	}
	defer func() { _ = w.Close() }()

	contract.Logger().Info("streaming sensor feed",
		zap.String("source", src),
		zap.String("feed", dst),
		zap.Int("rows", len(snap.Readings)),
		zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for _, r := range snap.Readings {
		if err := w.Append(r); err != nil {
			return w.Rows(), fmt.Errorf("append to %s: %w", dst, err)
		}
		select {
		case <-ctx.Done():
			return w.Rows(), nil
		case <-ticker.C:
		}
	}
	return w.Rows(), nil
}
