package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withRunID(WithSuppressHeader(context.Background()), 12345)

	var wg sync.WaitGroup
	for id := range 50 {
		wg.Go(func() {
			runID, ok := getRunID(ctx)
			assert.True(t, shouldSuppressHeader(ctx), "goroutine %d", id)
			assert.True(t, ok, "goroutine %d", id)
			assert.Equal(t, int64(12345), runID, "goroutine %d", id)
		})
	}
	wg.Wait()
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	base := context.Background()
	suppressed := WithSuppressHeader(base)

	assert.False(t, shouldSuppressHeader(base))
	assert.True(t, shouldSuppressHeader(suppressed))

	_, ok := getRunID(base)
	assert.False(t, ok)

	_, ok = getRunID(withRunID(base, 0))
	assert.False(t, ok, "zero run ID means tracking is off")
}
