package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerWorkerSlots(t *testing.T) {
	ctx := context.Background()
	c := NewController(Config{MaxWorkers: 2})

	require.NoError(t, c.AcquireWorker(ctx))
	require.NoError(t, c.AcquireWorker(ctx))

	// Third slot must block until one is released.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireWorker(blocked))

	c.ReleaseWorker()
	require.NoError(t, c.AcquireWorker(ctx))

	c.ReleaseWorker()
	c.ReleaseWorker()
}

func TestControllerDefaults(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, 1, c.MaxWorkers())
	assert.NoError(t, c.AcquireInput(context.Background(), 1<<20))
}

func TestControllerNilIsUnlimited(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	assert.NoError(t, c.AcquireWorker(ctx))
	c.ReleaseWorker()
	assert.NoError(t, c.AcquireInput(ctx, 1024))
	assert.Equal(t, 1, c.MaxWorkers())
}

func TestControllerInputPacing(t *testing.T) {
	c := NewController(Config{MaxWorkers: 1, InputBytesPerSec: 1 << 20})

	// Oversized requests are clamped to the burst, not rejected.
	assert.NoError(t, c.AcquireInput(context.Background(), 10<<20))
}
