// Package resource bounds the engine's appetite for CPU and input
// bytes. Feature extraction is CPU-bound and adversarial inputs can be
// valid yet pathologically feature-dense, so batch drivers run every
// per-image unit of work through a Controller.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxWorkers is the maximum number of concurrent per-image jobs
	// (decode + extract). If 0, defaults to 1.
	MaxWorkers int64

	// InputBytesPerSec is the maximum decode throughput across all
	// workers. If 0, unlimited.
	InputBytesPerSec int64
}

// Controller manages extraction concurrency and input pacing.
type Controller struct {
	cfg Config

	workerSem *semaphore.Weighted

	inputLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.InputBytesPerSec > 0 {
		c.inputLimiter = rate.NewLimiter(rate.Limit(cfg.InputBytesPerSec), int(cfg.InputBytesPerSec))
	}

	return c
}

// MaxWorkers returns the configured worker bound.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker reserves a per-image job slot.
// Blocks until a slot is free or ctx is canceled.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workerSem.Acquire(ctx, 1)
}

// ReleaseWorker releases a per-image job slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workerSem.Release(1)
}

// AcquireInput waits until the input limit allows the specified number
// of bytes to be decoded.
func (c *Controller) AcquireInput(ctx context.Context, bytes int) error {
	if c == nil || c.inputLimiter == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}
	// WaitN cannot exceed the burst; clamp oversized images to it.
	if b := c.inputLimiter.Burst(); bytes > b {
		bytes = b
	}
	return c.inputLimiter.WaitN(ctx, bytes)
}
