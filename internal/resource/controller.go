package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when posting memory is at or above the limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the admission limit for posting memory.
	// If 0, no limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxBackgroundWorkers is the maximum number of concurrent GC workers.
	// If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// GCDeltasPerSec is the maximum number of GC deltas applied per second.
	// If 0, unlimited.
	GCDeltasPerSec float64
}

// Controller manages shared resources (memory, concurrency, GC throughput).
type Controller struct {
	cfg Config

	// Memory
	memUsed atomic.Int64

	// Concurrency
	bgSem *semaphore.Weighted

	// GC throughput
	gcLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.GCDeltasPerSec > 0 {
		burst := max(int(cfg.GCDeltasPerSec), 1)
		c.gcLimiter = rate.NewLimiter(rate.Limit(cfg.GCDeltasPerSec), burst)
	}

	return c
}

// CheckMemory returns ErrMemoryLimitExceeded if usage has reached the limit.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) CheckMemory() error {
	if c == nil || c.cfg.MemoryLimitBytes <= 0 {
		return nil
	}
	if c.memUsed.Load() >= c.cfg.MemoryLimitBytes {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TrackMemory adds delta (which may be negative) to the tracked usage.
func (c *Controller) TrackMemory(delta int64) {
	if c == nil || delta == 0 {
		return
	}
	c.memUsed.Add(delta)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireBackground attempts to reserve a background worker slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground releases a background worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// AcquireGC waits until the GC rate limit allows n more deltas.
func (c *Controller) AcquireGC(ctx context.Context, n int) error {
	if c == nil || c.gcLimiter == nil {
		return nil
	}
	return c.gcLimiter.WaitN(ctx, n)
}

