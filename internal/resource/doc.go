// Package resource implements the Controller for shared limits and governance.
//
// The Controller provides centralized management of three resource types:
//
//   - Memory: Track posting memory across all trees (admission check, fail-fast)
//   - Concurrency: Limit background GC workers
//   - GC throughput: Rate-limit applied GC deltas to avoid starving writers
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Background     │  GC Rate Limiter        │
//	│  (fail-fast)    │  Workers (sem)  │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  CheckMemory    │  AcquireBack-   │  AcquireGC              │
//	│  TrackMemory    │  ground         │                         │
//	│  MemoryUsage    │  Release        │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// Tree mutations report signed memory deltas after the fact, so memory is
// tracked with an atomic counter and enforced as an admission check before
// each insert:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.CheckMemory(); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides retry/backoff
//	}
//	rv := tree.Add(doc, value, false, 0)
//	rc.TrackMemory(rv.MemoryDelta)
//
// # Background Worker Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxBackgroundWorkers: 4,
//	})
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # GC Rate Limiting
//
// Token bucket limiter over applied GC deltas. Each delta takes the tree's
// write lock, so bounding their rate bounds writer stalls:
//
//	if err := rc.AcquireGC(ctx, 1); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
package resource
