// Package budget bounds long-running tree walks.
//
// A Budget caps the number of visited items and the wall-clock time of a
// single traversal. The clock is consulted on the first tick and then once
// every CheckInterval ticks, so the per-item overhead stays at a counter
// increment and a branch.
//
// Exhaustion is not an error: walkers stop early and report a partial
// result.
package budget

import (
	"context"
	"time"
)

// DefaultCheckInterval is the number of ticks between clock reads.
const DefaultCheckInterval = 64

// Exhaustion reasons.
const (
	ReasonDeadline = "deadline"
	ReasonVisits   = "visits"
)

// Config configures a Budget.
type Config struct {
	// MaxDuration limits wall-clock time.
	// 0 = unlimited.
	MaxDuration time.Duration

	// MaxVisits limits the number of ticks.
	// 0 = unlimited.
	MaxVisits int64

	// CheckInterval is the number of ticks between clock reads.
	// 0 = DefaultCheckInterval.
	CheckInterval int
}

// IsZero reports whether the config imposes no limit.
func (c Config) IsZero() bool {
	return c.MaxDuration == 0 && c.MaxVisits == 0
}

// Budget tracks consumption of a single traversal.
// A nil *Budget is unlimited.
//
// Not safe for concurrent use; use Split to hand one budget per goroutine.
type Budget struct {
	deadline  time.Time
	started   time.Time
	maxVisits int64
	visits    int64
	interval  int
	ticks     int
	exhausted bool
	reason    string
}

// New creates a budget from configuration.
func New(cfg Config) *Budget {
	b := &Budget{
		maxVisits: cfg.MaxVisits,
		interval:  cfg.CheckInterval,
		started:   time.Now(),
	}
	if b.interval <= 0 {
		b.interval = DefaultCheckInterval
	}
	if cfg.MaxDuration > 0 {
		b.deadline = b.started.Add(cfg.MaxDuration)
	}
	return b
}

// WithDeadline creates a budget that expires at deadline.
func WithDeadline(deadline time.Time, checkInterval int) *Budget {
	b := New(Config{CheckInterval: checkInterval})
	b.deadline = deadline
	return b
}

// budgetKey is the context key for Budget.
type budgetKey struct{}

// WithBudget attaches a budget to a context.
func WithBudget(ctx context.Context, b *Budget) context.Context {
	return context.WithValue(ctx, budgetKey{}, b)
}

// FromContext retrieves the budget attached to ctx, or nil if none.
func FromContext(ctx context.Context) *Budget {
	if b, ok := ctx.Value(budgetKey{}).(*Budget); ok {
		return b
	}
	return nil
}

// ForContext returns the budget attached to ctx if any. Otherwise it builds
// one from cfg, tightened to the context deadline. Returns nil when neither
// imposes a limit.
func ForContext(ctx context.Context, cfg Config) *Budget {
	if b := FromContext(ctx); b != nil {
		return b
	}

	deadline, hasDeadline := ctx.Deadline()
	if cfg.IsZero() {
		if !hasDeadline {
			return nil
		}
		return WithDeadline(deadline, cfg.CheckInterval)
	}

	b := New(cfg)
	if hasDeadline && (b.deadline.IsZero() || deadline.Before(b.deadline)) {
		b.deadline = deadline
	}
	return b
}

// Tick accounts one visited item. Returns false once the budget is
// exhausted; every later call also returns false.
func (b *Budget) Tick() bool {
	if b == nil {
		return true
	}
	if b.exhausted {
		return false
	}

	b.visits++
	if b.maxVisits > 0 && b.visits > b.maxVisits {
		b.markExhausted(ReasonVisits)
		return false
	}

	if b.deadline.IsZero() {
		return true
	}

	check := b.ticks == 0
	b.ticks++
	if b.ticks == b.interval {
		b.ticks = 0
	}
	if check && time.Now().After(b.deadline) {
		b.markExhausted(ReasonDeadline)
		return false
	}
	return true
}

// Exhausted reports whether any limit was exceeded.
func (b *Budget) Exhausted() bool {
	if b == nil {
		return false
	}
	return b.exhausted
}

// Reason returns why the budget was exhausted.
func (b *Budget) Reason() string {
	if b == nil {
		return ""
	}
	return b.reason
}

func (b *Budget) markExhausted(reason string) {
	b.exhausted = true
	b.reason = reason
}

// Stats returns usage statistics.
func (b *Budget) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	s := Stats{
		Visits:          b.visits,
		VisitLimit:      b.maxVisits,
		Elapsed:         time.Since(b.started),
		Exhausted:       b.exhausted,
		ExhaustedReason: b.reason,
	}
	if !b.deadline.IsZero() {
		s.TimeLimit = b.deadline.Sub(b.started)
	}
	return s
}

// Stats contains budget usage statistics.
type Stats struct {
	Visits          int64
	VisitLimit      int64
	Elapsed         time.Duration
	TimeLimit       time.Duration
	Exhausted       bool
	ExhaustedReason string
}

// Split divides the remaining budget across n walkers. Each share keeps the
// shared deadline and an equal part of the remaining visits.
func (b *Budget) Split(n int) []*Budget {
	if n <= 0 {
		return nil
	}

	shares := make([]*Budget, n)
	for i := range shares {
		if b == nil {
			continue
		}
		shares[i] = &Budget{
			deadline:  b.deadline,
			started:   b.started,
			interval:  b.interval,
			exhausted: b.exhausted,
			reason:    b.reason,
		}
		if b.maxVisits > 0 {
			remaining := b.maxVisits - b.visits
			if remaining < 0 {
				remaining = 0
			}
			// A zero share would mean unlimited.
			shares[i].maxVisits = max(remaining/int64(n), 1)
		}
	}
	return shares
}
