// Package testutil provides deterministic clocks and scripted remote
// fakes for tests.
package testutil

import (
	"sync"
	"time"
)

// WallClock is a deterministic time source for tests. Each call to Now
// advances the clock by a fixed step, so timestamps are unique and
// ordered without sleeping.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewWallClock creates a clock starting at the given instant, advancing
// one second per Now call.
func NewWallClock(start time.Time) *WallClock {
	return &WallClock{now: start, step: time.Second}
}

// Now returns the current instant and advances the clock by one step.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward without producing a timestamp.
func (c *WallClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Epoch is a fixed start instant used across tests for stable output.
var Epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
