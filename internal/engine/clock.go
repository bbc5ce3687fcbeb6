package engine

import "sync/atomic"

// Clock is the monotonic logical clock stamping applied actions.
//
// Sequence numbers give the audit trail and subscribers a total order
// that does not depend on wall-clock time.
//
// Thread-safety: safe for concurrent use, though the engine's
// single-writer design means only the Run goroutine calls Next.
type Clock struct {
	seq atomic.Int64
}

func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number, used
// when resuming from a persisted snapshot.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
