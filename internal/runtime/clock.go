package runtime

import "sync/atomic"

// Clock is a monotonic logical clock. Every invocation and every
// delivered event is stamped with a strictly increasing seq so the
// invocation log and the sink order are deterministic.
//
// Thread-safety: safe for concurrent use (atomic operations), though
// the per-instance single-writer loop is the only caller in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used when resuming an instance against an existing invocation log.
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
