package correlate

import (
	"time"
)

// WindowCounter counts events inside a sliding time window. Add evicts
// entries older than the window before counting, Reset drops the streak
// entirely (used when a success breaks a failure run).
type WindowCounter struct {
	window time.Duration
	times  []time.Time
}

// NewWindowCounter returns a counter over the given window.
func NewWindowCounter(window time.Duration) *WindowCounter {
	return &WindowCounter{window: window}
}

// Add records an event at t and returns how many recorded events fall
// within the window ending at t. Events are expected in chronological order.
func (c *WindowCounter) Add(t time.Time) int {
	cutoff := t.Add(-c.window)
	kept := c.times[:0]
	for _, ts := range c.times {
		if ts.After(cutoff) || ts.Equal(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.times = append(kept, t)
	return len(c.times)
}

// Reset clears the counter.
func (c *WindowCounter) Reset() {
	c.times = c.times[:0]
}

// Count returns the current number of retained events.
func (c *WindowCounter) Count() int {
	return len(c.times)
}

// First returns the oldest retained event time, or zero when empty.
func (c *WindowCounter) First() time.Time {
	if len(c.times) == 0 {
		return time.Time{}
	}
	return c.times[0]
}
