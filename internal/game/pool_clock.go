package game

import "time"

// maxStepsPerAdvance bounds catch-up after the host stalls.
const maxStepsPerAdvance = 8

// Clock converts variable frame times into fixed physics steps.
type Clock struct {
	step    time.Duration
	pending time.Duration
}

// NewClock returns a clock stepping at rate ticks per second. A non-positive rate
// falls back to DefaultTickRate.
func NewClock(rate int) *Clock {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return &Clock{step: time.Second / time.Duration(rate)}
}

// Step is the fixed dt handed to Tick.
func (c *Clock) Step() time.Duration { return c.step }

// Advance accumulates elapsed wall time and runs as many fixed ticks as fit.
// Events from every tick are returned in order. A tick error stops the
// advance and is returned with the events gathered so far.
func (c *Clock) Advance(sim *Simulation, elapsed time.Duration) ([]Event, error) {
	if elapsed <= 0 {
		return nil, nil
	}
	c.pending += elapsed
	if limit := maxStepsPerAdvance * c.step; c.pending > limit {
		c.pending = limit
	}

	dt := c.step.Seconds()
	var events []Event
	for c.pending >= c.step {
		c.pending -= c.step
		evs, err := sim.Tick(dt)
		events = append(events, evs...)
		if err != nil {
			c.pending = 0
			return events, err
		}
	}
	return events, nil
}

// Reset drops any accumulated time.
func (c *Clock) Reset() { c.pending = 0 }
