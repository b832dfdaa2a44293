package cpu

import (
	"time"

	"github.com/fistaco/rustychippydragoman/chippy/timing"
)

// TickTimers performs one 60 Hz timer tick: both timers count down towards
// zero. The beeper is on for this tick if the sound timer was non-zero when
// it started.
func (c *CPU) TickTimers() {
	if c.delayTimer > 0 {
		c.delayTimer--
	}

	c.beeping = c.soundTimer > 0
	if c.soundTimer > 0 {
		c.soundTimer--
	}
}

// Beeping reports whether the beeper sounded during the last timer tick.
func (c *CPU) Beeping() bool { return c.beeping }

// Advance runs every instruction and timer tick that falls due in elapsed
// host time, in the order they are due. keys is held constant for the whole
// slice. Backlogs longer than timing.MaxBacklog are dropped rather than
// replayed. It returns the number of instructions executed, stopping at the
// first error.
func (c *CPU) Advance(elapsed time.Duration, keys Keys) (int, error) {
	if c.cadence.Add(elapsed) {
		c.logger.Debug("Dropped emulation backlog", "elapsed", elapsed, "max", timing.MaxBacklog)
	}

	steps := 0
	for {
		event, ok := c.cadence.Next()
		if !ok {
			return steps, nil
		}

		switch event {
		case timing.Step:
			if err := c.Step(keys); err != nil {
				return steps, err
			}
			steps++
		case timing.Tick:
			c.TickTimers()
		}
	}
}
