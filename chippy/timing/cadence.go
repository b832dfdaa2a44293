package timing

import "time"

// MaxBacklog bounds how much unprocessed host time a Cadence keeps. A host
// that stalls for longer than this loses the excess instead of running a
// long burst of catch-up work.
const MaxBacklog = 250 * time.Millisecond

// Event is the kind of work a Cadence schedules next.
type Event uint8

const (
	None Event = iota
	// Step is one CPU instruction.
	Step
	// Tick is one 60 Hz decrement of the delay and sound timers.
	Tick
)

func (e Event) String() string {
	switch e {
	case Step:
		return "step"
	case Tick:
		return "tick"
	default:
		return "none"
	}
}

// Cadence converts elapsed host time into an ordered sequence of CPU steps
// at a configurable rate and timer ticks at TimerFrequency. It keeps virtual
// time as whole event counts, so no rounding drift accumulates.
//
// Typical use:
//
//	c.Add(elapsed)
//	for ev, ok := c.Next(); ok; ev, ok = c.Next() {
//		...
//	}
type Cadence struct {
	stepRate uint64
	now      time.Duration // virtual time available to consume
	steps    uint64        // steps handed out since the last rebase
	ticks    uint64        // ticks handed out since the last rebase
}

// NewCadence returns a cadence running instructionsPerSecond steps per
// second. A non-positive rate is treated as 1.
func NewCadence(instructionsPerSecond int) *Cadence {
	if instructionsPerSecond <= 0 {
		instructionsPerSecond = 1
	}
	return &Cadence{stepRate: uint64(instructionsPerSecond)}
}

// Rate returns the configured steps per second.
func (c *Cadence) Rate() int {
	return int(c.stepRate)
}

// Add makes elapsed host time available. It reports whether part of the
// backlog had to be dropped to stay within MaxBacklog.
func (c *Cadence) Add(elapsed time.Duration) (dropped bool) {
	if elapsed <= 0 {
		return false
	}
	if elapsed > MaxBacklog {
		c.Reset()
		elapsed = MaxBacklog
		dropped = true
	}

	c.now += elapsed

	if floor := c.now - MaxBacklog; floor > 0 {
		if n := countBefore(floor, c.stepRate); n > c.steps {
			c.steps = n
			dropped = true
		}
		if n := countBefore(floor, TimerFrequency); n > c.ticks {
			c.ticks = n
			dropped = true
		}
	}
	c.rebase()

	return dropped
}

// Next returns the next due event in time order, or false once all time
// added so far has been consumed. Ties go to the step.
func (c *Cadence) Next() (Event, bool) {
	stepDue := dueAt(c.steps, c.stepRate)
	tickDue := dueAt(c.ticks, TimerFrequency)

	switch {
	case stepDue <= tickDue && stepDue <= c.now:
		c.steps++
		return Step, true
	case tickDue <= c.now:
		c.ticks++
		return Tick, true
	}

	c.rebase()
	return None, false
}

// Reset drops all accumulated time.
func (c *Cadence) Reset() {
	c.now = 0
	c.steps = 0
	c.ticks = 0
}

// rebase drops whole seconds that have been fully consumed, keeping the
// counters small.
func (c *Cadence) rebase() {
	for c.now >= time.Second && c.steps >= c.stepRate && c.ticks >= TimerFrequency {
		c.now -= time.Second
		c.steps -= c.stepRate
		c.ticks -= TimerFrequency
	}
}

// dueAt returns the virtual time at which event number n (0 based) is due.
func dueAt(n, rate uint64) time.Duration {
	return time.Duration((n + 1) * uint64(time.Second) / rate)
}

// countBefore returns how many events at rate are due at or before t.
func countBefore(t time.Duration, rate uint64) uint64 {
	if t <= 0 {
		return 0
	}
	return uint64(t) * rate / uint64(time.Second)
}
