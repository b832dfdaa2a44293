package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Cadence) (events []Event) {
	for ev, ok := c.Next(); ok; ev, ok = c.Next() {
		events = append(events, ev)
	}
	return events
}

// feed adds d in chunks small enough to never hit MaxBacklog, draining
// after each one like a host loop does.
func feed(c *Cadence, d time.Duration) (events []Event) {
	for d > 0 {
		chunk := min(d, MaxBacklog)
		if c.Add(chunk) {
			panic("unexpected backlog drop")
		}
		events = append(events, drain(c)...)
		d -= chunk
	}
	return events
}

func count(events []Event, kind Event) int {
	n := 0
	for _, ev := range events {
		if ev == kind {
			n++
		}
	}
	return n
}

func TestCadence_OneSecond(t *testing.T) {
	testCases := []struct {
		desc string
		ips  int
	}{
		{desc: "slow", ips: 60},
		{desc: "default", ips: 700},
		{desc: "fast", ips: 1000},
		{desc: "odd rate", ips: 541},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c := NewCadence(tC.ips)
			events := feed(c, time.Second)
			assert.Equal(t, tC.ips, count(events, Step))
			assert.Equal(t, TimerFrequency, count(events, Tick))
		})
	}
}

func TestCadence_Interleaving(t *testing.T) {
	c := NewCadence(120)
	c.Add(4 * time.Second / 60)

	// a step is due every 1/120 s and a tick every 1/60 s, ties go to the step
	want := []Event{Step, Step, Tick, Step, Step, Tick, Step, Step, Tick, Step, Step, Tick}
	assert.Equal(t, want, drain(c))
}

func TestCadence_NoTimeNoWork(t *testing.T) {
	c := NewCadence(700)
	assert.False(t, c.Add(0))
	assert.False(t, c.Add(-time.Second))

	ev, ok := c.Next()
	assert.False(t, ok)
	assert.Equal(t, None, ev)
}

func TestCadence_SplitAddsMatchSingleAdd(t *testing.T) {
	whole := NewCadence(700)
	whole.Add(MaxBacklog)

	split := NewCadence(700)
	var got []Event
	for i := 0; i < 5; i++ {
		split.Add(MaxBacklog / 5)
		got = append(got, drain(split)...)
	}

	assert.Equal(t, drain(whole), got)
}

func TestCadence_NoDriftAcrossSeconds(t *testing.T) {
	c := NewCadence(700)
	steps, ticks := 0, 0
	for i := 0; i < 10; i++ {
		events := feed(c, time.Second)
		steps += count(events, Step)
		ticks += count(events, Tick)
	}

	assert.Equal(t, 7000, steps)
	assert.Equal(t, 600, ticks)
}

func TestCadence_BacklogIsCapped(t *testing.T) {
	c := NewCadence(600)
	assert.True(t, c.Add(time.Hour))

	events := drain(c)
	assert.Equal(t, 150, count(events, Step))
	assert.Equal(t, 15, count(events, Tick))
}

func TestCadence_UnconsumedBacklogIsCapped(t *testing.T) {
	c := NewCadence(600)
	assert.False(t, c.Add(MaxBacklog))
	assert.True(t, c.Add(MaxBacklog))

	events := drain(c)
	assert.Equal(t, 150, count(events, Step))
	assert.Equal(t, 15, count(events, Tick))
}

func TestCadence_Reset(t *testing.T) {
	c := NewCadence(700)
	c.Add(time.Second)
	c.Reset()

	assert.Empty(t, drain(c))
}

func TestNewCadence_InvalidRate(t *testing.T) {
	assert.Equal(t, 1, NewCadence(0).Rate())
	assert.Equal(t, 1, NewCadence(-5).Rate())
	assert.Equal(t, 700, NewCadence(700).Rate())
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Second/60, FrameDuration())
}

func TestFrameSpan_MatchesTicks(t *testing.T) {
	c := NewCadence(1000)

	var total time.Duration
	for frame := uint64(0); frame < 3*TimerFrequency; frame++ {
		span := FrameSpan(frame)
		assert.InDelta(t, float64(FrameDuration()), float64(span), 1)
		total += span

		c.Add(span)
		ticks := 0
		for ev, ok := c.Next(); ok; ev, ok = c.Next() {
			if ev == Tick {
				ticks++
			}
		}
		require.Equal(t, 1, ticks, "frame %d", frame)
	}

	assert.Equal(t, 3*time.Second, total)
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 100; i++ {
		l.WaitForNextFrame()
	}
	l.Reset()
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestAdaptiveLimiter_SleepsUntilNextFrame(t *testing.T) {
	base := time.Unix(0, 0)
	now := base
	var slept time.Duration

	a := NewAdaptiveLimiter()
	a.now = func() time.Time { return now }
	a.sleep = func(d time.Duration) {
		slept += d
		now = now.Add(d + time.Millisecond)
	}
	a.Reset()

	// first frame is due immediately
	a.WaitForNextFrame()
	assert.Zero(t, slept)

	// the second one is a full frame away
	a.WaitForNextFrame()
	assert.Equal(t, FrameDuration()-time.Millisecond, slept)
}

func TestAdaptiveLimiter_ResyncsWhenFarBehind(t *testing.T) {
	now := time.Unix(0, 0)
	a := NewAdaptiveLimiter()
	a.now = func() time.Time { return now }
	a.sleep = func(d time.Duration) { t.Fatalf("unexpected sleep of %v", d) }
	a.Reset()

	now = now.Add(time.Second)
	a.WaitForNextFrame()

	assert.Equal(t, now.Add(FrameDuration()), a.nextFrameTime)
}

func TestTickerLimiter_WaitsForTicks(t *testing.T) {
	l := NewTickerLimiter()
	defer l.Stop()

	start := time.Now()
	l.WaitForNextFrame()
	l.WaitForNextFrame()

	assert.GreaterOrEqual(t, time.Since(start), FrameDuration())
}
