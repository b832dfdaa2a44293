package timing

import "time"

// Limiter paces the host loop to the display refresh rate.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// TimerFrequency is the fixed rate of the delay and sound timers, which is
// also the rate the host presents frames at.
const TimerFrequency = 60

// FrameDuration returns the duration of a single 60 Hz frame.
func FrameDuration() time.Duration {
	return time.Second / TimerFrequency
}

// FrameSpan returns the duration of frame n (0 based). Spans alternate
// between 16666666ns and 16666667ns so that the first k frames add up to
// exactly the time of the k-th timer tick, which FrameDuration's truncation
// would miss.
func FrameSpan(n uint64) time.Duration {
	n %= TimerFrequency
	return frameEnd(n+1) - frameEnd(n)
}

func frameEnd(n uint64) time.Duration {
	return time.Duration(n * uint64(time.Second) / TimerFrequency)
}
