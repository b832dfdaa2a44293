package audio

// Sink receives the beeper state once per 60 Hz frame. The interpreter only
// exposes an on/off flag; turning it into sound is up to the sink.
type Sink interface {
	// SetBeep reports whether the beeper sounds for the current frame.
	SetBeep(on bool)
	// Close flushes and releases whatever the sink holds.
	Close() error
}

// Silent discards the beeper state.
type Silent struct{}

func (Silent) SetBeep(bool) {}
func (Silent) Close() error { return nil }

var (
	_ Sink = Silent{}
	_ Sink = (*WavRecorder)(nil)
)
