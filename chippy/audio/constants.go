package audio

const (
	// SampleRate of the generated PCM stream.
	SampleRate = 44100
	// BitDepth of every sample.
	BitDepth = 16
	// FrameRate is the rate SetBeep is expected to be called at.
	FrameRate = 60
	// SamplesPerFrame is the PCM length of one SetBeep call.
	SamplesPerFrame = SampleRate / FrameRate

	// ToneFrequency is the pitch of the beeper, in Hz.
	ToneFrequency = 440
	// amplitude of the square wave, a quarter of the 16 bit range
	amplitude = 1 << 13

	// wavFormatPCM is the WAV audio format tag for integer PCM.
	wavFormatPCM = 1
)
