package audio

import (
	"io"
	"log/slog"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WavRecorder renders the beeper as a mono 16 bit square wave and streams
// it into a WAV file, one frame of samples per SetBeep call. Silent frames
// are written too, so the recording keeps the timing of the run.
type WavRecorder struct {
	enc    *wav.Encoder
	closer io.Closer
	buf    *goaudio.IntBuffer
	phase  int // position inside the square wave period, in samples
	frames int
	beeps  int
	err    error
}

// NewWavRecorder writes the recording to w. The WAV header is finalised on
// Close, which needs to seek back to the start of w.
func NewWavRecorder(w io.WriteSeeker) *WavRecorder {
	return &WavRecorder{
		enc: wav.NewEncoder(w, SampleRate, BitDepth, 1, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
			Data:           make([]int, SamplesPerFrame),
			SourceBitDepth: BitDepth,
		},
	}
}

// CreateWavRecorder creates (or truncates) the file at path and records
// into it. Close also closes the file.
func CreateWavRecorder(path string) (*WavRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating wav file %s", path)
	}

	r := NewWavRecorder(f)
	r.closer = f
	slog.Info("Recording audio", "path", path, "sample_rate", SampleRate)
	return r, nil
}

// SetBeep appends one frame of audio. The first write error is kept and
// returned by Close; later frames are dropped.
func (r *WavRecorder) SetBeep(on bool) {
	if r.err != nil {
		return
	}

	period := SampleRate / ToneFrequency
	for i := range r.buf.Data {
		switch {
		case !on:
			r.buf.Data[i] = 0
		case r.phase < period/2:
			r.buf.Data[i] = amplitude
		default:
			r.buf.Data[i] = -amplitude
		}
		r.phase = (r.phase + 1) % period
	}
	if !on {
		r.phase = 0
	} else {
		r.beeps++
	}
	r.frames++

	if err := r.enc.Write(r.buf); err != nil {
		r.err = errors.Wrap(err, "writing wav samples")
	}
}

// Frames returns how many frames were recorded and how many of them beeped.
func (r *WavRecorder) Frames() (total, beeping int) {
	return r.frames, r.beeps
}

// Close finalises the WAV header and closes the underlying file, if the
// recorder opened it.
func (r *WavRecorder) Close() error {
	err := r.err
	if cerr := r.enc.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "finalising wav file")
	}
	if r.closer != nil {
		if cerr := r.closer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing wav file")
		}
	}

	slog.Debug("Audio recording closed", "frames", r.frames, "beeping", r.beeps)
	return err
}
