package chippy

import (
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/pkg/errors"

	"github.com/fistaco/rustychippydragoman/chippy/cpu"
	"github.com/fistaco/rustychippydragoman/chippy/input"
	"github.com/fistaco/rustychippydragoman/chippy/input/action"
	"github.com/fistaco/rustychippydragoman/chippy/input/event"
	"github.com/fistaco/rustychippydragoman/chippy/timing"
	"github.com/fistaco/rustychippydragoman/chippy/video"
)

// DefaultInstructionsPerSecond is a speed most CHIP-8 games play well at.
const DefaultInstructionsPerSecond = 700

// Config holds the machine configuration.
type Config struct {
	Width                 int
	Height                int
	InstructionsPerSecond int
	Quirks                cpu.Quirks
	// Seed makes Cxkk deterministic when non-zero.
	Seed uint64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a 64x32 machine at DefaultInstructionsPerSecond.
func DefaultConfig() Config {
	return Config{
		Width:                 video.DefaultWidth,
		Height:                video.DefaultHeight,
		InstructionsPerSecond: DefaultInstructionsPerSecond,
	}
}

// Emulator represents the root struct and entry point for running the
// emulation: it ties the interpreter to the keypad state fed by the host
// and advances it one 60 Hz frame at a time.
type Emulator struct {
	cpu    *cpu.CPU
	input  *input.Manager
	config Config
	logger *slog.Logger
	rom    []byte
	frames uint64

	host *runner // bound to input on the first Run
}

// New creates an emulator with no program loaded.
func New(config Config) (*Emulator, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []cpu.Option{cpu.WithQuirks(config.Quirks), cpu.WithLogger(logger)}
	if config.Seed != 0 {
		rng := rand.New(rand.NewPCG(config.Seed, config.Seed))
		opts = append(opts, cpu.WithRandom(func() uint8 { return uint8(rng.IntN(256)) }))
	}

	c, err := cpu.New(config.Width, config.Height, config.InstructionsPerSecond, opts...)
	if err != nil {
		return nil, err
	}

	return &Emulator{
		cpu:    c,
		input:  input.NewManager(),
		config: config,
		logger: logger,
	}, nil
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string, config Config) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ROM %s", path)
	}

	e, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := e.LoadROM(data); err != nil {
		return nil, errors.Wrapf(err, "loading ROM %s", path)
	}

	return e, nil
}

// LoadROM loads a program and resets the machine. The bytes are kept so
// Reset can restart the program.
func (e *Emulator) LoadROM(rom []byte) error {
	if err := e.cpu.LoadROM(rom); err != nil {
		return err
	}
	e.rom = append(e.rom[:0], rom...)
	e.frames = 0
	return nil
}

// Reset restarts the loaded program from a clean machine with every keypad
// key released.
func (e *Emulator) Reset() error {
	e.logger.Info("Resetting emulator")
	e.input.ReleaseAll()
	return e.LoadROM(append([]byte(nil), e.rom...))
}

// RunUntilFrame emulates one 60 Hz frame: the instructions and the timer
// tick that fall due in 1/60 s, with the current keypad state. Every frame
// holds exactly one timer tick.
func (e *Emulator) RunUntilFrame() error {
	_, err := e.cpu.Advance(timing.FrameSpan(e.frames), e.input.Keys())
	e.frames++
	return err
}

// HandleAction presses or releases a keypad key, or triggers an emulator
// action, as if it came from a backend.
func (e *Emulator) HandleAction(act action.Action, pressed bool) {
	if pressed {
		e.input.Trigger(act, event.Press)
	} else {
		e.input.Trigger(act, event.Release)
	}
}

// GetCurrentFrame returns the live framebuffer.
func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.cpu.Frame()
}

// Beeping reports whether the beeper sounded during the last frame.
func (e *Emulator) Beeping() bool {
	return e.cpu.Beeping()
}

// CPU exposes the interpreter for inspection.
func (e *Emulator) CPU() *cpu.CPU {
	return e.cpu
}

// Input returns the keypad and action dispatcher fed by the host.
func (e *Emulator) Input() *input.Manager {
	return e.input
}

// Frames returns the number of frames emulated since the last load.
func (e *Emulator) Frames() uint64 {
	return e.frames
}

// Config returns the configuration the emulator was built with.
func (e *Emulator) Config() Config {
	return e.config
}
