package cpu

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/fistaco/rustychippydragoman/chippy/memory"
	"github.com/fistaco/rustychippydragoman/chippy/timing"
	"github.com/fistaco/rustychippydragoman/chippy/video"
)

const (
	RegisterCount   = 16
	StackDepth      = 16
	KeyCount        = 16
	InstructionSize = 2

	// flagRegister is VF, the carry, borrow, shift-out and collision flag.
	flagRegister = 0xF
)

// Keys is the state of the 16 key hexadecimal keypad, indexed by key value.
type Keys = [KeyCount]bool

// CPU holds the whole CHIP-8 machine state and executes instructions.
// It never blocks and owns no goroutines: the host calls Step and
// TickTimers (or Advance) at its own cadence.
type CPU struct {
	// registers
	v  [RegisterCount]uint8
	i  uint16
	pc uint16

	stack [StackDepth]uint16
	sp    int

	delayTimer uint8
	soundTimer uint8
	beeping    bool

	mem   *memory.RAM
	frame *video.FrameBuffer
	drawn bool // the frame changed since the last ClearDrawn

	// configuration
	quirks  Quirks
	random  func() uint8
	logger  *slog.Logger
	cadence *timing.Cadence

	// metadata
	currentOpcode uint16
	instructions  uint64
}

// Option configures a CPU at construction.
type Option func(*CPU)

// WithQuirks selects the historical behaviour of ambiguous instructions.
func WithQuirks(q Quirks) Option { return func(c *CPU) { c.quirks = q } }

// WithRandom replaces the random byte source used by Cxkk.
func WithRandom(random func() uint8) Option { return func(c *CPU) { c.random = random } }

// WithLogger sets the logger used for load and trace messages.
func WithLogger(logger *slog.Logger) Option { return func(c *CPU) { c.logger = logger } }

// New returns a CPU with a width x height display running
// instructionsPerSecond instructions per second when driven by Advance.
// Memory holds only the font set and PC points at the program start.
func New(width, height, instructionsPerSecond int, opts ...Option) (*CPU, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if instructionsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, instructionsPerSecond)
	}

	c := &CPU{
		mem:     memory.New(),
		frame:   video.NewFrameBuffer(width, height),
		random:  func() uint8 { return uint8(rand.IntN(256)) },
		logger:  slog.Default(),
		cadence: timing.NewCadence(instructionsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()

	return c, nil
}

// LoadROM copies rom into memory at 0x200 and resets every other piece of
// state to its construction default, so a fresh load always starts a clean
// run. A ROM larger than 3584 bytes fails with ErrRomTooLarge and leaves the
// CPU untouched.
func (c *CPU) LoadROM(rom []byte) error {
	if err := c.mem.LoadROM(rom); err != nil {
		return err
	}
	c.reset()

	c.logger.Info("Loaded ROM", "bytes", len(rom), "at", fmt.Sprintf("0x%03X", memory.ProgramStart))
	return nil
}

// reset puts everything but memory back to the construction defaults.
func (c *CPU) reset() {
	c.v = [RegisterCount]uint8{}
	c.i = 0
	c.pc = memory.ProgramStart
	c.stack = [StackDepth]uint16{}
	c.sp = 0
	c.delayTimer = 0
	c.soundTimer = 0
	c.beeping = false
	c.frame.Clear()
	c.drawn = true
	c.currentOpcode = 0
	c.instructions = 0
	c.cadence.Reset()
}

// Step executes a single instruction: fetch the opcode at PC, advance PC by
// two, decode and execute. keys is the keypad state for this instruction.
// On error PC is left pointing at the failing instruction.
func (c *CPU) Step(keys Keys) error {
	opcode, err := c.mem.ReadWord(c.pc)
	if err != nil {
		return fmt.Errorf("fetch at 0x%04X: %w", c.pc, err)
	}

	instr := Decode(opcode)
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("exec",
			"pc", fmt.Sprintf("0x%04X", c.pc),
			"opcode", fmt.Sprintf("0x%04X", opcode),
			"instr", instr.String())
	}

	c.currentOpcode = opcode
	c.pc += InstructionSize

	// A failing instruction changes nothing but the current opcode, so the
	// same call on the same state fails again the same way.
	if err := c.execute(instr, keys); err != nil {
		c.pc -= InstructionSize
		return err
	}
	c.instructions++
	return nil
}

func (c *CPU) String() string {
	return fmt.Sprintf("[PC: 0x%04X, I: 0x%04X, SP: %d, DT: %d, ST: %d]", c.pc, c.i, c.sp, c.delayTimer, c.soundTimer)
}

func (c *CPU) PC() uint16                      { return c.pc }
func (c *CPU) Index() uint16                   { return c.i }
func (c *CPU) Register(x uint8) uint8          { return c.v[x&0x0F] }
func (c *CPU) Registers() [RegisterCount]uint8 { return c.v }
func (c *CPU) DelayTimer() uint8               { return c.delayTimer }
func (c *CPU) SoundTimer() uint8               { return c.soundTimer }
func (c *CPU) StackDepth() int                 { return c.sp }
func (c *CPU) CurrentOpcode() uint16           { return c.currentOpcode }
func (c *CPU) Instructions() uint64            { return c.instructions }
func (c *CPU) InstructionsPerSecond() int      { return c.cadence.Rate() }
func (c *CPU) Quirks() Quirks                  { return c.quirks }

// Stack returns a copy of the return addresses, oldest first.
func (c *CPU) Stack() []uint16 {
	out := make([]uint16, c.sp)
	copy(out, c.stack[:c.sp])
	return out
}

// Frame returns the live framebuffer. Display sinks must treat it as
// read-only; it is only valid until the next Step.
func (c *CPU) Frame() *video.FrameBuffer { return c.frame }

// Snapshot returns a copy of the framebuffer as rows of 0/1 pixels.
func (c *CPU) Snapshot() [][]uint8 { return c.frame.Rows() }

// Drawn reports whether CLS or DRW changed the frame since the last
// ClearDrawn call.
func (c *CPU) Drawn() bool { return c.drawn }

// ClearDrawn acknowledges the current frame.
func (c *CPU) ClearDrawn() { c.drawn = false }

// ReadMemory returns the byte at address.
func (c *CPU) ReadMemory(address uint16) (byte, error) {
	return c.mem.Read(address)
}
