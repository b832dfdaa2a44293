package cpu

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fistaco/rustychippydragoman/chippy/memory"
	"github.com/fistaco/rustychippydragoman/chippy/video"
)

// assemble encodes opcodes big-endian, the way they sit in a ROM.
func assemble(opcodes ...uint16) []byte {
	rom := make([]byte, 0, len(opcodes)*2)
	for _, op := range opcodes {
		rom = append(rom, byte(op>>8), byte(op))
	}
	return rom
}

// newTestCPU returns a 64x32 CPU with the given program loaded.
func newTestCPU(t *testing.T, opts []Option, opcodes ...uint16) *CPU {
	t.Helper()

	c, err := New(video.DefaultWidth, video.DefaultHeight, 700, opts...)
	require.NoError(t, err)
	require.NoError(t, c.LoadROM(assemble(opcodes...)))
	return c
}

// run executes n instructions with no key pressed.
func run(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Step(Keys{}), "step %d at %s", i, c)
	}
}

func TestNew(t *testing.T) {
	c, err := New(64, 32, 700)
	require.NoError(t, err)

	assert.Equal(t, uint16(memory.ProgramStart), c.PC())
	assert.Equal(t, uint16(0), c.Index())
	assert.Equal(t, 0, c.StackDepth())
	assert.Equal(t, 700, c.InstructionsPerSecond())
	assert.Equal(t, Quirks{}, c.Quirks())
	assert.Equal(t, 64, c.Frame().Width())
	assert.Equal(t, 32, c.Frame().Height())

	b, err := c.ReadMemory(memory.FontStart)
	require.NoError(t, err)
	assert.Equal(t, byte(0xF0), b, "font glyph 0 starts at 0x050")
}

func TestNew_Errors(t *testing.T) {
	testCases := []struct {
		desc   string
		width  int
		height int
		ips    int
		want   error
	}{
		{desc: "zero width", width: 0, height: 32, ips: 700, want: ErrInvalidDimensions},
		{desc: "negative height", width: 64, height: -1, ips: 700, want: ErrInvalidDimensions},
		{desc: "zero rate", width: 64, height: 32, ips: 0, want: ErrInvalidRate},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			c, err := New(tC.width, tC.height, tC.ips)
			assert.ErrorIs(t, err, tC.want)
			assert.Nil(t, c)
		})
	}
}

func TestCPU_LoadROMFetchesFirstOpcode(t *testing.T) {
	roms := [][]byte{
		{0x60, 0x2A},
		{0x12, 0x00, 0xFF},
		{0xA2, 0x34, 0x00, 0x00},
	}
	for _, rom := range roms {
		c, err := New(64, 32, 700)
		require.NoError(t, err)
		require.NoError(t, c.LoadROM(rom))

		_ = c.Step(Keys{})
		assert.Equal(t, uint16(rom[0])<<8|uint16(rom[1]), c.CurrentOpcode())
	}
}

func TestCPU_LoadROMIsIdempotent(t *testing.T) {
	rom := assemble(0x6105, 0xF115, 0xF118, 0x2208, 0x00E0, 0xA300, 0xD015)

	c := newTestCPU(t, nil)
	require.NoError(t, c.LoadROM(rom))
	run(t, c, 4)
	require.NotEqual(t, uint16(memory.ProgramStart), c.PC())

	require.NoError(t, c.LoadROM(rom))
	first := c.String()
	firstRegs := c.Registers()
	firstMem := c.mem.Dump()

	require.NoError(t, c.LoadROM(rom))
	assert.Equal(t, first, c.String())
	assert.Equal(t, firstRegs, c.Registers())
	assert.Equal(t, firstMem, c.mem.Dump())
	assert.Equal(t, uint16(memory.ProgramStart), c.PC())
	assert.Equal(t, uint8(0), c.DelayTimer())
	assert.Equal(t, uint8(0), c.SoundTimer())
	assert.Empty(t, c.Stack())
	assert.Equal(t, uint64(0), c.Instructions())
}

func TestCPU_LoadROMTooLarge(t *testing.T) {
	c := newTestCPU(t, nil, 0x6001)
	run(t, c, 1)

	err := c.LoadROM(make([]byte, memory.MaxROMSize+1))
	assert.ErrorIs(t, err, ErrRomTooLarge)
	assert.Equal(t, uint8(1), c.Register(0), "failed load leaves state alone")
	assert.Equal(t, uint16(0x202), c.PC())
}

func TestCPU_LoadROMLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestCPU(t, []Option{WithLogger(logger)}, 0x6001)
	assert.Contains(t, buf.String(), "Loaded ROM")

	run(t, c, 1)
	assert.Contains(t, buf.String(), "LD V0, 0x01")
}

func TestCPU_FetchOutOfBounds(t *testing.T) {
	c := newTestCPU(t, nil, 0x1FFF) // JP 0xFFF
	run(t, c, 1)
	require.Equal(t, uint16(0xFFF), c.PC())

	err := c.Step(Keys{})
	assert.ErrorIs(t, err, ErrMemoryOutOfBounds)
	assert.Equal(t, uint16(0xFFF), c.PC())
}

func TestCPU_FailedStepIsRepeatable(t *testing.T) {
	c := newTestCPU(t, nil, 0x6007, 0xE000)
	run(t, c, 1)

	first := c.Step(Keys{})
	second := c.Step(Keys{})

	var unknown *UnknownOpcodeError
	require.ErrorAs(t, first, &unknown)
	assert.Equal(t, uint16(0xE000), unknown.Opcode)
	assert.Equal(t, uint16(0x202), unknown.Address)
	assert.ErrorIs(t, first, ErrUnknownOpcode)
	assert.Equal(t, first.Error(), second.Error())
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Equal(t, uint64(1), c.Instructions())
}

func TestCPU_Stack(t *testing.T) {
	c := newTestCPU(t, nil,
		0x2204, // 0x200 CALL 0x204
		0x1202, // 0x202 JP 0x202
		0x2208, // 0x204 CALL 0x208
		0x00EE, // 0x206 RET
		0x00EE, // 0x208 RET
	)

	run(t, c, 2)
	assert.Equal(t, []uint16{0x202, 0x206}, c.Stack())

	run(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC())
	assert.Equal(t, []uint16{0x202}, c.Stack())
}
