package memory

import (
	"errors"
	"fmt"

	"github.com/fistaco/rustychippydragoman/chippy/bit"
)

// Memory map:
//
//	0x000-0x04F  reserved (interpreter area, unused)
//	0x050-0x09F  built-in hexadecimal font, 16 glyphs of 5 bytes
//	0x0A0-0x1FF  reserved
//	0x200-0xFFF  program ROM and work RAM
const (
	Size         = 4096
	ProgramStart = 0x200
	MaxROMSize   = Size - ProgramStart

	FontStart     = 0x050
	FontGlyphSize = 5
)

var (
	// ErrOutOfBounds is returned for any access at or past Size.
	ErrOutOfBounds = errors.New("memory access out of bounds")
	// ErrROMTooLarge is returned when a ROM does not fit past ProgramStart.
	ErrROMTooLarge = errors.New("rom too large")
)

// RAM is the 4KB CHIP-8 address space. Every access is bounds-checked,
// addresses never wrap around.
type RAM struct {
	data [Size]byte
}

// New returns zeroed memory with the font set loaded.
func New() *RAM {
	m := &RAM{}
	m.Reset()
	return m
}

// Reset zeroes the whole address space and reloads the font set.
func (m *RAM) Reset() {
	clear(m.data[:])
	copy(m.data[FontStart:], fontSet[:])
}

// LoadROM resets memory and copies rom into it starting at ProgramStart.
// On error memory is left untouched.
func (m *RAM) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	m.Reset()
	copy(m.data[ProgramStart:], rom)
	return nil
}

func (m *RAM) Read(address uint16) (byte, error) {
	if int(address) >= Size {
		return 0, outOfBounds(int(address))
	}
	return m.data[address], nil
}

func (m *RAM) Write(address uint16, value byte) error {
	if int(address) >= Size {
		return outOfBounds(int(address))
	}
	m.data[address] = value
	return nil
}

// ReadWord returns the big-endian word at address and address+1.
func (m *RAM) ReadWord(address uint16) (uint16, error) {
	if int(address)+1 >= Size {
		return 0, outOfBounds(int(address) + 1)
	}
	return bit.Combine(m.data[address], m.data[address+1]), nil
}

// View returns the n bytes starting at address. The returned slice aliases
// memory and must not be retained or modified by the caller.
func (m *RAM) View(address uint16, n int) ([]byte, error) {
	end := int(address) + n
	if end > Size {
		return nil, outOfBounds(end - 1)
	}
	return m.data[address:end], nil
}

// Store copies data into memory starting at address. Nothing is written
// unless the whole range fits.
func (m *RAM) Store(address uint16, data []byte) error {
	end := int(address) + len(data)
	if end > Size {
		return outOfBounds(end - 1)
	}
	copy(m.data[address:end], data)
	return nil
}

// Dump returns a copy of the whole address space.
func (m *RAM) Dump() []byte {
	out := make([]byte, Size)
	copy(out, m.data[:])
	return out
}

// FontAddress returns the address of the glyph for the low nibble of digit.
func FontAddress(digit uint8) uint16 {
	return FontStart + uint16(digit&0x0F)*FontGlyphSize
}

func outOfBounds(address int) error {
	return fmt.Errorf("%w: 0x%04X", ErrOutOfBounds, address)
}
