package cpu

import (
	"errors"
	"fmt"

	"github.com/fistaco/rustychippydragoman/chippy/memory"
)

// Errors returned by the interpreter. None of them is fatal to the process;
// the host decides whether to halt, report or ignore them. They are
// deterministic: repeating the same call on the same state fails the same way.
var (
	ErrRomTooLarge       = memory.ErrROMTooLarge
	ErrMemoryOutOfBounds = memory.ErrOutOfBounds
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrInvalidDimensions = errors.New("invalid screen dimensions")
	ErrInvalidRate       = errors.New("invalid instructions per second")
)

// UnknownOpcodeError carries the opcode that matched no instruction pattern
// and the address it was fetched from.
type UnknownOpcodeError struct {
	Opcode  uint16
	Address uint16
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%04X at 0x%04X", e.Opcode, e.Address)
}

func (e *UnknownOpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}
