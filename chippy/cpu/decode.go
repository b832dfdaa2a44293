package cpu

import (
	"fmt"

	"github.com/fistaco/rustychippydragoman/chippy/bit"
)

// Op identifies one of the CHIP-8 instructions.
type Op uint8

const (
	OpUnknown   Op = iota
	OpSys          // 0nnn
	OpCls          // 00E0
	OpRet          // 00EE
	OpJump         // 1nnn
	OpCall         // 2nnn
	OpSkipEqImm    // 3xkk
	OpSkipNeImm    // 4xkk
	OpSkipEqReg    // 5xy0
	OpLoadImm      // 6xkk
	OpAddImm       // 7xkk
	OpMove         // 8xy0
	OpOr           // 8xy1
	OpAnd          // 8xy2
	OpXor          // 8xy3
	OpAdd          // 8xy4
	OpSub          // 8xy5
	OpShr          // 8xy6
	OpSubN         // 8xy7
	OpShl          // 8xyE
	OpSkipNeReg    // 9xy0
	OpLoadIndex    // Annn
	OpJumpV0       // Bnnn
	OpRandom       // Cxkk
	OpDraw         // Dxyn
	OpSkipKey      // Ex9E
	OpSkipNoKey    // ExA1
	OpLoadDelay    // Fx07
	OpWaitKey      // Fx0A
	OpSetDelay     // Fx15
	OpSetSound     // Fx18
	OpAddIndex     // Fx1E
	OpFont         // Fx29
	OpBCD          // Fx33
	OpStore        // Fx55
	OpLoad         // Fx65

	opCount
)

var opNames = [opCount]string{
	"???", "SYS", "CLS", "RET", "JP", "CALL", "SE", "SNE", "SE", "LD", "ADD",
	"LD", "OR", "AND", "XOR", "ADD", "SUB", "SHR", "SUBN", "SHL", "SNE",
	"LD", "JP", "RND", "DRW", "SKP", "SKNP",
	"LD", "LD", "LD", "LD", "ADD", "LD", "LD", "LD", "LD",
}

// String returns the mnemonic of the instruction.
func (o Op) String() string {
	if o >= opCount {
		return opNames[OpUnknown]
	}
	return opNames[o]
}

// Instruction is a decoded opcode: the operation and every operand field.
// Fields that the operation does not use are still filled in from the
// opcode bits.
type Instruction struct {
	Op     Op
	Opcode uint16
	X      uint8  // second nibble, register index
	Y      uint8  // third nibble, register index
	N      uint8  // lowest nibble
	KK     uint8  // low byte
	NNN    uint16 // low 12 bits, address
}

// Decode maps an opcode to its instruction. It never fails: opcodes that
// match no pattern decode to OpUnknown, which the CPU reports as an error
// when executed.
func Decode(opcode uint16) Instruction {
	return Instruction{
		Op:     decodeOp(opcode),
		Opcode: opcode,
		X:      bit.Nibble(opcode, 2),
		Y:      bit.Nibble(opcode, 1),
		N:      bit.Nibble(opcode, 0),
		KK:     bit.Low(opcode),
		NNN:    bit.Address(opcode),
	}
}

func decodeOp(opcode uint16) Op {
	n := bit.Nibble(opcode, 0)
	kk := bit.Low(opcode)

	switch bit.Nibble(opcode, 3) {
	case 0x0:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}
		return OpSys
	case 0x1:
		return OpJump
	case 0x2:
		return OpCall
	case 0x3:
		return OpSkipEqImm
	case 0x4:
		return OpSkipNeImm
	case 0x5:
		if n == 0x0 {
			return OpSkipEqReg
		}
	case 0x6:
		return OpLoadImm
	case 0x7:
		return OpAddImm
	case 0x8:
		switch n {
		case 0x0:
			return OpMove
		case 0x1:
			return OpOr
		case 0x2:
			return OpAnd
		case 0x3:
			return OpXor
		case 0x4:
			return OpAdd
		case 0x5:
			return OpSub
		case 0x6:
			return OpShr
		case 0x7:
			return OpSubN
		case 0xE:
			return OpShl
		}
	case 0x9:
		if n == 0x0 {
			return OpSkipNeReg
		}
	case 0xA:
		return OpLoadIndex
	case 0xB:
		return OpJumpV0
	case 0xC:
		return OpRandom
	case 0xD:
		return OpDraw
	case 0xE:
		switch kk {
		case 0x9E:
			return OpSkipKey
		case 0xA1:
			return OpSkipNoKey
		}
	case 0xF:
		switch kk {
		case 0x07:
			return OpLoadDelay
		case 0x0A:
			return OpWaitKey
		case 0x15:
			return OpSetDelay
		case 0x18:
			return OpSetSound
		case 0x1E:
			return OpAddIndex
		case 0x29:
			return OpFont
		case 0x33:
			return OpBCD
		case 0x55:
			return OpStore
		case 0x65:
			return OpLoad
		}
	}

	return OpUnknown
}

// String formats the instruction in the usual CHIP-8 assembly notation,
// e.g. "LD V3, 0x2A" or "DRW V0, V1, 5".
func (in Instruction) String() string {
	name := in.Op.String()

	switch in.Op {
	case OpCls, OpRet:
		return name
	case OpSys, OpJump, OpCall:
		return fmt.Sprintf("%s 0x%03X", name, in.NNN)
	case OpSkipEqImm, OpSkipNeImm, OpLoadImm, OpAddImm:
		return fmt.Sprintf("%s V%X, 0x%02X", name, in.X, in.KK)
	case OpSkipEqReg, OpSkipNeReg, OpMove, OpOr, OpAnd, OpXor, OpAdd, OpSub, OpShr, OpSubN, OpShl:
		return fmt.Sprintf("%s V%X, V%X", name, in.X, in.Y)
	case OpLoadIndex:
		return fmt.Sprintf("%s I, 0x%03X", name, in.NNN)
	case OpJumpV0:
		return fmt.Sprintf("%s V0, 0x%03X", name, in.NNN)
	case OpRandom:
		return fmt.Sprintf("%s V%X, 0x%02X", name, in.X, in.KK)
	case OpDraw:
		return fmt.Sprintf("%s V%X, V%X, %d", name, in.X, in.Y, in.N)
	case OpSkipKey, OpSkipNoKey:
		return fmt.Sprintf("%s V%X", name, in.X)
	case OpLoadDelay:
		return fmt.Sprintf("%s V%X, DT", name, in.X)
	case OpWaitKey:
		return fmt.Sprintf("%s V%X, K", name, in.X)
	case OpSetDelay:
		return fmt.Sprintf("%s DT, V%X", name, in.X)
	case OpSetSound:
		return fmt.Sprintf("%s ST, V%X", name, in.X)
	case OpAddIndex:
		return fmt.Sprintf("%s I, V%X", name, in.X)
	case OpFont:
		return fmt.Sprintf("%s F, V%X", name, in.X)
	case OpBCD:
		return fmt.Sprintf("%s B, V%X", name, in.X)
	case OpStore:
		return fmt.Sprintf("%s [I], V%X", name, in.X)
	case OpLoad:
		return fmt.Sprintf("%s V%X, [I]", name, in.X)
	}

	return fmt.Sprintf("%s 0x%04X", name, in.Opcode)
}
