package cpu

import (
	"fmt"

	"github.com/fistaco/rustychippydragoman/chippy/bit"
	"github.com/fistaco/rustychippydragoman/chippy/memory"
)

// execute applies a decoded instruction. PC already points past it.
func (c *CPU) execute(in Instruction, keys Keys) error {
	x, y := in.X, in.Y

	switch in.Op {
	case OpSys:
		// machine code routines of the original hardware are ignored.
	case OpCls:
		c.frame.Clear()
		c.drawn = true
	case OpRet:
		return c.ret()
	case OpJump:
		c.pc = in.NNN
	case OpCall:
		return c.call(in.NNN)
	case OpSkipEqImm:
		c.skipIf(c.v[x] == in.KK)
	case OpSkipNeImm:
		c.skipIf(c.v[x] != in.KK)
	case OpSkipEqReg:
		c.skipIf(c.v[x] == c.v[y])
	case OpLoadImm:
		c.v[x] = in.KK
	case OpAddImm:
		// carry flag is not changed
		c.v[x] += in.KK
	case OpMove:
		c.v[x] = c.v[y]
	case OpOr:
		c.v[x] |= c.v[y]
		c.bitwiseFlag()
	case OpAnd:
		c.v[x] &= c.v[y]
		c.bitwiseFlag()
	case OpXor:
		c.v[x] ^= c.v[y]
		c.bitwiseFlag()
	case OpAdd:
		sum, carry := bit.CheckedAdd(c.v[x], c.v[y])
		c.setWithFlag(x, sum, carry)
	case OpSub:
		diff, borrow := bit.CheckedSub(c.v[x], c.v[y])
		c.setWithFlag(x, diff, !borrow)
	case OpSubN:
		diff, borrow := bit.CheckedSub(c.v[y], c.v[x])
		c.setWithFlag(x, diff, !borrow)
	case OpShr:
		src := c.shiftSource(x, y)
		c.setWithFlag(x, src>>1, bit.IsSet(0, src))
	case OpShl:
		src := c.shiftSource(x, y)
		c.setWithFlag(x, src<<1, bit.IsSet(7, src))
	case OpSkipNeReg:
		c.skipIf(c.v[x] != c.v[y])
	case OpLoadIndex:
		c.i = in.NNN
	case OpJumpV0:
		c.pc = in.NNN + uint16(c.v[0])
	case OpRandom:
		c.v[x] = c.random() & in.KK
	case OpDraw:
		return c.draw(x, y, in.N)
	case OpSkipKey:
		c.skipIf(keys[c.v[x]&0x0F])
	case OpSkipNoKey:
		c.skipIf(!keys[c.v[x]&0x0F])
	case OpLoadDelay:
		c.v[x] = c.delayTimer
	case OpWaitKey:
		c.waitKey(x, keys)
	case OpSetDelay:
		c.delayTimer = c.v[x]
	case OpSetSound:
		c.soundTimer = c.v[x]
	case OpAddIndex:
		c.i += uint16(c.v[x])
	case OpFont:
		c.i = memory.FontAddress(c.v[x])
	case OpBCD:
		hundreds, tens, ones := bit.BCD(c.v[x])
		if err := c.mem.Store(c.i, []byte{hundreds, tens, ones}); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	case OpStore:
		if err := c.mem.Store(c.i, c.v[:x+1]); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		c.advanceIndex(x)
	case OpLoad:
		data, err := c.mem.View(c.i, int(x)+1)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		copy(c.v[:], data)
		c.advanceIndex(x)
	default:
		return &UnknownOpcodeError{Opcode: in.Opcode, Address: c.pc - InstructionSize}
	}

	return nil
}

// call pushes the return address (PC already past the CALL) and jumps.
func (c *CPU) call(address uint16) error {
	if c.sp >= StackDepth {
		return fmt.Errorf("%w: CALL 0x%03X at 0x%04X with %d nested calls", ErrStackOverflow, address, c.pc-InstructionSize, c.sp)
	}
	c.stack[c.sp] = c.pc
	c.sp++
	c.pc = address
	return nil
}

func (c *CPU) ret() error {
	if c.sp == 0 {
		return fmt.Errorf("%w: RET at 0x%04X", ErrStackUnderflow, c.pc-InstructionSize)
	}
	c.sp--
	c.pc = c.stack[c.sp]
	return nil
}

// skipIf skips the next instruction when cond holds. This comes on top of
// the regular PC increment done by Step.
func (c *CPU) skipIf(cond bool) {
	if cond {
		c.pc += InstructionSize
	}
}

// setWithFlag writes the result first and VF last, so that when the
// destination is VF itself the flag wins.
func (c *CPU) setWithFlag(x, value uint8, flag bool) {
	c.v[x] = value
	c.v[flagRegister] = boolToBit(flag)
}

func (c *CPU) bitwiseFlag() {
	if c.quirks.ResetVF {
		c.v[flagRegister] = 0
	}
}

func (c *CPU) shiftSource(x, y uint8) uint8 {
	if c.quirks.ShiftUsesVY {
		return c.v[y]
	}
	return c.v[x]
}

func (c *CPU) advanceIndex(x uint8) {
	if c.quirks.IndexIncrement {
		c.i += uint16(x) + 1
	}
}

// waitKey stores the lowest pressed key in Vx. With no key down, PC is
// rewound so the same instruction runs again on the next step; timers keep
// running in the meantime.
func (c *CPU) waitKey(x uint8, keys Keys) {
	for key, pressed := range keys {
		if pressed {
			c.v[x] = uint8(key)
			return
		}
	}
	c.pc -= InstructionSize
}

// draw XORs an 8 pixel wide, n rows tall sprite read from I onto the frame
// at (Vx, Vy) and sets VF when any lit pixel was erased.
func (c *CPU) draw(x, y, rows uint8) error {
	sprite, err := c.mem.View(c.i, int(rows))
	if err != nil {
		return fmt.Errorf("DRW sprite at 0x%04X: %w", c.i, err)
	}

	width, height := c.frame.Width(), c.frame.Height()
	originX := int(c.v[x]) % width
	originY := int(c.v[y]) % height
	collision := false

	for row, line := range sprite {
		py := originY + row
		if py >= height {
			if c.quirks.ClipSprites {
				break
			}
			py %= height
		}

		for col := 0; col < 8; col++ {
			if !bit.IsSet(uint8(7-col), line) {
				continue
			}
			px := originX + col
			if px >= width {
				if c.quirks.ClipSprites {
					break
				}
				px %= width
			}
			if c.frame.Flip(px, py) {
				collision = true
			}
		}
	}

	c.v[flagRegister] = boolToBit(collision)
	c.drawn = true
	return nil
}

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
