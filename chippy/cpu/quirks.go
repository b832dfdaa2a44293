package cpu

// Quirks selects between behaviours that differ across historical CHIP-8
// interpreters. The zero value is the default convention of this
// interpreter:
//
//   - 8xy6/8xyE shift Vx in place and ignore Vy
//   - Fx55/Fx65 leave I unchanged
//   - sprites wrap around the screen edges
//   - 8xy1/8xy2/8xy3 leave VF untouched
//
// Test ROM corpora written for the COSMAC VIP expect the opposite of every
// one of these, so each can be flipped on its own.
type Quirks struct {
	// ShiftUsesVY makes 8xy6/8xyE shift Vy and store the result in Vx.
	ShiftUsesVY bool
	// IndexIncrement makes Fx55/Fx65 leave I pointing past the last byte.
	IndexIncrement bool
	// ClipSprites drops sprite pixels past the right and bottom edges
	// instead of wrapping them. The sprite origin always wraps.
	ClipSprites bool
	// ResetVF makes the bitwise 8xy1/8xy2/8xy3 instructions clear VF.
	ResetVF bool
}

// VIPQuirks returns the behaviour of the original COSMAC VIP interpreter.
func VIPQuirks() Quirks {
	return Quirks{
		ShiftUsesVY:    true,
		IndexIncrement: true,
		ClipSprites:    true,
		ResetVF:        true,
	}
}
