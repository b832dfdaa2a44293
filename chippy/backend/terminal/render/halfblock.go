package render

// Terminal cells are roughly twice as tall as wide, so each cell shows two
// vertically stacked CHIP-8 pixels.
const (
	BlockEmpty = ' '
	BlockUpper = '▀'
	BlockLower = '▄'
	BlockFull  = '█'
)

// HalfBlock returns the glyph showing the top and bottom pixel of a cell
// in the foreground colour.
func HalfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return BlockFull
	case top:
		return BlockUpper
	case bottom:
		return BlockLower
	default:
		return BlockEmpty
	}
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width > 3 {
		return string(runes[:width-3]) + "..."
	}
	if width > 0 {
		return string(runes[:width])
	}
	return ""
}
