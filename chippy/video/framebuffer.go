package video

import "strings"

// The original COSMAC VIP interpreter used a 64x32 monochrome display.
const (
	DefaultWidth  = 64
	DefaultHeight = 32
)

// Pixel values stored in a FrameBuffer.
const (
	PixelOff uint8 = 0
	PixelOn  uint8 = 1
)

// FrameBuffer is a monochrome display stored as a single flat, row-major
// slice. Its dimensions are fixed at creation.
type FrameBuffer struct {
	width  int
	height int
	buffer []uint8
}

// NewFrameBuffer creates a frame buffer with the specified size. Callers
// validate the dimensions, non-positive values yield an empty buffer.
func NewFrameBuffer(width, height int) *FrameBuffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}

	return &FrameBuffer{
		width:  width,
		height: height,
		buffer: make([]uint8, width*height),
	}
}

func (fb *FrameBuffer) Width() int  { return fb.width }
func (fb *FrameBuffer) Height() int { return fb.height }

// InBounds reports whether (x, y) addresses a cell of the buffer.
func (fb *FrameBuffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.width && y < fb.height
}

// GetPixel returns the pixel at column x, row y. Out of range reads are off.
func (fb *FrameBuffer) GetPixel(x, y int) uint8 {
	if !fb.InBounds(x, y) {
		return PixelOff
	}
	return fb.buffer[y*fb.width+x]
}

// SetPixel sets the pixel at column x, row y. Out of range writes are dropped.
func (fb *FrameBuffer) SetPixel(x, y int, value uint8) {
	if !fb.InBounds(x, y) {
		return
	}
	fb.buffer[y*fb.width+x] = value & 1
}

// Flip XORs the pixel at column x, row y with 1 and reports whether the
// pixel was on before, i.e. whether it was erased.
func (fb *FrameBuffer) Flip(x, y int) (erased bool) {
	if !fb.InBounds(x, y) {
		return false
	}
	idx := y*fb.width + x
	erased = fb.buffer[idx] == PixelOn
	fb.buffer[idx] ^= 1
	return erased
}

// Clear turns every pixel off. The buffer keeps its size and backing array.
func (fb *FrameBuffer) Clear() {
	clear(fb.buffer)
}

// ToSlice exposes the backing row-major buffer. Treat it as read-only.
func (fb *FrameBuffer) ToSlice() []uint8 {
	return fb.buffer
}

// Rows returns a copy of the buffer as a slice of rows, addressed [row][col].
func (fb *FrameBuffer) Rows() [][]uint8 {
	rows := make([][]uint8, fb.height)
	for y := range rows {
		row := make([]uint8, fb.width)
		copy(row, fb.buffer[y*fb.width:(y+1)*fb.width])
		rows[y] = row
	}
	return rows
}

// Lit returns the number of pixels that are on.
func (fb *FrameBuffer) Lit() int {
	n := 0
	for _, p := range fb.buffer {
		n += int(p)
	}
	return n
}

// String renders the buffer one line per row, '#' for on and '.' for off.
func (fb *FrameBuffer) String() string {
	var sb strings.Builder
	sb.Grow((fb.width + 1) * fb.height)
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			if fb.buffer[y*fb.width+x] == PixelOn {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
