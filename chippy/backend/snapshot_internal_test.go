package backend

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fistaco/rustychippydragoman/chippy/video"
)

// bufferCloser collects the written bytes and fails Close with closeErr.
type bufferCloser struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return b.closeErr
}

func TestWritePNG(t *testing.T) {
	frame := video.NewFrameBuffer(video.DefaultWidth, video.DefaultHeight)
	frame.SetPixel(3, 4, video.PixelOn)

	w := &bufferCloser{}
	require.NoError(t, writePNG(w, frame, 2))
	assert.True(t, w.closed)

	img, err := png.Decode(&w.Buffer)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestWritePNG_CloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	w := &bufferCloser{closeErr: diskFull}

	err := writePNG(w, video.NewFrameBuffer(8, 4), 1)

	assert.ErrorIs(t, err, diskFull)
	assert.True(t, w.closed)
}
