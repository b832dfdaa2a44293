package backend

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fistaco/rustychippydragoman/chippy/video"
)

// DefaultSnapshotScale makes a 64x32 frame a 512x256 image.
const DefaultSnapshotScale = 8

// FrameImage renders the frame as a grayscale image, lit pixels white,
// each CHIP-8 pixel scale x scale image pixels large.
func FrameImage(frame *video.FrameBuffer, scale int) *image.Gray {
	if scale < 1 {
		scale = 1
	}

	w, h := frame.Width(), frame.Height()
	img := image.NewGray(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if frame.GetPixel(x, y) == video.PixelOff {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetGray(x*scale+dx, y*scale+dy, color.Gray{Y: 0xFF})
				}
			}
		}
	}

	return img
}

// SaveFramePNG writes the frame as <directory>/<baseName>.png and returns
// the path. An empty directory means the working directory.
func SaveFramePNG(frame *video.FrameBuffer, baseName, directory string, scale int) (string, error) {
	path := filepath.Join(directory, baseName+".png")

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating snapshot %s", path)
	}
	if err := writePNG(file, frame, scale); err != nil {
		return "", errors.Wrapf(err, "snapshot %s", path)
	}

	slog.Debug("Snapshot saved", "path", path, "size", fmt.Sprintf("%dx%d", frame.Width(), frame.Height()))
	return path, nil
}

// writePNG encodes the frame into w and closes it. A failed close is
// reported, since the image may not have reached the disk.
func writePNG(w io.WriteCloser, frame *video.FrameBuffer, scale int) error {
	if err := png.Encode(w, FrameImage(frame, scale)); err != nil {
		w.Close()
		return errors.Wrap(err, "encoding")
	}
	return errors.Wrap(w.Close(), "closing")
}

// TakeSnapshot handles the snapshot key for interactive backends: the frame
// is written to the working directory under a timestamped name.
func TakeSnapshot(frame *video.FrameBuffer) {
	if frame == nil {
		slog.Warn("No frame data available for snapshot")
		return
	}

	baseName := "chippy_snapshot_" + time.Now().Format("20060102_150405")
	path, err := SaveFramePNG(frame, baseName, "", DefaultSnapshotScale)
	if err != nil {
		slog.Error("Failed to save snapshot", "error", err)
		return
	}
	slog.Info("Snapshot saved", "path", path)
}
