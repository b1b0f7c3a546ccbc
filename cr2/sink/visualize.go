package sink

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/canonraw/cr2lossless/cr2/lossless"
	"github.com/canonraw/cr2lossless/cr2err"
)

// WritePNG renders img as an 8-bit grayscale PNG, auto-windowing the
// sample range [min, max] to [0, 255]. This mirrors the teacher's
// examples/export_png min/max auto-window: the decode core never clips or
// normalizes its output, so any visualisation path has to pick its own
// windowing, and a full-range auto-window is the simplest one that makes
// an arbitrary 14-bit CR2 plane visible without per-camera calibration.
func WritePNG(w io.Writer, img *lossless.DecodedImage) error {
	min, max := img.Samples[0], img.Samples[0]
	for _, s := range img.Samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.At(x, y)
			scaled := (v - min) * 255 / span
			gray.SetGray(x, y, color.Gray{Y: clampByte(scaled)})
		}
	}

	if err := png.Encode(w, gray); err != nil {
		return cr2err.Wrap(cr2err.IoError, err, "encoding PNG visualisation")
	}
	return nil
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
