package imaging

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	"github.com/anthonynsimon/bild/effect"
)

// ConvertToPGM converts the image at src to an 8-bit binary PGM at dst.
//
// This is the in-process alternative to the external format adapter. The
// contour extractor reads 8-bit grayscale netpbm input only, so colour and
// alpha are discarded.
func ConvertToPGM(src, dst string) error {
	img, err := Load(src)
	if err != nil {
		return err
	}

	// bild returns the luminance in every channel of an RGBA image.
	lum := effect.Grayscale(img)
	gray := image.NewGray(lum.Bounds())
	draw.Draw(gray, gray.Bounds(), lum, lum.Bounds().Min, draw.Src)

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if err := WritePGM(f, gray); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

// WritePGM encodes img as a binary (P5) PGM with a maximum value of 255.
func WritePGM(w io.Writer, img *image.Gray) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", bounds.Dx(), bounds.Dy()); err != nil {
		return fmt.Errorf("failed to write PGM header: %w", err)
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := img.PixOffset(bounds.Min.X, y)
		if _, err := bw.Write(img.Pix[start : start+bounds.Dx()]); err != nil {
			return fmt.Errorf("failed to write PGM row %d: %w", y-bounds.Min.Y, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush PGM: %w", err)
	}
	return nil
}
