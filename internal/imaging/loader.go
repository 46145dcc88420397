package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Dimensions contains the width and height of an image.
type Dimensions struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// ProbeDimensions reads the width and height of the image at path.
//
// Only the image header is decoded, so this is cheap even for large inputs.
// The pipeline calls it once per run and reuses the result as the
// simplifier's image-size hint.
//
// Parameters:
//   - path: Path to the image file. Supported formats are PNG, JPEG, GIF,
//     BMP, TIFF and WebP.
//
// Returns:
//   - Dimensions: The image size in pixels.
//   - error: Non-nil if the file cannot be opened or its header is not a
//     recognised image format.
func ProbeDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, fmt.Errorf("invalid %s image size %dx%d", format, cfg.Width, cfg.Height)
	}

	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Load decodes the full image at path. The pixels are kept in stored order,
// ignoring any EXIF orientation tag, so they line up with ProbeDimensions
// and with the coordinates reported by the external tools.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}
