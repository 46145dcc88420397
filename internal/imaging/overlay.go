package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/contour-pipeline/internal/contour"
)

// OverlayResult describes a rendered overlay preview.
type OverlayResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Polygons int    `json:"polygons"`
	Path     string `json:"path"`
}

// Palette returns n visually distinct colours spread around the HSV wheel.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		hue := 360.0 * float64(i) / float64(max(n, 1))
		colors[i] = colorful.Hsv(hue, 0.85, 0.95).Clamped()
	}
	return colors
}

// RenderOverlay draws polygons over a grayscale copy of img. Each polygon is
// drawn closed in its own palette colour and labelled with its index at the
// top-left corner of its bounding box. Segments are clipped to the image and
// segments touching a non-finite vertex are skipped.
func RenderOverlay(img image.Image, polygons []contour.Polygon, labels bool) *image.NRGBA {
	base := imaging.Grayscale(img)
	canvas := image.NewNRGBA(base.Bounds())
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)

	palette := Palette(len(polygons))
	for i, poly := range polygons {
		c := palette[i]
		n := len(poly.Points)
		for j := 0; j < n; j++ {
			drawSegment(canvas, poly.Points[j], poly.Points[(j+1)%n], c)
		}
		if labels && n > 0 {
			lo, _ := poly.Bounds()
			if finite(lo) {
				x, y := labelOrigin(canvas.Bounds(), lo)
				drawLabel(canvas, x, y, strconv.Itoa(poly.Index), c)
			}
		}
	}
	return canvas
}

// SaveOverlay renders the overlay for the image at src and writes it to dst.
// The output format follows the extension of dst.
func SaveOverlay(src, dst string, polygons []contour.Polygon) (*OverlayResult, error) {
	img, err := Load(src)
	if err != nil {
		return nil, err
	}

	canvas := RenderOverlay(img, polygons, true)
	if err := imaging.Save(canvas, dst); err != nil {
		return nil, fmt.Errorf("failed to save overlay: %w", err)
	}

	return &OverlayResult{
		Width:    canvas.Bounds().Dx(),
		Height:   canvas.Bounds().Dy(),
		Polygons: len(polygons),
		Path:     dst,
	}, nil
}

// drawSegment clips the segment a-b to the image with the Liang-Barsky
// algorithm and plots what remains.
func drawSegment(img *image.NRGBA, a, b contour.Point, c color.Color) {
	if !finite(a) || !finite(b) {
		return
	}

	r := img.Bounds()
	if r.Empty() {
		return
	}
	xmin, ymin := float64(r.Min.X), float64(r.Min.Y)
	xmax, ymax := float64(r.Max.X-1), float64(r.Max.Y-1)

	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-dx, a.X - xmin},
		{dx, xmax - a.X},
		{-dy, a.Y - ymin},
		{dy, ymax - a.Y},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return
			}
			t1 = math.Min(t1, t)
		}
	}

	drawLine(img,
		round(a.X+t0*dx), round(a.Y+t0*dy),
		round(a.X+t1*dx), round(a.Y+t1*dy), c)
}

// drawLine plots a one-pixel line with Bresenham's algorithm. Endpoints are
// expected inside the image; stray rounding is clipped per pixel.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	bounds := img.Bounds()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		if (image.Point{X: x0, Y: y0}).In(bounds) {
			img.Set(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// labelOrigin places a label baseline just inside the top-left corner of a
// bounding box, kept within r.
func labelOrigin(r image.Rectangle, lo contour.Point) (int, int) {
	face := basicfont.Face7x13
	x := round(math.Min(math.Max(lo.X, float64(r.Min.X)), float64(r.Max.X))) + 2
	y := round(math.Min(math.Max(lo.Y, float64(r.Min.Y)), float64(r.Max.Y))) + face.Ascent
	return min(x, r.Max.X-face.Width), min(y, r.Max.Y)
}

// drawLabel writes text with its baseline at (x, y) using basicfont.
func drawLabel(img *image.NRGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func finite(p contour.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func round(v float64) int {
	return int(math.Round(v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
