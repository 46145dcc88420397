package contour

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Point is a polygon vertex in image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is one contour, numbered from zero in file order.
type Polygon struct {
	Index  int     `json:"index"`
	Points []Point `json:"points"`
}

// Bounds returns the axis-aligned bounding box of p as min and max corners.
// An empty polygon returns zero points.
func (p Polygon) Bounds() (Point, Point) {
	if len(p.Points) == 0 {
		return Point{}, Point{}
	}
	lo, hi := p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		lo.X = min(lo.X, pt.X)
		lo.Y = min(lo.Y, pt.Y)
		hi.X = max(hi.X, pt.X)
		hi.Y = max(hi.Y, pt.Y)
	}
	return lo, hi
}

// Parse reads every polygon line of r. Comment and blank lines are skipped.
func Parse(r io.Reader) ([]Polygon, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var polygons []Polygon
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields)%2 != 0 {
			return nil, fmt.Errorf("line %d: odd number of coordinates (%d)", lineNo, len(fields))
		}

		points := make([]Point, 0, len(fields)/2)
		for i := 0; i < len(fields); i += 2 {
			x, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid x coordinate %q: %w", lineNo, fields[i], err)
			}
			y, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid y coordinate %q: %w", lineNo, fields[i+1], err)
			}
			points = append(points, Point{X: x, Y: y})
		}

		polygons = append(polygons, Polygon{Index: len(polygons), Points: points})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contours: %w", err)
	}
	return polygons, nil
}

// ParseFile parses the contour artifact at path.
func ParseFile(path string) ([]Polygon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}
