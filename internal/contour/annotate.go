package contour

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FormatDoc documents the polygon line layout in artifact headers.
const FormatDoc = "Each line corresponds to a resulting polygon. All vertices (xi yi) are given in the same line:  x0 y0 x1 y1 ... xn yn"

// ExtractorHeader is the header of an annotated extractor output.
func ExtractorHeader(tool, reproduce string) []string {
	return []string{
		fmt.Sprintf("Polygon contour obtained from the %s program with the following options:", tool),
		reproduce,
		FormatDoc,
	}
}

// SimplifierHeader is the header of an annotated simplifier output.
func SimplifierHeader(tool, reproduce string) []string {
	return []string{
		fmt.Sprintf("Set of resulting polygons obtained from the %s algorithm.", tool),
		FormatDoc,
		"Command to reproduce the result of the algorithm:",
		reproduce,
	}
}

// Annotate copies the polygons of raw to w, preceded by header and with an
// index comment before each polygon. It returns the number of polygons.
func Annotate(w io.Writer, raw io.Reader, header []string) (int, error) {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		if _, err := fmt.Fprintf(bw, "# %s\n", line); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	count := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case isComment(line):
			if _, err := fmt.Fprintln(bw, line); err != nil {
				return 0, fmt.Errorf("failed to copy comment: %w", err)
			}
		default:
			if _, err := fmt.Fprintf(bw, "# contour number: %d\n%s\n", count, line); err != nil {
				return 0, fmt.Errorf("failed to write contour %d: %w", count, err)
			}
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read contours: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush annotated contours: %w", err)
	}
	return count, nil
}

// AnnotateFile annotates src into dst. When src and dst are the same path the
// file is rewritten in place; the annotated text is staged in a temporary
// file in the destination directory and moved over dst once complete.
func AnnotateFile(src, dst string, header []string) (int, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "tmp-*.dat")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	count, err := Annotate(tmp, in, header)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return count, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}
