package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AutoThresholdToken is the position of the computed maximum threshold in
// the first diagnostics line of the contour extractor, counted after every
// ')' is replaced by a space and the line is split on whitespace.
//
// This is a contract with the extractor's unversioned stderr format. If the
// tool changes its wording, ParseAutoThreshold fails with
// ErrDiagnosticsFormat instead of returning a wrong threshold.
const AutoThresholdToken = 17

// ErrDiagnosticsFormat reports extractor diagnostics that do not match the
// expected layout.
var ErrDiagnosticsFormat = errors.New("unexpected extractor diagnostics format")

// ParseAutoThreshold extracts the automatically computed maximum threshold
// from the first line of the extractor diagnostics.
func ParseAutoThreshold(line string) (int, error) {
	tokens := strings.Fields(strings.ReplaceAll(line, ")", " "))
	if len(tokens) <= AutoThresholdToken {
		return 0, fmt.Errorf("%w: first line has %d tokens, need more than %d",
			ErrDiagnosticsFormat, len(tokens), AutoThresholdToken)
	}

	token := tokens[AutoThresholdToken]
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: token %d is %q, not an integer",
			ErrDiagnosticsFormat, AutoThresholdToken, token)
	}
	return value, nil
}

// ReadAutoThreshold opens the diagnostics log at path and parses its first
// line with ParseAutoThreshold.
func ReadAutoThreshold(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return 0, fmt.Errorf("%w: %s is empty", ErrDiagnosticsFormat, path)
	}
	return ParseAutoThreshold(scanner.Text())
}
