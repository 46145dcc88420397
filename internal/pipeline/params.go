package pipeline

import (
	"math"
	"strconv"
	"strings"
)

// ThresholdMode selects how the contour extractor thresholds the image.
type ThresholdMode int

const (
	// ThresholdManual passes the caller's minimum and maximum thresholds.
	ThresholdManual ThresholdMode = 0

	// ThresholdAuto lets the extractor compute the threshold itself. Any
	// nonzero value selects automatic mode.
	ThresholdAuto ThresholdMode = 1
)

// IsAuto reports whether m selects automatic thresholding.
func (m ThresholdMode) IsAuto() bool {
	return m != ThresholdManual
}

func (m ThresholdMode) String() string {
	if m.IsAuto() {
		return "auto"
	}
	return "manual"
}

// Threshold bounds used when a caller omits them.
const (
	DefaultTMin = 0
	DefaultTMax = 255
)

// Params are the user-supplied parameters of a run. They are passed to the
// tools as given; the tools enforce their own ranges.
type Params struct {
	Mode       ThresholdMode `json:"thresholdtype"`
	TMin       int           `json:"tmin"`
	TMax       int           `json:"tmax"`
	MinSize    int           `json:"m"`
	ErrorBound float64       `json:"e"`
	Render     bool          `json:"w"`
}

// ParseRenderFlag converts the textual render flag: "true" in any letter
// case is true, anything else is false.
func ParseRenderFlag(s string) bool {
	return strings.EqualFold(s, "true")
}

// FormatErrorBound renders e the way the reference transcripts show it: the
// shortest decimal that reads back as e. Whole numbers keep a trailing
// ".0"; magnitudes below 1e-4 or from 1e16 up use an exponent with at least
// two digits, as in 1e-05 and 1.5e+16.
func FormatErrorBound(e float64) string {
	switch {
	case math.IsNaN(e):
		return "nan"
	case math.IsInf(e, 1):
		return "inf"
	case math.IsInf(e, -1):
		return "-inf"
	}

	if a := math.Abs(e); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(e, 'e', -1, 64)
	}
	s := strconv.FormatFloat(e, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
