package ansi256

import (
	"fmt"
	"strings"

	"github.com/wbrown/ansi256/internal/kernel"
)

// Metric selects the color space and distance formula used to compare a
// query color with palette entries.
type Metric uint8

const (
	// CAM02 is squared Euclidean distance in CAM02-UCS.
	CAM02 Metric = iota
	// CIE94 is the squared CIE94 color difference (graphic arts weights)
	// in CIELAB, weighted by the palette entry's chroma.
	CIE94
	// CIE76 is squared Euclidean distance in CIELAB.
	CIE76
)

// Metrics lists every supported metric.
var Metrics = []Metric{CAM02, CIE94, CIE76}

func (m Metric) String() string {
	switch m {
	case CAM02:
		return "cam02"
	case CIE94:
		return "cie94"
	case CIE76:
		return "cie76"
	default:
		return fmt.Sprintf("Metric(%d)", uint8(m))
	}
}

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m <= CIE76
}

// ParseMetric parses a metric name as produced by Metric.String. The
// aliases "cam02-ucs" and "jab" are accepted for CAM02.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cam02", "cam02-ucs", "jab":
		return CAM02, nil
	case "cie94":
		return CIE94, nil
	case "cie76", "lab":
		return CIE76, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMetric, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMetric, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Convert maps an sRGB color into the coordinate space of the metric.
func (m Metric) Convert(c RGB) Point {
	if m == CAM02 {
		return JabOf(c)
	}
	return LabOf(c)
}

// Distance returns the squared difference between a palette reference
// color and a query, both already in the metric's coordinate space. For
// CIE94 the weighting terms are derived from ref. This is the same formula
// the palette scan evaluates for every entry.
func (m Metric) Distance(ref, query Point) float32 {
	if m == CIE94 {
		return kernel.CIE94Distance(ref, query)
	}
	return kernel.EuclidDistance(ref, query)
}
