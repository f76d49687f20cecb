package ansi256

import (
	"fmt"

	"github.com/wbrown/ansi256/internal/kernel"
)

// EuclidTable is a palette flattened to 256 entries of (x, y, z, 0).
type EuclidTable = kernel.EuclidTable

// CIE94Table is a palette flattened to 256 entries of
// (L, a, b, C, S_L, S_C, S_H, 0).
type CIE94Table = kernel.CIE94Table

// Backend selects a palette scan implementation.
type Backend = kernel.Backend

const (
	BackendScalar = kernel.Scalar
	BackendVec4   = kernel.Vec4
	BackendVec8   = kernel.Vec8
)

// DetectedBackend returns the scan implementation chosen for this CPU.
// Setting ANSI256_NO_SIMD=1 forces the scalar scan.
func DetectedBackend() Backend {
	return kernel.Detected()
}

// NativeBackend reports whether b runs on vector instructions in this
// binary. Lane backends that do not are still exact but no faster than
// the scalar scan.
func NativeBackend(b Backend) bool {
	return kernel.Native(b)
}

// ParseBackend parses "scalar", "vec4" or "vec8".
func ParseBackend(s string) (Backend, error) {
	return kernel.ParseBackend(s)
}

// NearestMatch is the result of a palette search.
type NearestMatch struct {
	Index uint8
	// Distance is the squared distance under the metric searched.
	Distance float32
}

// Searcher finds the palette entry closest to a color. All backends return
// identical results; among equidistant entries the lowest index wins.
type Searcher struct {
	pal     *PerceptualPalette
	backend Backend
}

// NewSearcher returns a Searcher over pal using the detected backend.
func NewSearcher(pal *PerceptualPalette) *Searcher {
	return &Searcher{pal: pal, backend: kernel.Detected()}
}

// WithBackend returns a copy of s that scans with backend b.
func (s *Searcher) WithBackend(b Backend) (*Searcher, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown scan backend %d", uint8(b))
	}
	return &Searcher{pal: s.pal, backend: b}, nil
}

// Palette returns the perceptual palette being searched.
func (s *Searcher) Palette() *PerceptualPalette {
	return s.pal
}

// Backend returns the scan implementation in use.
func (s *Searcher) Backend() Backend {
	return s.backend
}

// Nearest returns the entry closest to q, which must already be expressed
// in the coordinate space of m (Jab for CAM02, Lab otherwise).
func (s *Searcher) Nearest(q Point, m Metric) NearestMatch {
	var idx uint8
	var d float32
	switch m {
	case CAM02:
		idx, d = kernel.NearestEuclid(s.backend, &s.pal.jab, q)
	case CIE76:
		idx, d = kernel.NearestEuclid(s.backend, &s.pal.lab, q)
	case CIE94:
		idx, d = kernel.NearestCIE94(s.backend, &s.pal.cie94, q)
	default:
		panic(fmt.Sprintf("ansi256: nearest search with %v", m))
	}
	return NearestMatch{Index: idx, Distance: d}
}

// NearestRGB converts c with metric m and returns the closest entry.
func (s *Searcher) NearestRGB(c RGB, m Metric) NearestMatch {
	return s.Nearest(m.Convert(c), m)
}
