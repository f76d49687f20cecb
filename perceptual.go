package ansi256

import (
	"fmt"
	"sync"

	"github.com/wbrown/ansi256/internal/kernel"
)

// PerceptualPalette holds a palette together with its precomputed
// perceptual coordinates. The Lab and Jab tables are flattened with a
// stride of four (three coordinates and a zero pad lane); the CIE94 table
// uses a stride of eight (L, a, b, C, S_L, S_C, S_H, 0). Each table is
// also kept component-major for the lane scan kernels.
//
// A PerceptualPalette is immutable once built and safe to share between
// goroutines.
type PerceptualPalette struct {
	rgb   Palette
	lab   kernel.EuclidPalette
	jab   kernel.EuclidPalette
	cie94 kernel.CIE94Palette
}

// NewPerceptualPalette converts every entry of p into CIELAB and
// CAM02-UCS and derives the CIE94 weighting terms.
func NewPerceptualPalette(p Palette) *PerceptualPalette {
	pp := &PerceptualPalette{rgb: p}
	for i, c := range p {
		lab := LabOf(c)
		pp.lab.Set(i, lab)
		pp.cie94.Set(i, lab)
		pp.jab.Set(i, JabOf(c))
	}
	return pp
}

var defaultPerceptual = sync.OnceValue(func() *PerceptualPalette {
	return NewPerceptualPalette(DefaultPalette)
})

// DefaultPerceptualPalette returns the precomputed tables for
// DefaultPalette. They are built on first use; concurrent first callers
// block until the single build completes and then all observe the same
// value.
func DefaultPerceptualPalette() *PerceptualPalette {
	return defaultPerceptual()
}

// Palette returns the RGB palette the tables were built from.
func (pp *PerceptualPalette) Palette() Palette {
	return pp.rgb
}

// ColorAt returns the RGB color of palette entry i.
func (pp *PerceptualPalette) ColorAt(i uint8) RGB {
	return pp.rgb[i]
}

// Lab returns the CIELAB coordinates of entry i.
func (pp *PerceptualPalette) Lab(i uint8) Point {
	e := pp.lab.Table.Entry(int(i))
	return Point{e[0], e[1], e[2]}
}

// Jab returns the CAM02-UCS coordinates of entry i.
func (pp *PerceptualPalette) Jab(i uint8) Point {
	e := pp.jab.Table.Entry(int(i))
	return Point{e[0], e[1], e[2]}
}

// Coordinates returns entry i in the coordinate space of metric m.
func (pp *PerceptualPalette) Coordinates(m Metric, i uint8) Point {
	if m == CAM02 {
		return pp.Jab(i)
	}
	return pp.Lab(i)
}

// LabTable returns a copy of the flattened Lab table.
func (pp *PerceptualPalette) LabTable() EuclidTable { return pp.lab.Table }

// JabTable returns a copy of the flattened Jab table.
func (pp *PerceptualPalette) JabTable() EuclidTable { return pp.jab.Table }

// CIE94Table returns a copy of the flattened CIE94 table.
func (pp *PerceptualPalette) CIE94Table() CIE94Table { return pp.cie94.Table }

// Distinct reports an error wrapping ErrIndistinctPalette when two entries
// have identical coordinates under metric m. Such a palette still
// quantizes correctly, but the duplicate with the higher index can never
// be selected.
func (pp *PerceptualPalette) Distinct(m Metric) error {
	seen := make(map[Point]uint8, len(pp.rgb))
	var dups int
	var firstA, firstB uint8
	for i := range pp.rgb {
		p := pp.Coordinates(m, uint8(i))
		if j, ok := seen[p]; ok {
			if dups == 0 {
				firstA, firstB = j, uint8(i)
			}
			dups++
			continue
		}
		seen[p] = uint8(i)
	}
	if dups > 0 {
		return fmt.Errorf("%w: %d duplicates under %v, first %d and %d",
			ErrIndistinctPalette, dups, m, firstA, firstB)
	}
	return nil
}
