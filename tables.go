package ansi256

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/wbrown/ansi256/imageutil"
)

// Tables is a portable snapshot of everything an alternative quantizer
// implementation needs to reproduce this package bit for bit: the
// palette, its flattened perceptual tables, the Bayer matrices and a set
// of reference outputs.
type Tables struct {
	Palette Palette
	Lab     EuclidTable
	Jab     EuclidTable
	CIE94   CIE94Table
	Bayer2  []uint8
	Bayer4  []uint8
	Bayer8  []uint8
	Vectors []ConformanceVector
}

// ConformanceVector records the pattern dithering output for one input.
type ConformanceVector struct {
	Metric     Metric
	Size       MatrixSize
	Multiplier float32
	Width      int
	Height     int
	Pixels     []RGB
	Want       []uint8
}

func (v *ConformanceVector) check() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrMalformedVector, v.Width, v.Height)
	}
	n := v.Width * v.Height
	if n/v.Width != v.Height || len(v.Pixels) != n || len(v.Want) != n {
		return fmt.Errorf("%w: %dx%d with %d pixels and %d indices",
			ErrMalformedVector, v.Width, v.Height, len(v.Pixels), len(v.Want))
	}
	return nil
}

// conformanceMultipliers cover the default, zero and a strongly
// saturating multiplier.
var conformanceMultipliers = []float32{0, 0.09, 1}

// ExportTables snapshots pp and computes reference pattern dithering
// outputs for every metric, matrix size and a few multipliers on a fixed
// noise image, using the scalar scan.
func ExportTables(pp *PerceptualPalette) (*Tables, error) {
	t := &Tables{
		Palette: pp.Palette(),
		Lab:     pp.LabTable(),
		Jab:     pp.JabTable(),
		CIE94:   pp.CIE94Table(),
		Bayer2:  BayerMatrix(Matrix2x2),
		Bayer4:  BayerMatrix(Matrix4x4),
		Bayer8:  BayerMatrix(Matrix8x8),
	}

	img := imageutil.CreateNoiseImage(16, 16, 2024)
	pixels := make([]RGB, 0, 16*16)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			pixels = append(pixels, img.GetRGB(x, y))
		}
	}

	search, err := NewSearcher(pp).WithBackend(BackendScalar)
	if err != nil {
		return nil, err
	}
	for _, m := range Metrics {
		for _, size := range []MatrixSize{Matrix2x2, Matrix4x4, Matrix8x8} {
			for _, mult := range conformanceMultipliers {
				d, err := NewPatternDitherer(search, m, size, mult)
				if err != nil {
					return nil, err
				}
				f := d.Dither(img, 0)
				t.Vectors = append(t.Vectors, ConformanceVector{
					Metric:     m,
					Size:       size,
					Multiplier: mult,
					Width:      img.Width(),
					Height:     img.Height(),
					Pixels:     pixels,
					Want:       f.Indices,
				})
			}
		}
	}
	return t, nil
}

// Verify re-runs every conformance vector against s and reports the first
// mismatch.
func (t *Tables) Verify(s *Searcher) error {
	for i, v := range t.Vectors {
		if err := v.check(); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
		d, err := NewPatternDitherer(s, v.Metric, v.Size, v.Multiplier)
		if err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
		for p, c := range v.Pixels {
			x, y := p%v.Width, p/v.Width
			if got := d.Pixel(c, x, y); got != v.Want[p] {
				return fmt.Errorf("vector %d (%v %v x%v) pixel (%d,%d): got %d, want %d",
					i, v.Metric, v.Size, v.Multiplier, x, y, got, v.Want[p])
			}
		}
	}
	return nil
}

// WriteTables gzips and gob-encodes t to w.
func WriteTables(w io.Writer, t *Tables) error {
	gzw := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzw).Encode(t); err != nil {
		gzw.Close()
		return fmt.Errorf("failed to encode tables: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

// ReadTables decodes tables written by WriteTables.
func ReadTables(r io.Reader) (*Tables, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	var t Tables
	if err := gob.NewDecoder(gzr).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	for i := range t.Vectors {
		if err := t.Vectors[i].check(); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return &t, nil
}
