package ansi256

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/ansi256/imageutil"
)

// MatrixSize is the edge length of the Bayer threshold matrix used by
// pattern dithering. Each pixel builds Cells() candidate colors.
type MatrixSize uint8

const (
	Matrix2x2 MatrixSize = 2
	Matrix4x4 MatrixSize = 4
	Matrix8x8 MatrixSize = 8
)

var (
	bayer2x2 = []uint8{0, 2, 3, 1}
	bayer4x4 = []uint8{0, 8, 2, 10, 12, 4, 14, 6, 3, 11, 1, 9, 15, 7, 13, 5}
	bayer8x8 = []uint8{
		0, 48, 12, 60, 3, 51, 15, 63,
		32, 16, 44, 28, 35, 19, 47, 31,
		8, 56, 4, 52, 11, 59, 7, 55,
		40, 24, 36, 20, 43, 27, 39, 23,
		2, 50, 14, 62, 1, 49, 13, 61,
		34, 18, 46, 30, 33, 17, 45, 29,
		10, 58, 6, 54, 9, 57, 5, 53,
		42, 26, 38, 22, 41, 25, 37, 21,
	}
)

// Valid reports whether m is 2, 4 or 8.
func (m MatrixSize) Valid() bool {
	return m == Matrix2x2 || m == Matrix4x4 || m == Matrix8x8
}

// Cells returns the number of matrix cells, and so of candidates.
func (m MatrixSize) Cells() int {
	return int(m) * int(m)
}

func (m MatrixSize) String() string {
	return fmt.Sprintf("%dx%d", m, m)
}

// ParseMatrixSize accepts "2", "4", "8" or the "NxN" form.
func ParseMatrixSize(s string) (MatrixSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, m, ok := strings.Cut(s, "x"); ok {
		if n != m {
			return 0, fmt.Errorf("%w: %q is not square", ErrInvalidMatrixSize, s)
		}
		s = n
	}
	switch s {
	case "2":
		return Matrix2x2, nil
	case "4":
		return Matrix4x4, nil
	case "8":
		return Matrix8x8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMatrixSize, s)
}

// MarshalText implements encoding.TextMarshaler. The zero size, which
// configurations without pattern dithering carry, encodes as empty text.
func (m MatrixSize) MarshalText() ([]byte, error) {
	if m == 0 {
		return []byte{}, nil
	}
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMatrixSize, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MatrixSize) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = 0
		return nil
	}
	parsed, err := ParseMatrixSize(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// BayerMatrix returns a copy of the row-major threshold matrix for m, or
// nil if m is not a valid size. It is a permutation of 0..Cells()-1.
func BayerMatrix(m MatrixSize) []uint8 {
	switch m {
	case Matrix2x2:
		return slices.Clone(bayer2x2)
	case Matrix4x4:
		return slices.Clone(bayer4x4)
	case Matrix8x8:
		return slices.Clone(bayer8x8)
	}
	return nil
}

// Luma returns the Rec. 601 luma of c scaled to [0, 1].
func Luma(c RGB) float32 {
	return (float32(c.R)*299 + float32(c.G)*587 + float32(c.B)*114) / 255000
}

// Candidate is one palette color proposed for a pixel.
type Candidate struct {
	Color RGB
	Index uint8
}

// PatternDitherer implements Knoll-style pattern dithering: for every pixel
// it proposes Cells() palette colors by repeatedly feeding the accumulated
// error back into the query, sorts them by luma and lets the Bayer matrix
// pick one by screen position. Each pixel is computed independently of all
// others.
type PatternDitherer struct {
	search     *Searcher
	metric     Metric
	size       MatrixSize
	bayer      []uint8
	multiplier float32
}

// NewPatternDitherer validates the parameters and returns a ditherer.
// The multiplier scales the accumulated error before it is added back to
// the pixel; it may be any finite value.
func NewPatternDitherer(s *Searcher, m Metric, size MatrixSize, multiplier float32) (*PatternDitherer, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMetric, uint8(m))
	}
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMatrixSize, uint8(size))
	}
	if f := float64(multiplier); math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiplier, multiplier)
	}
	return &PatternDitherer{
		search:     s,
		metric:     m,
		size:       size,
		bayer:      BayerMatrix(size),
		multiplier: multiplier,
	}, nil
}

// Size returns the matrix size.
func (d *PatternDitherer) Size() MatrixSize { return d.size }

// Candidates appends the luma-sorted candidate list for orig to dst and
// returns the extended slice.
func (d *PatternDitherer) Candidates(orig RGB, dst []Candidate) []Candidate {
	start := len(dst)
	var errR, errG, errB uint8
	for i := 0; i < d.size.Cells(); i++ {
		query := RGB{
			R: d.adjust(orig.R, errR),
			G: d.adjust(orig.G, errG),
			B: d.adjust(orig.B, errB),
		}
		idx := d.search.NearestRGB(query, d.metric).Index
		chosen := d.search.pal.ColorAt(idx)
		dst = append(dst, Candidate{Color: chosen, Index: idx})

		// The accumulator is unsigned and only ever grows: overshoot in
		// the chosen color is not fed back.
		errR = satAdd(errR, satSub(orig.R, chosen.R))
		errG = satAdd(errG, satSub(orig.G, chosen.G))
		errB = satAdd(errB, satSub(orig.B, chosen.B))
	}
	slices.SortStableFunc(dst[start:], func(a, b Candidate) int {
		return cmp.Compare(Luma(a.Color), Luma(b.Color))
	})
	return dst
}

// adjust adds the scaled error to a channel, clamps to [0, 255] and
// truncates toward zero.
func (d *PatternDitherer) adjust(orig, acc uint8) uint8 {
	v := float32(orig) + float32(float32(acc)*d.multiplier)
	return uint8(min(max(v, 0), 255))
}

// Pixel returns the palette index for a pixel of color orig at (x, y).
func (d *PatternDitherer) Pixel(orig RGB, x, y int) uint8 {
	var buf [64]Candidate
	cands := d.Candidates(orig, buf[:0])
	n := int(d.size)
	return cands[d.bayer[(y%n)*n+x%n]].Index
}

// rowsPerTask bounds the work handed to a single goroutine.
const rowsPerTask = 8

// Dither quantizes img. Rows are split into bands processed by at most
// workers goroutines; each band writes only its own slice of the output,
// so the result is independent of scheduling. workers <= 0 means one
// goroutine per band.
func (d *PatternDitherer) Dither(img *imageutil.RGBAImage, workers int) *Frame {
	w, h := img.Width(), img.Height()
	f := NewFrame(w, h)

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for y0 := 0; y0 < h; y0 += rowsPerTask {
		y1 := min(y0+rowsPerTask, h)
		band := f.Indices[y0*w : y1*w]
		g.Go(func() error {
			d.ditherRows(img, band, y0, y1)
			return nil
		})
	}
	// Workers never fail.
	_ = g.Wait()
	return f
}

func (d *PatternDitherer) ditherRows(img *imageutil.RGBAImage, out []uint8, y0, y1 int) {
	w := img.Width()
	var buf [64]Candidate
	n := int(d.size)
	for y := y0; y < y1; y++ {
		row := out[(y-y0)*w : (y-y0+1)*w]
		thresholds := d.bayer[(y%n)*n : (y%n+1)*n]
		for x := range row {
			cands := d.Candidates(img.GetRGB(x, y), buf[:0])
			row[x] = cands[thresholds[x%n]].Index
		}
	}
}

func satAdd(a, b uint8) uint8 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint8
}

func satSub(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return 0
}
