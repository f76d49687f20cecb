// Package diffuse implements sequential error diffusion over an arbitrary
// palette mapper.
//
// Pixels are visited row by row. Each pixel's color, plus the error pushed
// onto it by earlier pixels, is clamped to [0, 255], rounded and handed to
// the mapper; the signed difference between that value and the chosen
// palette color is spread over not-yet-visited neighbors according to the
// diffusion matrix. The traversal is inherently sequential.
package diffuse

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/wbrown/ansi256/imageutil"
)

// Mapper chooses palette entries for colors.
type Mapper interface {
	// NearestIndex returns the palette index closest to c.
	NearestIndex(c imageutil.RGB) uint8
	// ColorAt returns the color of palette index i.
	ColorAt(i uint8) imageutil.RGB
}

// Matrices maps names to the diffusion kernels that can be selected from
// configuration. Floyd–Steinberg is the default.
var Matrices = map[string]dither.ErrorDiffusionMatrix{
	"floyd-steinberg":       dither.FloydSteinberg,
	"false-floyd-steinberg": dither.FalseFloydSteinberg,
	"atkinson":              dither.Atkinson,
	"burkes":                dither.Burkes,
	"jarvis-judice-ninke":   dither.JarvisJudiceNinke,
	"sierra":                dither.Sierra,
	"two-row-sierra":        dither.TwoRowSierra,
	"sierra-lite":           dither.SierraLite,
	"simple2d":              dither.Simple2D,
	"stucki":                dither.Stucki,
	"steven-pigeon":         dither.StevenPigeon,
}

// MatrixNames returns the keys of Matrices in sorted order.
func MatrixNames() []string {
	names := make([]string, 0, len(Matrices))
	for name := range Matrices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseMatrix looks up a diffusion matrix by name.
func ParseMatrix(name string) (dither.ErrorDiffusionMatrix, error) {
	m, ok := Matrices[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown diffusion matrix %q (want one of %s)",
			name, strings.Join(MatrixNames(), ", "))
	}
	return m, nil
}

// Diffuser runs error diffusion with a fixed matrix.
type Diffuser struct {
	matrix dither.ErrorDiffusionMatrix
	// cur is the column of the matrix that holds the current pixel.
	cur int
	// Serpentine alternates the scan direction on every row.
	Serpentine bool
}

// New returns a Diffuser for matrix m. The current pixel is the entry in
// the first row immediately left of the first non-zero weight.
func New(m dither.ErrorDiffusionMatrix) (*Diffuser, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, fmt.Errorf("diffusion matrix is empty")
	}
	cur := -1
	for i, w := range m[0] {
		if w != 0 {
			cur = i - 1
			break
		}
	}
	if cur < 0 {
		return nil, fmt.Errorf("diffusion matrix has no weight right of the current pixel")
	}
	for _, row := range m[1:] {
		if len(row) != len(m[0]) {
			return nil, fmt.Errorf("diffusion matrix rows have different widths")
		}
	}
	return &Diffuser{matrix: m, cur: cur}, nil
}

// FloydSteinberg returns a left-to-right Floyd–Steinberg diffuser.
func FloydSteinberg() *Diffuser {
	d, err := New(dither.FloydSteinberg)
	if err != nil {
		panic(err)
	}
	return d
}

// Apply quantizes img, writing one palette index per pixel into dst
// (row-major, len(dst) must be width*height). img is not modified.
func (d *Diffuser) Apply(img *imageutil.RGBAImage, m Mapper, dst []uint8) {
	w, h := img.Width(), img.Height()
	if len(dst) != w*h {
		panic(fmt.Sprintf("diffuse: output has %d entries for a %dx%d image", len(dst), w, h))
	}

	// One error row per matrix row, three channels per pixel.
	rows := make([][]float32, len(d.matrix))
	for i := range rows {
		rows[i] = make([]float32, w*3)
	}

	for y := 0; y < h; y++ {
		x0, x1, dir := 0, w, 1
		if d.Serpentine && y%2 == 1 {
			x0, x1, dir = w-1, -1, -1
		}
		for x := x0; x != x1; x += dir {
			orig := img.GetRGB(x, y)
			acc := rows[0][x*3 : x*3+3]
			vr := clamp(float32(orig.R) + acc[0])
			vg := clamp(float32(orig.G) + acc[1])
			vb := clamp(float32(orig.B) + acc[2])

			idx := m.NearestIndex(imageutil.RGB{R: round(vr), G: round(vg), B: round(vb)})
			dst[y*w+x] = idx
			chosen := m.ColorAt(idx)

			d.spread(rows, x, w, dir,
				vr-float32(chosen.R), vg-float32(chosen.G), vb-float32(chosen.B))
		}

		// Rotate the error rows and clear the one that becomes the last.
		first := rows[0]
		copy(rows, rows[1:])
		clear(first)
		rows[len(rows)-1] = first
	}
}

func (d *Diffuser) spread(rows [][]float32, x, w, dir int, er, eg, eb float32) {
	for dy, weights := range d.matrix {
		for col, weight := range weights {
			if weight == 0 || (dy == 0 && col <= d.cur) {
				continue
			}
			tx := x + (col-d.cur)*dir
			if tx < 0 || tx >= w {
				continue
			}
			e := rows[dy][tx*3 : tx*3+3]
			e[0] += er * weight
			e[1] += eg * weight
			e[2] += eb * weight
		}
	}
}

func clamp(v float32) float32 {
	return min(max(v, 0), 255)
}

func round(v float32) uint8 {
	return uint8(math.Round(float64(v)))
}
