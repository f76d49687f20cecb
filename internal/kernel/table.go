package kernel

import "math"

// Entries is the number of palette entries every kernel scans.
const Entries = 256

const (
	// EuclidStride is the float32 stride of one entry in a EuclidTable:
	// three coordinates and a zero pad lane.
	EuclidStride = 4
	// CIE94Stride is the stride of one entry in a CIE94Table:
	// L, a, b, C, S_L, S_C, S_H and a zero pad lane.
	CIE94Stride = 8
)

// EuclidTable is a flattened palette of three-component coordinates.
type EuclidTable [Entries * EuclidStride]float32

// CIE94Table is a flattened palette with the CIE94 weighting terms
// precomputed from each entry's chroma.
type CIE94Table [Entries * CIE94Stride]float32

// Entry returns the padded coordinates of entry i.
func (t *EuclidTable) Entry(i int) *[EuclidStride]float32 {
	return (*[EuclidStride]float32)(t[i*EuclidStride:])
}

// Set stores the coordinates of entry i with a zero pad lane.
func (t *EuclidTable) Set(i int, p [3]float32) {
	*t.Entry(i) = [EuclidStride]float32{p[0], p[1], p[2], 0}
}

// Entry returns the eight lanes of entry i.
func (t *CIE94Table) Entry(i int) *[CIE94Stride]float32 {
	return (*[CIE94Stride]float32)(t[i*CIE94Stride:])
}

// Set stores Lab coordinates of entry i and derives its chroma and weights.
func (t *CIE94Table) Set(i int, lab [3]float32) {
	*t.Entry(i) = cie94Entry(lab)
}

func cie94Entry(lab [3]float32) [CIE94Stride]float32 {
	c := Chroma(lab)
	return [CIE94Stride]float32{
		lab[0], lab[1], lab[2], c,
		1,
		float32(1 + float32(0.045*c)),
		float32(1 + float32(0.015*c)),
		0,
	}
}

// Chroma returns sqrt(a² + b²) rounded to float32.
func Chroma(lab [3]float32) float32 {
	return sqrt32(float32(sq(lab[1]) + sq(lab[2])))
}

// sq rounds the product so that it cannot fuse with a following add.
func sq(x float32) float32 {
	return float32(x * x)
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// EuclidPlanes holds a Euclidean palette component-major, so that one
// vector load yields the same coordinate of consecutive entries.
type EuclidPlanes struct {
	X, Y, Z [Entries]float32
}

// CIE94Planes is the component-major form of a CIE94Table. S_L is always
// one and has no plane.
type CIE94Planes struct {
	L, A, B, C, SC, SH [Entries]float32
}

// EuclidPalette keeps both layouts of a Euclidean palette: the table is
// scanned entry by entry, the planes a vector of entries at a time.
type EuclidPalette struct {
	Table  EuclidTable
	Planes EuclidPlanes
}

// Set stores entry i in both layouts.
func (p *EuclidPalette) Set(i int, c [3]float32) {
	p.Table.Set(i, c)
	p.Planes.X[i], p.Planes.Y[i], p.Planes.Z[i] = c[0], c[1], c[2]
}

// CIE94Palette keeps both layouts of a CIE94 palette.
type CIE94Palette struct {
	Table  CIE94Table
	Planes CIE94Planes
}

// Set stores the Lab coordinates of entry i and its derived terms in both
// layouts.
func (p *CIE94Palette) Set(i int, lab [3]float32) {
	p.Table.Set(i, lab)
	e := p.Table.Entry(i)
	pl := &p.Planes
	pl.L[i], pl.A[i], pl.B[i], pl.C[i] = e[0], e[1], e[2], e[3]
	pl.SC[i], pl.SH[i] = e[5], e[6]
}
