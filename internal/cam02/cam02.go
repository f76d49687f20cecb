// Package cam02 converts sRGB colors into CAM02-UCS (J', a', b') coordinates.
//
// The forward CIECAM02 model is evaluated under fixed viewing conditions and
// then mapped into the uniform color space of Luo, Cui and Li (2006). The
// defaults reproduce the sRGB viewing conditions commonly used for
// CAM02-UCS: D65 white, 20% background, an adapting luminance of 64/π/5
// cd/m² and an average surround.
package cam02

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Surround describes the relative luminance of the surround field.
type Surround struct {
	F, C, Nc float64
}

var (
	Average = Surround{F: 1.0, C: 0.69, Nc: 1.0}
	Dim     = Surround{F: 0.9, C: 0.59, Nc: 0.9}
	Dark    = Surround{F: 0.8, C: 0.525, Nc: 0.8}
)

// UCS coefficients for the CAM02-UCS space.
const (
	ucsC1 = 0.007
	ucsC2 = 0.0228
)

var (
	mCAT02 = mat3{
		{0.7328, 0.4296, -0.1624},
		{-0.7036, 1.6975, 0.0061},
		{0.0030, 0.0136, 0.9834},
	}
	mHPE = mat3{
		{0.38971, 0.68898, -0.07868},
		{-0.22981, 1.18340, 0.04641},
		{0, 0, 1},
	}
	// cat02ToHPE maps adapted CAT02 responses onto Hunt-Pointer-Estevez cone space.
	cat02ToHPE = mHPE.mul(mCAT02.inverse())
)

// ViewingConditions holds everything of the forward model that depends only
// on the environment. It is immutable after construction and safe for
// concurrent use.
type ViewingConditions struct {
	surround Surround
	n, z     float64
	fl       float64
	flRoot4  float64
	nbb, ncb float64
	dRGB     vec3
	aw       float64
	// chromaFactor is (1.64 - 0.29^n)^0.73.
	chromaFactor float64
}

// D65 is the CIE standard illuminant D65 scaled to Y = 100.
var D65 = [3]float64{95.047, 100.0, 108.883}

// SRGB are the viewing conditions for an sRGB display.
var SRGB = NewViewingConditions(D65, 20, 64/math.Pi/5, Average)

// NewViewingConditions precomputes the environment dependent terms of the
// model for white point white (Y = 100 scale), background luminance factor
// yb, adapting field luminance la and surround s.
func NewViewingConditions(white [3]float64, yb, la float64, s Surround) *ViewingConditions {
	vc := &ViewingConditions{surround: s}

	rgbW := mCAT02.apply(vec3(white))
	d := s.F * (1 - (1/3.6)*math.Exp((-la-42)/92))
	d = math.Max(0, math.Min(1, d))
	for i := range vc.dRGB {
		vc.dRGB[i] = d*white[1]/rgbW[i] + 1 - d
	}

	k := 1 / (5*la + 1)
	k4 := k * k * k * k
	vc.fl = 0.2*k4*(5*la) + 0.1*(1-k4)*(1-k4)*math.Cbrt(5*la)
	vc.flRoot4 = math.Pow(vc.fl, 0.25)

	vc.n = yb / white[1]
	vc.z = 1.48 + math.Sqrt(vc.n)
	vc.nbb = 0.725 * math.Pow(1/vc.n, 0.2)
	vc.ncb = vc.nbb
	vc.chromaFactor = math.Pow(1.64-math.Pow(0.29, vc.n), 0.73)

	aw := vc.adapt(rgbW)
	vc.aw = vc.achromatic(aw)
	return vc
}

// adapt applies chromatic adaptation and the post-adaptation compression to
// CAT02 responses, returning the compressed HPE responses.
func (vc *ViewingConditions) adapt(rgb vec3) vec3 {
	var rgbC vec3
	for i := range rgb {
		rgbC[i] = vc.dRGB[i] * rgb[i]
	}
	p := cat02ToHPE.apply(rgbC)
	for i, v := range p {
		f := math.Pow(vc.fl*math.Abs(v)/100, 0.42)
		p[i] = math.Copysign(400*f/(27.13+f), v) + 0.1
	}
	return p
}

func (vc *ViewingConditions) achromatic(pa vec3) float64 {
	return (2*pa[0] + pa[1] + pa[2]/20 - 0.305) * vc.nbb
}

// Appearance carries the CIECAM02 correlates used to build CAM02-UCS.
type Appearance struct {
	J, C, H, M float64 // H is the hue angle in degrees, [0, 360)
}

// FromXYZ evaluates the forward model for a tristimulus value on the
// Y = 100 scale.
func (vc *ViewingConditions) FromXYZ(xyz [3]float64) Appearance {
	pa := vc.adapt(mCAT02.apply(vec3(xyz)))

	a := pa[0] - 12*pa[1]/11 + pa[2]/11
	b := (pa[0] + pa[1] - 2*pa[2]) / 9
	hRad := math.Atan2(b, a)
	h := hRad * 180 / math.Pi
	if h < 0 {
		h += 360
	}

	et := 0.25 * (math.Cos(hRad+2) + 3.8)
	ratio := vc.achromatic(pa) / vc.aw
	if ratio < 0 {
		// Near-black inputs can land a hair below the 0.305 offset.
		ratio = 0
	}
	j := 100 * math.Pow(ratio, vc.surround.C*vc.z)

	t := (50000.0 / 13 * vc.surround.Nc * vc.ncb) * et * math.Hypot(a, b) /
		(pa[0] + pa[1] + 21.0/20*pa[2])
	c := math.Pow(t, 0.9) * math.Sqrt(j/100) * vc.chromaFactor
	return Appearance{J: j, C: c, H: h, M: c * vc.flRoot4}
}

// UCS maps appearance correlates into CAM02-UCS (J', a', b').
func UCS(app Appearance) [3]float64 {
	jp := (1 + 100*ucsC1) * app.J / (1 + ucsC1*app.J)
	mp := math.Log1p(ucsC2*app.M) / ucsC2
	hRad := app.H * math.Pi / 180
	return [3]float64{jp, mp * math.Cos(hRad), mp * math.Sin(hRad)}
}

// JabFromXYZ converts a Y = 100 tristimulus value to CAM02-UCS.
func (vc *ViewingConditions) JabFromXYZ(xyz [3]float64) [3]float64 {
	return UCS(vc.FromXYZ(xyz))
}

// JabFromSRGB converts an 8-bit sRGB color to CAM02-UCS.
func (vc *ViewingConditions) JabFromSRGB(r, g, b uint8) [3]float64 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	x, y, z := c.Xyz()
	return vc.JabFromXYZ([3]float64{x * 100, y * 100, z * 100})
}

// JabFromSRGB converts an 8-bit sRGB color to CAM02-UCS under SRGB conditions.
func JabFromSRGB(r, g, b uint8) [3]float64 {
	return SRGB.JabFromSRGB(r, g, b)
}
