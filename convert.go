package ansi256

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/wbrown/ansi256/internal/cam02"
)

// Point is a perceptual coordinate triple: (L*, a*, b*) in CIELAB or
// (J', a', b') in CAM02-UCS.
type Point [3]float32

// LabOf converts an sRGB color to CIELAB under the D65 white point
// (95.047, 100, 108.883). L* is in [0, 100].
func LabOf(c RGB) Point {
	l, a, b := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Lab()
	// go-colorful reports L in [0, 1] and a, b scaled to match.
	return Point{float32(l * 100), float32(a * 100), float32(b * 100)}
}

// JabOf converts an sRGB color to CAM02-UCS under sRGB viewing conditions.
func JabOf(c RGB) Point {
	jab := cam02.JabFromSRGB(c.R, c.G, c.B)
	return Point{float32(jab[0]), float32(jab[1]), float32(jab[2])}
}
