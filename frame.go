package ansi256

import (
	"fmt"
	"image"
	"image/color"

	"github.com/wbrown/ansi256/imageutil"
)

// Frame is a quantized image: one palette index per pixel, row-major.
type Frame struct {
	Width, Height int
	Indices       []uint8
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Indices: make([]uint8, width*height)}
}

// At returns the palette index at (x, y).
func (f *Frame) At(x, y int) uint8 {
	return f.Indices[y*f.Width+x]
}

// Set stores a palette index at (x, y).
func (f *Frame) Set(x, y int, idx uint8) {
	f.Indices[y*f.Width+x] = idx
}

// SameSize reports whether f and o have identical geometry.
func (f *Frame) SameSize(o *Frame) bool {
	return o != nil && f.Width == o.Width && f.Height == o.Height
}

// Equal reports whether f and o have the same geometry and indices.
func (f *Frame) Equal(o *Frame) bool {
	if !f.SameSize(o) {
		return false
	}
	for i, v := range f.Indices {
		if o.Indices[i] != v {
			return false
		}
	}
	return true
}

// RGBA renders the frame with every pixel replaced by its palette color.
func (f *Frame) RGBA(p *Palette) *imageutil.RGBAImage {
	img := imageutil.NewRGBAImage(f.Width, f.Height)
	for i, idx := range f.Indices {
		c := p[idx]
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0], px[1], px[2], px[3] = c.R, c.G, c.B, 255
	}
	return img
}

// Paletted returns the frame as an *image.Paletted sharing f.Indices.
func (f *Frame) Paletted(p *Palette) *image.Paletted {
	return &image.Paletted{
		Pix:     f.Indices,
		Stride:  f.Width,
		Rect:    image.Rect(0, 0, f.Width, f.Height),
		Palette: p.ColorPalette(),
	}
}

// Scaled renders the frame with every pixel drawn as a scale x scale
// square, for inspecting small frames.
func (f *Frame) Scaled(p *Palette, scale int) (*imageutil.RGBAImage, error) {
	if scale < 1 {
		return nil, fmt.Errorf("scale must be positive, got %d", scale)
	}
	img := imageutil.NewRGBAImage(f.Width*scale, f.Height*scale)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := p[f.At(x, y)].ToColor()
			fillRect(img, x*scale, y*scale, scale, scale, c)
		}
	}
	return img, nil
}

func fillRect(img *imageutil.RGBAImage, x, y, w, h int, c color.RGBA) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
}
