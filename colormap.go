package ansi256

import (
	"fmt"
	"image/color"

	"github.com/soniakeys/quant"

	"github.com/wbrown/ansi256/diffuse"
	"github.com/wbrown/ansi256/imageutil"
)

// ColorMap binds a searcher to one metric so that any palette-based
// traversal can query it. It satisfies diffuse.Mapper, color.Model and
// quant.Palette.
type ColorMap struct {
	search *Searcher
	metric Metric
}

var (
	_ diffuse.Mapper = (*ColorMap)(nil)
	_ color.Model    = (*ColorMap)(nil)
	_ quant.Palette  = (*ColorMap)(nil)
)

// NewColorMap returns a ColorMap searching s under metric m.
func NewColorMap(s *Searcher, m Metric) (*ColorMap, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMetric, uint8(m))
	}
	return &ColorMap{search: s, metric: m}, nil
}

// Metric returns the metric the map searches with.
func (c *ColorMap) Metric() Metric { return c.metric }

// NearestIndex returns the index of the palette entry closest to rgb.
func (c *ColorMap) NearestIndex(rgb RGB) uint8 {
	return c.search.NearestRGB(rgb, c.metric).Index
}

// ColorAt returns the palette color at index i.
func (c *ColorMap) ColorAt(i uint8) RGB {
	return c.search.pal.ColorAt(i)
}

// MapColor replaces rgb with its nearest palette color. Mapping a palette
// color again returns it unchanged.
func (c *ColorMap) MapColor(rgb RGB) RGB {
	return c.ColorAt(c.NearestIndex(rgb))
}

// Convert implements color.Model.
func (c *ColorMap) Convert(col color.Color) color.Color {
	return c.MapColor(imageutil.RGBFromColor(col)).ToColor()
}

// Len implements quant.Palette.
func (c *ColorMap) Len() int { return len(Palette{}) }

// IndexNear implements quant.Palette.
func (c *ColorMap) IndexNear(col color.Color) int {
	return int(c.NearestIndex(imageutil.RGBFromColor(col)))
}

// ColorNear implements quant.Palette. It is the same mapping as Convert.
func (c *ColorMap) ColorNear(col color.Color) color.Color {
	return c.Convert(col)
}

// ColorPalette implements quant.Palette.
func (c *ColorMap) ColorPalette() color.Palette {
	p := c.search.pal.Palette()
	return p.ColorPalette()
}
