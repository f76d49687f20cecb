// Package preview rasterizes half-block terminal frames into images, so
// quantized output can be inspected without a terminal.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/wbrown/ansi256"
)

const (
	// GlyphWidth and GlyphHeight define the character cell size.
	GlyphWidth  = 8
	GlyphHeight = 8
)

// GlyphBitmap represents an 8x8 character as a 64-bit integer.
// Each bit represents a pixel: 1 = foreground, 0 = background.
type GlyphBitmap uint64

// Block characters a frame can contain.
var blockRunes = []rune{' ', '▀', '▄', '█'}

// Cell is one character cell of a terminal frame.
type Cell struct {
	Rune   rune
	FG, BG ansi256.RGB
}

// FontBitmaps holds the bitmaps used to draw block characters.
type FontBitmaps struct {
	glyphs map[rune]GlyphBitmap
	name   string
}

// Bit reports whether pixel (x, y) is foreground.
func (g GlyphBitmap) Bit(x, y int) bool {
	if x < 0 || x >= GlyphWidth || y < 0 || y >= GlyphHeight {
		return false
	}
	return g&(1<<(y*GlyphWidth+x)) != 0
}

func (g *GlyphBitmap) setBit(x, y int) {
	*g |= 1 << (y*GlyphWidth + x)
}

// rowsMask returns a glyph with rows [y0, y1) set.
func rowsMask(y0, y1 int) GlyphBitmap {
	var g GlyphBitmap
	for y := y0; y < y1; y++ {
		for x := 0; x < GlyphWidth; x++ {
			g.setBit(x, y)
		}
	}
	return g
}

// Builtin returns exact geometric bitmaps for the block characters.
func Builtin() *FontBitmaps {
	return &FontBitmaps{
		name: "builtin",
		glyphs: map[rune]GlyphBitmap{
			' ': 0,
			'▀': rowsMask(0, GlyphHeight/2),
			'▄': rowsMask(GlyphHeight/2, GlyphHeight),
			'█': rowsMask(0, GlyphHeight),
		},
	}
}

// LoadFontBitmaps rasterizes the block characters of a TrueType font, to
// preview how a particular terminal font draws them.
func LoadFontBitmaps(path string) (*FontBitmaps, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	ttf, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	fb := &FontBitmaps{glyphs: make(map[rune]GlyphBitmap), name: path}
	for _, r := range blockRunes {
		fb.glyphs[r] = renderGlyphToBitmap(ttf, r)
	}
	return fb, nil
}

// Name identifies the glyph source.
func (fb *FontBitmaps) Name() string { return fb.name }

// renderGlyphToBitmap renders a single glyph to an 8x8 bitmap. Coverage
// above 25% counts as foreground so that anti-aliased edges survive.
func renderGlyphToBitmap(ttf *truetype.Font, r rune) GlyphBitmap {
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    float64(GlyphHeight),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	img := image.NewAlpha(image.Rect(0, 0, GlyphWidth, GlyphHeight))

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(float64(GlyphHeight))
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.White)
	ctx.SetHinting(font.HintingFull)

	// Baseline from the font metrics (26.6 fixed point) so block glyphs
	// that span ascent to descent fill the cell.
	metrics := face.Metrics()
	ascent := metrics.Ascent >> 6
	descent := metrics.Descent >> 6
	baselineY := (GlyphHeight + int(ascent) - int(descent)) / 2

	// Drawing errors only occur for missing glyphs, which render empty.
	_, _ = ctx.DrawString(string(r), freetype.Pt(0, baselineY))

	var bitmap GlyphBitmap
	for y := 0; y < GlyphHeight; y++ {
		for x := 0; x < GlyphWidth; x++ {
			if img.AlphaAt(x, y).A > 64 {
				bitmap.setBit(x, y)
			}
		}
	}
	return bitmap
}

// Glyph returns the bitmap for a character.
func (fb *FontBitmaps) Glyph(r rune) (GlyphBitmap, bool) {
	g, ok := fb.glyphs[r]
	return g, ok
}

// RenderCells draws a grid of cells, each GlyphWidth*scale pixels wide.
// Characters without a bitmap are drawn as background.
func (fb *FontBitmaps) RenderCells(cells [][]Cell, scale int) *image.RGBA {
	scale = max(scale, 1)
	if len(cells) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	cw, ch := GlyphWidth*scale, GlyphHeight*scale
	img := image.NewRGBA(image.Rect(0, 0, len(cells[0])*cw, len(cells)*ch))
	for y, row := range cells {
		for x, c := range row {
			fb.renderCell(img, c, x*cw, y*ch, scale)
		}
	}
	return img
}

func (fb *FontBitmaps) renderCell(img *image.RGBA, c Cell, startX, startY, scale int) {
	bitmap, ok := fb.glyphs[c.Rune]
	if !ok {
		fillRect(img, startX, startY, GlyphWidth*scale, GlyphHeight*scale, c.BG.ToColor())
		return
	}
	fg, bg := c.FG.ToColor(), c.BG.ToColor()
	for y := 0; y < GlyphHeight; y++ {
		for x := 0; x < GlyphWidth; x++ {
			col := bg
			if bitmap.Bit(x, y) {
				col = fg
			}
			fillRect(img, startX+x*scale, startY+y*scale, scale, scale, col)
		}
	}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// FrameCells lays out f the way the half-block encoder emits it: one
// upper-half-block cell per pair of pixel rows, upper pixel in the
// foreground.
func FrameCells(f *ansi256.Frame, p *ansi256.Palette) [][]Cell {
	cells := make([][]Cell, f.Height/2)
	for ty := range cells {
		row := make([]Cell, f.Width)
		for x := range row {
			row[x] = Cell{
				Rune: '▀',
				FG:   p[f.At(x, 2*ty)],
				BG:   p[f.At(x, 2*ty+1)],
			}
		}
		cells[ty] = row
	}
	return cells
}

// RenderFrame draws f as it would appear in a terminal using fb.
func (fb *FontBitmaps) RenderFrame(f *ansi256.Frame, p *ansi256.Palette, scale int) *image.RGBA {
	return fb.RenderCells(FrameCells(f, p), scale)
}
