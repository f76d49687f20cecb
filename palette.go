package ansi256

import (
	"embed"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/wbrown/ansi256/imageutil"
)

//go:embed colordata/ansi256.json
//go:embed colordata/vga256.json
var colordata embed.FS

// RGB is an 8-bit sRGB color.
type RGB = imageutil.RGB

// Palette is the ordered table of terminal colors. The position of a color
// is its ANSI 256 color index.
type Palette [256]RGB

// cubeLevels are the channel intensities of the 6x6x6 color cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// DefaultPalette is the xterm 256 color palette: 16 system colors, the
// 6x6x6 cube at indices 16-231 and a 24 step gray ramp from 8 to 238.
var DefaultPalette = xtermPalette()

func xtermPalette() Palette {
	p := Palette{
		{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
		{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
		{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	i := 16
	for _, r := range cubeLevels {
		for _, g := range cubeLevels {
			for _, b := range cubeLevels {
				p[i] = RGB{R: r, G: g, B: b}
				i++
			}
		}
	}
	for step := 0; step < 24; step++ {
		v := uint8(8 + 10*step)
		p[i] = RGB{R: v, G: v, B: v}
		i++
	}
	return p
}

// ColorPalette returns the palette as a standard library color.Palette.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c.ToColor()
	}
	return cp
}

// FirstIndex returns the lowest index holding c.
func (p *Palette) FirstIndex(c RGB) (uint8, bool) {
	for i, pc := range p {
		if pc == c {
			return uint8(i), true
		}
	}
	return 0, false
}

// LoadPalette loads a palette by name from the embedded color data, or
// from a JSON file on disk when no embedded palette has that name.
func LoadPalette(name string) (Palette, error) {
	// First, try the VFS.
	data, vfsErr := colordata.ReadFile(fmt.Sprintf("colordata/%s.json", name))
	if vfsErr != nil {
		// If the VFS fails, try the filesystem.
		var fsErr error
		data, fsErr = os.ReadFile(name)
		if fsErr != nil {
			return Palette{}, fmt.Errorf("error reading palette %s: %w", name, fsErr)
		}
	}
	p, err := ParsePaletteJSON(data)
	if err != nil {
		return Palette{}, fmt.Errorf("palette %s: %w", name, err)
	}
	return p, nil
}

// ParsePaletteJSON parses a palette from a JSON object mapping SGR color
// codes to hex colors, e.g. {"38;5;196": "#ff0000", "48;5;196": "#ff0000"}.
// Every foreground code 38;5;0 through 38;5;255 must be present. Background
// codes are optional but must agree with the foreground entry of the same
// index.
func ParsePaletteJSON(data []byte) (Palette, error) {
	var colorMap map[string]string
	if err := json.Unmarshal(data, &colorMap); err != nil {
		return Palette{}, fmt.Errorf("error unmarshalling JSON: %w", err)
	}

	var (
		p       Palette
		fgSeen  [256]bool
		bgColor = map[int]RGB{}
	)
	for code, hex := range colorMap {
		fg, idx, err := parseIndexedCode(code)
		if err != nil {
			return Palette{}, err
		}
		c, err := imageutil.ParseHex(hex)
		if err != nil {
			return Palette{}, fmt.Errorf("code %s: %w", code, err)
		}
		if fg {
			p[idx], fgSeen[idx] = c, true
		} else {
			bgColor[idx] = c
		}
	}

	missing := 0
	first := -1
	for i, ok := range fgSeen {
		if !ok {
			if first < 0 {
				first = i
			}
			missing++
		}
	}
	if missing > 0 {
		return Palette{}, fmt.Errorf("%w: %d foreground entries missing, first is 38;5;%d",
			ErrPaletteSize, missing, first)
	}
	for idx, c := range bgColor {
		if p[idx] != c {
			return Palette{}, fmt.Errorf("background 48;5;%d is %s but foreground is %s",
				idx, c.Hex(), p[idx].Hex())
		}
	}
	return p, nil
}

// parseIndexedCode parses "38;5;N" or "48;5;N".
func parseIndexedCode(code string) (fg bool, idx int, err error) {
	var rest string
	switch {
	case strings.HasPrefix(code, "38;5;"):
		fg, rest = true, code[len("38;5;"):]
	case strings.HasPrefix(code, "48;5;"):
		rest = code[len("48;5;"):]
	default:
		return false, 0, fmt.Errorf("unknown color code type: %s", code)
	}
	idx, err = strconv.Atoi(rest)
	if err != nil || idx < 0 || idx > 255 {
		return false, 0, fmt.Errorf("%w: color code %s is outside 0-255", ErrPaletteSize, code)
	}
	return fg, idx, nil
}
