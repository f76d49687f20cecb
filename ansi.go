package ansi256

import (
	"fmt"
	"strconv"
)

// Control sequences used by the half-block encoder.
const (
	// UpperHalfBlock is drawn with the upper pixel as foreground and the
	// lower pixel as background.
	UpperHalfBlock = "▀"
	// NextLine moves the cursor to column 1 of the next line (CNL).
	NextLine = "\x1b[1E"
	// CursorHome moves the cursor to the top-left corner.
	CursorHome = "\x1b[H"
	// ResetAttributes restores default colors.
	ResetAttributes = "\x1b[0m"
	// HideCursor and ShowCursor toggle cursor visibility.
	HideCursor = "\x1b[?25l"
	ShowCursor = "\x1b[?25h"
)

var fgCodes, bgCodes [256]string

func init() {
	for i := range fgCodes {
		fgCodes[i] = fmt.Sprintf("\x1b[38;5;%dm", i)
		bgCodes[i] = fmt.Sprintf("\x1b[48;5;%dm", i)
	}
}

// ForegroundCode returns the SGR sequence selecting palette index i as the
// foreground color.
func ForegroundCode(i uint8) string { return fgCodes[i] }

// BackgroundCode returns the SGR sequence selecting palette index i as the
// background color.
func BackgroundCode(i uint8) string { return bgCodes[i] }

// cellWriter emits cells and elides color codes that are already in effect.
type cellWriter struct {
	buf          []byte
	upper, lower int // -1 when unknown
}

func newCellWriter(dst []byte) *cellWriter {
	return &cellWriter{buf: dst, upper: -1, lower: -1}
}

func (w *cellWriter) cell(upper, lower uint8) {
	if w.upper != int(upper) {
		w.buf = append(w.buf, fgCodes[upper]...)
		w.upper = int(upper)
	}
	if w.lower != int(lower) {
		w.buf = append(w.buf, bgCodes[lower]...)
		w.lower = int(lower)
	}
	w.buf = append(w.buf, UpperHalfBlock...)
}

// AppendFrame appends the half-block encoding of f to dst. Each text row
// covers two pixel rows; an odd final pixel row is not drawn. Every text
// row ends with NextLine.
func AppendFrame(dst []byte, f *Frame) []byte {
	w := newCellWriter(dst)
	for y := 0; y+1 < f.Height; y += 2 {
		upper := f.Indices[y*f.Width : (y+1)*f.Width]
		lower := f.Indices[(y+1)*f.Width : (y+2)*f.Width]
		for x := range upper {
			w.cell(upper[x], lower[x])
		}
		w.buf = append(w.buf, NextLine...)
	}
	return w.buf
}

// AppendDiff appends an encoding of f that only redraws the cells that
// differ from prev, moving the cursor with CHA (ESC[<col>G) over unchanged
// runs. It assumes the cursor starts where prev's first row began.
func AppendDiff(dst []byte, f, prev *Frame) ([]byte, error) {
	if !f.SameSize(prev) {
		return dst, fmt.Errorf("%w: %dx%d against previous frame", ErrFrameSize, f.Width, f.Height)
	}
	w := newCellWriter(dst)
	for y := 0; y+1 < f.Height; y += 2 {
		row := y * f.Width
		next := row + f.Width
		cursor := 0
		for x := 0; x < f.Width; x++ {
			upper, lower := f.Indices[row+x], f.Indices[next+x]
			if upper == prev.Indices[row+x] && lower == prev.Indices[next+x] {
				continue
			}
			if cursor != x {
				w.buf = append(w.buf, "\x1b["...)
				w.buf = strconv.AppendInt(w.buf, int64(x+1), 10)
				w.buf = append(w.buf, 'G')
			}
			w.cell(upper, lower)
			cursor = x + 1
		}
		w.buf = append(w.buf, NextLine...)
	}
	return w.buf, nil
}

// FrameEncoder turns a stream of frames into terminal output, choosing per
// frame between a full redraw and a diff against the previous frame.
type FrameEncoder struct {
	prev *Frame
	// Diffing enables diff encoding; without it every frame is a keyframe.
	Diffing bool
}

// NewFrameEncoder returns an encoder with diffing enabled or disabled.
func NewFrameEncoder(diffing bool) *FrameEncoder {
	return &FrameEncoder{Diffing: diffing}
}

// Encode returns the shorter of the full and diffed encodings of f and
// whether the result is a full redraw. The first frame, and any frame
// whose size differs from the previous one, is always a keyframe. The
// encoder keeps its own copy of f.
func (e *FrameEncoder) Encode(f *Frame) ([]byte, bool) {
	full := AppendFrame(nil, f)
	out, keyframe := full, true
	if e.Diffing && f.SameSize(e.prev) {
		if diffed, err := AppendDiff(nil, f, e.prev); err == nil && len(diffed) <= len(full) {
			out, keyframe = diffed, false
		}
	}
	e.remember(f)
	return out, keyframe
}

func (e *FrameEncoder) remember(f *Frame) {
	if !f.SameSize(e.prev) {
		e.prev = NewFrame(f.Width, f.Height)
	}
	copy(e.prev.Indices, f.Indices)
}

// Reset forgets the previous frame so the next Encode emits a keyframe.
func (e *FrameEncoder) Reset() {
	e.prev = nil
}
