package ansi256

import (
	"bytes"
	"errors"
	"testing"
)

func frameOf(width, height int, indices ...uint8) *Frame {
	f := NewFrame(width, height)
	copy(f.Indices, indices)
	return f
}

func TestAppendFrameSingleCell(t *testing.T) {
	t.Parallel()
	got := string(AppendFrame(nil, frameOf(1, 2, 196, 21)))
	want := "\x1b[38;5;196m\x1b[48;5;21m▀\x1b[1E"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppendFrameElidesRepeatedCodes(t *testing.T) {
	t.Parallel()
	f := frameOf(3, 4,
		1, 1, 2,
		5, 5, 5,
		2, 1, 1,
		5, 6, 6,
	)
	want := "\x1b[38;5;1m\x1b[48;5;5m▀▀\x1b[38;5;2m▀\x1b[1E" +
		"▀\x1b[38;5;1m\x1b[48;5;6m▀▀\x1b[1E"
	if got := string(AppendFrame(nil, f)); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppendFrameDropsOddRow(t *testing.T) {
	t.Parallel()
	even := AppendFrame(nil, frameOf(2, 2, 1, 2, 3, 4))
	odd := AppendFrame(nil, frameOf(2, 3, 1, 2, 3, 4, 9, 9))
	if !bytes.Equal(even, odd) {
		t.Errorf("odd final row was drawn: %q vs %q", odd, even)
	}
	if got := AppendFrame(nil, frameOf(4, 1, 1, 2, 3, 4)); len(got) != 0 {
		t.Errorf("single row frame produced %q", got)
	}
}

func TestAppendFramePreservesPrefix(t *testing.T) {
	t.Parallel()
	got := AppendFrame([]byte(CursorHome), frameOf(1, 2, 0, 0))
	if !bytes.HasPrefix(got, []byte(CursorHome)) {
		t.Errorf("prefix lost: %q", got)
	}
}

func TestAppendDiff(t *testing.T) {
	t.Parallel()
	prev := frameOf(4, 2,
		1, 1, 1, 1,
		2, 2, 2, 2,
	)
	same, err := AppendDiff(nil, prev, prev)
	if err != nil {
		t.Fatal(err)
	}
	if string(same) != NextLine {
		t.Errorf("identical frame diff = %q", same)
	}

	cur := frameOf(4, 2,
		1, 7, 7, 1,
		2, 2, 2, 3,
	)
	got, err := AppendDiff(nil, cur, prev)
	if err != nil {
		t.Fatal(err)
	}
	want := "\x1b[2G\x1b[38;5;7m\x1b[48;5;2m▀▀" +
		"\x1b[38;5;1m\x1b[48;5;3m▀\x1b[1E"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}

	first := frameOf(4, 2,
		9, 1, 1, 9,
		2, 2, 2, 2,
	)
	got, err = AppendDiff(nil, first, prev)
	if err != nil {
		t.Fatal(err)
	}
	want = "\x1b[38;5;9m\x1b[48;5;2m▀\x1b[4G▀\x1b[1E"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppendDiffSizeMismatch(t *testing.T) {
	t.Parallel()
	if _, err := AppendDiff(nil, NewFrame(2, 2), NewFrame(2, 4)); !errors.Is(err, ErrFrameSize) {
		t.Errorf("got %v, want ErrFrameSize", err)
	}
	if _, err := AppendDiff(nil, NewFrame(2, 2), nil); !errors.Is(err, ErrFrameSize) {
		t.Errorf("nil previous: got %v, want ErrFrameSize", err)
	}
}

func TestFrameEncoder(t *testing.T) {
	t.Parallel()
	enc := NewFrameEncoder(true)
	a := frameOf(8, 2, 1, 2, 3, 4, 5, 6, 7, 8, 8, 7, 6, 5, 4, 3, 2, 1)

	out, key := enc.Encode(a)
	if !key {
		t.Error("first frame should be a keyframe")
	}
	if !bytes.Equal(out, AppendFrame(nil, a)) {
		t.Error("keyframe differs from AppendFrame")
	}

	// The encoder keeps its own copy.
	b := frameOf(8, 2, a.Indices...)
	a.Indices[0] = 99
	out, key = enc.Encode(b)
	if key {
		t.Error("unchanged frame should be diffed")
	}
	if string(out) != NextLine {
		t.Errorf("unchanged frame encoded as %q", out)
	}

	// Everything changed: the diff redraws every cell without moving
	// the cursor, which is exactly the full encoding.
	c := frameOf(8, 2)
	for i := range c.Indices {
		c.Indices[i] = uint8(100 + i)
	}
	if out, _ = enc.Encode(c); !bytes.Equal(out, AppendFrame(nil, c)) {
		t.Errorf("fully changed frame encoded as %q", out)
	}

	if _, key = enc.Encode(frameOf(4, 2)); !key {
		t.Error("resized frame should be a keyframe")
	}

	enc.Reset()
	if _, key = enc.Encode(frameOf(4, 2)); !key {
		t.Error("frame after Reset should be a keyframe")
	}
}

func TestFrameEncoderWithoutDiffing(t *testing.T) {
	t.Parallel()
	enc := NewFrameEncoder(false)
	f := frameOf(2, 2, 1, 1, 1, 1)
	for i := 0; i < 3; i++ {
		if _, key := enc.Encode(f); !key {
			t.Fatalf("frame %d was diffed", i)
		}
	}
}

func TestSGRCodes(t *testing.T) {
	t.Parallel()
	if got := ForegroundCode(0); got != "\x1b[38;5;0m" {
		t.Errorf("ForegroundCode(0) = %q", got)
	}
	if got := BackgroundCode(255); got != "\x1b[48;5;255m" {
		t.Errorf("BackgroundCode(255) = %q", got)
	}
}
