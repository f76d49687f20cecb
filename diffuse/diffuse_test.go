package diffuse

import (
	"slices"
	"testing"

	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/wbrown/ansi256/imageutil"
)

// blackWhite maps by green channel threshold to index 0 (black) or 1 (white).
type blackWhite struct{}

func (blackWhite) NearestIndex(c imageutil.RGB) uint8 {
	if c.G >= 128 {
		return 1
	}
	return 0
}

func (blackWhite) ColorAt(i uint8) imageutil.RGB {
	if i == 1 {
		return imageutil.RGB{R: 255, G: 255, B: 255}
	}
	return imageutil.RGB{}
}

func countWhite(dst []uint8) int {
	n := 0
	for _, v := range dst {
		if v == 1 {
			n++
		}
	}
	return n
}

func TestApplyExactColorsHaveNoError(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateCheckerboardImage(16, 16, 1)
	dst := make([]uint8, 16*16)
	FloydSteinberg().Apply(img, blackWhite{}, dst)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := blackWhite{}.NearestIndex(img.GetRGB(x, y))
			if got := dst[y*16+x]; got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestApplyPreservesMeanIntensity(t *testing.T) {
	t.Parallel()
	const size = 32
	gray := imageutil.CreateSolidImage(size, size, imageutil.RGB{R: 128, G: 128, B: 128})
	for _, name := range MatrixNames() {
		for _, serpentine := range []bool{false, true} {
			m, err := ParseMatrix(name)
			if err != nil {
				t.Fatal(err)
			}
			d, err := New(m)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			d.Serpentine = serpentine
			dst := make([]uint8, size*size)
			d.Apply(gray, blackWhite{}, dst)

			// Mid gray should come out close to half white. Matrices that
			// drop part of the error (Atkinson) drift further.
			white := float64(countWhite(dst)) / float64(len(dst))
			if white < 0.35 || white > 0.65 {
				t.Errorf("%s serpentine=%v: white fraction %.3f", name, serpentine, white)
			}
		}
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateGradientImage(20, 6)
	orig := img.Clone()
	FloydSteinberg().Apply(img, blackWhite{}, make([]uint8, 20*6))
	if mse := imageutil.CalculateMSE(img, orig); mse != 0 {
		t.Errorf("input changed, MSE %f", mse)
	}
}

func TestApplyDeterministic(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateNoiseImage(24, 24, 7)
	a := make([]uint8, 24*24)
	b := make([]uint8, 24*24)
	FloydSteinberg().Apply(img, blackWhite{}, a)
	FloydSteinberg().Apply(img, blackWhite{}, b)
	if !slices.Equal(a, b) {
		t.Error("two runs over the same image differ")
	}
}

func TestApplyWrongOutputLength(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for short output")
		}
	}()
	FloydSteinberg().Apply(imageutil.NewRGBAImage(4, 4), blackWhite{}, make([]uint8, 15))
}

func TestNewCurrentPixel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		m    dither.ErrorDiffusionMatrix
		cur  int
	}{
		{"floyd-steinberg", dither.FloydSteinberg, 1},
		{"jarvis-judice-ninke", dither.JarvisJudiceNinke, 2},
		{"custom", dither.ErrorDiffusionMatrix{{0, 1}, {0.5, 0}}, 0},
	}
	for _, tt := range tests {
		d, err := New(tt.m)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if d.cur != tt.cur {
			t.Errorf("%s: current column %d, want %d", tt.name, d.cur, tt.cur)
		}
	}
}

func TestNewRejectsBadMatrices(t *testing.T) {
	t.Parallel()
	bad := map[string]dither.ErrorDiffusionMatrix{
		"empty":   {},
		"no-next": {{0, 0}, {0.5, 0.5}},
		"ragged":  {{0, 1}, {0.5}},
	}
	for name, m := range bad {
		if _, err := New(m); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseMatrix(t *testing.T) {
	t.Parallel()
	names := MatrixNames()
	if !slices.IsSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	if !slices.Contains(names, "floyd-steinberg") {
		t.Error("floyd-steinberg missing")
	}
	if _, err := ParseMatrix(" Floyd-Steinberg "); err != nil {
		t.Errorf("case-insensitive lookup failed: %v", err)
	}
	if _, err := ParseMatrix("bogus"); err == nil {
		t.Error("expected error for unknown matrix")
	}
}
