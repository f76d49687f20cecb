package ansi256

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/wbrown/ansi256/imageutil"
)

func allSearchers(t *testing.T, pp *PerceptualPalette) []*Searcher {
	t.Helper()
	var out []*Searcher
	for _, b := range []Backend{BackendScalar, BackendVec4, BackendVec8} {
		s, err := NewSearcher(pp).WithBackend(b)
		if err != nil {
			t.Fatalf("WithBackend(%v): %v", b, err)
		}
		out = append(out, s)
	}
	return out
}

func TestLabOfReferenceColors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		c    RGB
		want Point
		tol  float32
	}{
		{RGB{0, 0, 0}, Point{0, 0, 0}, 1e-4},
		{RGB{255, 255, 255}, Point{100, 0, 0}, 0.05},
		{RGB{255, 0, 0}, Point{53.24, 80.09, 67.20}, 0.05},
		{RGB{0, 0, 255}, Point{32.30, 79.19, -107.86}, 0.05},
	}
	for _, tt := range tests {
		got := LabOf(tt.c)
		for k := range got {
			if d := got[k] - tt.want[k]; d > tt.tol || d < -tt.tol {
				t.Errorf("LabOf(%v) = %v, want %v", tt.c, got, tt.want)
				break
			}
		}
	}
}

func TestJabOfWhiteAndBlack(t *testing.T) {
	t.Parallel()
	white := JabOf(RGB{255, 255, 255})
	if math.Abs(float64(white[0])-100) > 1e-3 {
		t.Errorf("white J' = %v, want 100", white[0])
	}
	black := JabOf(RGB{})
	for k, v := range black {
		if math.Abs(float64(v)) > 1e-6 {
			t.Errorf("black[%d] = %v, want 0 (got %v)", k, v, black)
		}
	}
}

func TestPerceptualTableLayout(t *testing.T) {
	t.Parallel()
	pp := DefaultPerceptualPalette()
	lab, jab, cie := pp.LabTable(), pp.JabTable(), pp.CIE94Table()
	for i := 0; i < 256; i++ {
		if lab[i*4+3] != 0 || jab[i*4+3] != 0 || cie[i*8+7] != 0 {
			t.Fatalf("entry %d: pad lane is not zero", i)
		}
		want := LabOf(DefaultPalette[i])
		if got := pp.Lab(uint8(i)); got != want {
			t.Fatalf("entry %d: Lab %v, want %v", i, got, want)
		}
		if cie[i*8+4] != 1 {
			t.Fatalf("entry %d: S_L = %v, want 1", i, cie[i*8+4])
		}
		c := cie[i*8+3]
		if sc := cie[i*8+5]; math.Abs(float64(sc-(1+0.045*c))) > 1e-5 {
			t.Fatalf("entry %d: S_C = %v for C %v", i, sc, c)
		}
		if sh := cie[i*8+6]; math.Abs(float64(sh-(1+0.015*c))) > 1e-5 {
			t.Fatalf("entry %d: S_H = %v for C %v", i, sh, c)
		}
	}
}

func TestDefaultPerceptualPaletteOnce(t *testing.T) {
	t.Parallel()
	const n = 16
	got := make([]*PerceptualPalette, n)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = DefaultPerceptualPalette()
		}()
	}
	wg.Wait()
	for i, pp := range got {
		if pp != got[0] {
			t.Fatalf("caller %d observed a different palette", i)
		}
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()
	// The xterm palette repeats its system colors in the cube.
	pp := DefaultPerceptualPalette()
	for _, m := range Metrics {
		if err := pp.Distinct(m); !errors.Is(err, ErrIndistinctPalette) {
			t.Errorf("%v: got %v, want ErrIndistinctPalette", m, err)
		}
	}

	var unique Palette
	for i := range unique {
		unique[i] = RGB{R: uint8(i), G: 128, B: uint8(255 - i)}
	}
	for _, m := range Metrics {
		if err := NewPerceptualPalette(unique).Distinct(m); err != nil {
			t.Errorf("%v: unexpected error %v", m, err)
		}
	}
}

func TestNearestSelfMatch(t *testing.T) {
	t.Parallel()
	pp := DefaultPerceptualPalette()
	for _, s := range allSearchers(t, pp) {
		for _, m := range Metrics {
			for i, c := range DefaultPalette {
				want, _ := DefaultPalette.FirstIndex(c)
				got := s.NearestRGB(c, m)
				if got.Index != want || got.Distance != 0 {
					t.Errorf("%v/%v entry %d: got %d (d=%v), want %d at 0",
						s.Backend(), m, i, got.Index, got.Distance, want)
				}
			}
		}
	}
}

func TestNearestBackendsAgree(t *testing.T) {
	t.Parallel()
	searchers := allSearchers(t, DefaultPerceptualPalette())
	img := imageutil.CreateNoiseImage(64, 16, 99)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			for _, m := range Metrics {
				want := searchers[0].NearestRGB(c, m)
				for _, s := range searchers[1:] {
					if got := s.NearestRGB(c, m); got != want {
						t.Fatalf("%v %v: %v got %+v, scalar %+v", c, m, s.Backend(), got, want)
					}
				}
			}
		}
	}
}

func TestNearestIdempotent(t *testing.T) {
	t.Parallel()
	s := NewSearcher(DefaultPerceptualPalette())
	img := imageutil.CreateHueSweepImage(48, 8)
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			for _, m := range Metrics {
				first := s.NearestRGB(img.GetRGB(x, y), m).Index
				again := s.NearestRGB(DefaultPalette[first], m).Index
				if again != first {
					t.Errorf("%v: remapping entry %d gave %d", m, first, again)
				}
			}
		}
	}
}

func TestNearestDistanceMatchesMetric(t *testing.T) {
	t.Parallel()
	pp := DefaultPerceptualPalette()
	s := NewSearcher(pp)
	c := RGB{200, 120, 40}
	for _, m := range Metrics {
		q := m.Convert(c)
		got := s.Nearest(q, m)
		if want := m.Distance(pp.Coordinates(m, got.Index), q); got.Distance != want {
			t.Errorf("%v: reported %v, recomputed %v", m, got.Distance, want)
		}
		for i := range 256 {
			if d := m.Distance(pp.Coordinates(m, uint8(i)), q); d < got.Distance {
				t.Errorf("%v: entry %d at %v beats reported best %d at %v", m, i, d, got.Index, got.Distance)
			}
		}
	}
}

func TestNearestTieGoesToLowestIndex(t *testing.T) {
	t.Parallel()
	var p Palette
	for i := range p {
		p[i] = RGB{R: 255, G: 255, B: 255}
	}
	// Two blacks equally far from everything; the lower one must win.
	p[40] = RGB{}
	p[200] = RGB{}
	for _, s := range allSearchers(t, NewPerceptualPalette(p)) {
		for _, m := range Metrics {
			if got := s.NearestRGB(RGB{10, 10, 10}, m).Index; got != 40 {
				t.Errorf("%v/%v: got %d, want 40", s.Backend(), m, got)
			}
		}
	}
}

func TestWithBackendRejectsUnknown(t *testing.T) {
	t.Parallel()
	if _, err := NewSearcher(DefaultPerceptualPalette()).WithBackend(Backend(9)); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMetricParse(t *testing.T) {
	t.Parallel()
	tests := map[string]Metric{
		"cam02": CAM02, "CAM02-UCS": CAM02, "jab": CAM02,
		"cie94": CIE94, "cie76": CIE76, " lab ": CIE76,
	}
	for in, want := range tests {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMetric("ciede2000"); !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("got %v, want ErrInvalidMetric", err)
	}
	for _, m := range Metrics {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Metric
		if err := back.UnmarshalText(text); err != nil || back != m {
			t.Errorf("%v: text round trip gave %v, %v", m, back, err)
		}
	}
	if _, err := Metric(7).MarshalText(); err == nil {
		t.Error("expected error marshalling invalid metric")
	}
}
