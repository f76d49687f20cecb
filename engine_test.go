package ansi256

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/wbrown/ansi256/imageutil"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	if c.Metric != CAM02 || c.Dither != DitherFloydSteinberg ||
		c.MatrixSize != Matrix4x4 || c.Multiplier != 0.09 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestConfigValidateJoinsErrors(t *testing.T) {
	t.Parallel()
	c := Config{
		Metric:     Metric(9),
		Dither:     DitherPattern,
		MatrixSize: 5,
		Multiplier: float32(math.NaN()),
	}
	err := c.Validate()
	for _, want := range []error{ErrInvalidMetric, ErrInvalidMatrixSize, ErrInvalidMultiplier} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() = %v, missing %v", err, want)
		}
	}

	// Pattern parameters are ignored by the other methods.
	c = Config{Metric: CIE76, Dither: DitherNone, MatrixSize: 5}
	if err := c.Validate(); err != nil {
		t.Errorf("unused matrix size rejected: %v", err)
	}

	c = Config{Dither: DitherMethod(7)}
	if err := c.Validate(); !errors.Is(err, ErrInvalidDither) {
		t.Errorf("got %v, want ErrInvalidDither", err)
	}
}

func TestConfigJSON(t *testing.T) {
	t.Parallel()
	in := `{"metric":"cie94","dither":"pattern","matrix_size":"8x8","multiplier":0.2}`
	var c Config
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Config{Metric: CIE94, Dither: DitherPattern, MatrixSize: Matrix8x8, Multiplier: 0.2}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
	if err := json.Unmarshal([]byte(`{"metric":"rgb"}`), &c); !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("got %v, want ErrInvalidMetric", err)
	}
}

func TestConfigJSONWithoutPattern(t *testing.T) {
	t.Parallel()
	c := Config{Metric: CIE94, Dither: DitherNone}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "matrix_size") {
		t.Errorf("zero matrix size was encoded: %s", data)
	}
	var back Config
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	if back != c {
		t.Errorf("round trip = %+v, want %+v", back, c)
	}
	if err := json.Unmarshal([]byte(`{"matrix_size":""}`), &back); err != nil || back.MatrixSize != 0 {
		t.Errorf("empty matrix size: %v, %v", back.MatrixSize, err)
	}
	if _, err := json.Marshal(Config{MatrixSize: 6}); !errors.Is(err, ErrInvalidMatrixSize) {
		t.Errorf("Marshal with size 6: got %v, want ErrInvalidMatrixSize", err)
	}
}

func TestNewEngineRejectsInvalidOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts []EngineOption
		want error
	}{
		{"metric", []EngineOption{WithMetric(Metric(4))}, ErrInvalidMetric},
		{"matrix", []EngineOption{WithPattern(6, 0.09)}, ErrInvalidMatrixSize},
		{"multiplier", []EngineOption{WithPattern(Matrix2x2, float32(math.Inf(1)))}, ErrInvalidMultiplier},
		{"dither", []EngineOption{WithDither(DitherMethod(3))}, ErrInvalidDither},
	}
	for _, tt := range tests {
		if _, err := NewEngine(tt.opts...); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
	if _, err := NewEngine(WithDiffusionMatrix("no-such-matrix")); err == nil {
		t.Error("expected error for unknown diffusion matrix")
	}
	if _, err := NewEngine(WithBackend(Backend(42))); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func engineOptions() map[string][]EngineOption {
	return map[string][]EngineOption{
		"none":       {WithDither(DitherNone)},
		"fs":         {WithFloydSteinberg()},
		"serpentine": {WithConfig(Config{Metric: CIE94, Dither: DitherFloydSteinberg, Serpentine: true})},
		"atkinson":   {WithDiffusionMatrix("atkinson"), WithMetric(CIE76)},
		"pattern2":   {WithPattern(Matrix2x2, 0.09)},
		"pattern8":   {WithPattern(Matrix8x8, 0.09), WithMetric(CIE94), WithWorkers(2)},
	}
}

func TestEngineExactPaletteImage(t *testing.T) {
	t.Parallel()
	for name, opts := range engineOptions() {
		e, err := NewEngine(opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, idx := range []uint8{9, 67, 100, 250} {
			img := imageutil.CreateSolidImage(9, 7, DefaultPalette[idx])
			f := e.Quantize(img)
			for i, got := range f.Indices {
				if got != idx {
					t.Fatalf("%s: entry %d pixel %d mapped to %d", name, idx, i, got)
				}
			}
		}
	}
}

func TestEngineRenderUsesPaletteColors(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateColorBarsImage(32, 16)
	for name, opts := range engineOptions() {
		e, err := NewEngine(opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		out := e.Render(img)
		if out.Width() != 32 || out.Height() != 16 {
			t.Fatalf("%s: rendered %dx%d", name, out.Width(), out.Height())
		}
		for y := 0; y < out.Height(); y++ {
			for x := 0; x < out.Width(); x++ {
				if _, ok := DefaultPalette.FirstIndex(out.GetRGB(x, y)); !ok {
					t.Fatalf("%s: pixel (%d,%d) %v is not a palette color", name, x, y, out.GetRGB(x, y))
				}
			}
		}
	}
}

func TestEngineReducesError(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateGradientImage(64, 16)
	e, err := NewEngine(WithDither(DitherNone))
	if err != nil {
		t.Fatal(err)
	}
	mse := imageutil.CalculateMSE(img, e.Render(img))
	// The 256 color palette approximates a gray gradient closely.
	if mse > 50 {
		t.Errorf("nearest mapping MSE %.2f", mse)
	}
}

func TestEngineKeepsPaletteEdges(t *testing.T) {
	t.Parallel()
	// Gray 128, white and black are all xterm entries.
	img := imageutil.CreateEdgeImage(40, 24)
	for name, opts := range engineOptions() {
		e, err := NewEngine(opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if d := imageutil.CalculateMaxDiff(img, e.Render(img)); d != 0 {
			t.Errorf("%s: max channel difference %d on a palette-only image", name, d)
		}
	}
}

func TestEngineRenderIdempotent(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateVerticalGradientImage(24, 48)
	for name, opts := range engineOptions() {
		e, err := NewEngine(opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		once := e.Render(img)
		if d := imageutil.CalculateMaxDiff(once, e.Render(once)); d != 0 {
			t.Errorf("%s: rendering twice changed a pixel by %d", name, d)
		}
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	t.Parallel()
	img := imageutil.CreateHueSweepImage(40, 20)
	for name, opts := range engineOptions() {
		e, err := NewEngine(opts...)
		if err != nil {
			t.Fatal(err)
		}
		want := e.Quantize(img)
		var wg sync.WaitGroup
		errs := make(chan string, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !e.Quantize(img).Equal(want) {
					errs <- name
				}
			}()
		}
		wg.Wait()
		close(errs)
		for n := range errs {
			t.Errorf("%s: concurrent quantize differs", n)
		}
	}
}

func TestEngineCustomPalette(t *testing.T) {
	t.Parallel()
	var gray Palette
	for i := range gray {
		gray[i] = RGB{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	e, err := NewEngine(WithPalette(gray), WithDither(DitherNone), WithMetric(CIE76))
	if err != nil {
		t.Fatal(err)
	}
	f := e.Quantize(imageutil.CreateSolidImage(2, 2, RGB{R: 77, G: 77, B: 77}))
	if f.At(1, 1) != 77 {
		t.Errorf("gray 77 mapped to %d", f.At(1, 1))
	}
	if e.Palette().ColorAt(200) != gray[200] {
		t.Error("engine palette is not the one supplied")
	}
}

func TestEngineLogsAtDebug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := NewEngine(WithLogger(logger), WithBackend(BackendScalar))
	if err != nil {
		t.Fatal(err)
	}
	e.Quantize(imageutil.CreateGradientImage(8, 8))
	for _, want := range []string{"engine configured", "backend=scalar", "native=true", "lookup cache", "frame quantized"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestEngineWarnsOnEmulatedBackend(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	if _, err := NewEngine(WithLogger(logger), WithBackend(BackendVec8)); err != nil {
		t.Fatal(err)
	}
	warned := strings.Contains(buf.String(), "without vector instructions")
	if warned == NativeBackend(BackendVec8) {
		t.Errorf("native=%v but warned=%v:\n%s", NativeBackend(BackendVec8), warned, buf.String())
	}
}

func TestParseDitherMethod(t *testing.T) {
	t.Parallel()
	good := map[string]DitherMethod{
		"none": DitherNone, "fs": DitherFloydSteinberg,
		"Floyd-Steinberg": DitherFloydSteinberg, "pattern": DitherPattern, "ordered": DitherPattern,
	}
	for in, want := range good {
		got, err := ParseDitherMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseDitherMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDitherMethod("bayer"); !errors.Is(err, ErrInvalidDither) {
		t.Errorf("got %v, want ErrInvalidDither", err)
	}
}

func TestLookupCache(t *testing.T) {
	t.Parallel()
	e, err := NewEngine(WithMetric(CIE76))
	if err != nil {
		t.Fatal(err)
	}
	c := newLookupCache(e.ColorMap())
	colors := []RGB{{10, 20, 30}, {10, 20, 30}, {200, 0, 0}, {10, 20, 30}}
	for _, rgb := range colors {
		if got, want := c.NearestIndex(rgb), e.ColorMap().NearestIndex(rgb); got != want {
			t.Errorf("cached %v = %d, want %d", rgb, got, want)
		}
	}
	stats := c.stats()
	if stats.Hits != 2 || stats.Misses != 2 {
		t.Errorf("stats = %+v, want 2 hits 2 misses", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("hit rate %v", stats.HitRate())
	}
	if (CacheStats{}).HitRate() != 0 {
		t.Error("empty stats should report zero")
	}
}
