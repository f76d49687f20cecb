package ansi256

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/ansi256/diffuse"
	"github.com/wbrown/ansi256/imageutil"
)

// DitherMethod selects how a frame is reduced to palette indices.
type DitherMethod uint8

const (
	// DitherNone maps every pixel to its nearest palette entry.
	DitherNone DitherMethod = iota
	// DitherFloydSteinberg runs sequential error diffusion.
	DitherFloydSteinberg
	// DitherPattern runs Bayer-ordered pattern dithering.
	DitherPattern
)

func (d DitherMethod) String() string {
	switch d {
	case DitherNone:
		return "none"
	case DitherFloydSteinberg:
		return "floyd-steinberg"
	case DitherPattern:
		return "pattern"
	default:
		return fmt.Sprintf("DitherMethod(%d)", uint8(d))
	}
}

// Valid reports whether d is a known method.
func (d DitherMethod) Valid() bool {
	return d <= DitherPattern
}

// ParseDitherMethod parses a method name as produced by String, plus the
// aliases "fs", "diffusion" and "ordered".
func ParseDitherMethod(s string) (DitherMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "nearest":
		return DitherNone, nil
	case "floyd-steinberg", "fs", "diffusion":
		return DitherFloydSteinberg, nil
	case "pattern", "ordered", "ordered-pattern":
		return DitherPattern, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDither, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DitherMethod) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDither, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DitherMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseDitherMethod(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Config is the complete set of quantization parameters. It is fixed for
// the lifetime of an Engine.
type Config struct {
	Metric     Metric       `json:"metric"`
	Dither     DitherMethod `json:"dither"`
	MatrixSize MatrixSize   `json:"matrix_size,omitempty"`
	// Multiplier scales the accumulated error in pattern dithering.
	Multiplier float32 `json:"multiplier"`
	// DiffusionMatrix names an entry of diffuse.Matrices; empty means
	// Floyd–Steinberg.
	DiffusionMatrix string `json:"diffusion_matrix,omitempty"`
	Serpentine      bool   `json:"serpentine,omitempty"`
	// Workers bounds the goroutines used by the parallel methods.
	// Zero or less means one goroutine per band of rows.
	Workers int `json:"workers,omitempty"`
}

// DefaultConfig returns Floyd–Steinberg diffusion under CAM02-UCS, with
// pattern parameters of a 4x4 matrix and a 0.09 multiplier.
func DefaultConfig() Config {
	return Config{
		Metric:     CAM02,
		Dither:     DitherFloydSteinberg,
		MatrixSize: Matrix4x4,
		Multiplier: 0.09,
	}
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	var errs []error
	if !c.Metric.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidMetric, uint8(c.Metric)))
	}
	if !c.Dither.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidDither, uint8(c.Dither)))
	}
	if c.Dither == DitherPattern {
		if !c.MatrixSize.Valid() {
			errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidMatrixSize, uint8(c.MatrixSize)))
		}
		if f := float64(c.Multiplier); math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidMultiplier, c.Multiplier))
		}
	}
	if c.Dither == DitherFloydSteinberg && c.DiffusionMatrix != "" {
		if _, err := diffuse.ParseMatrix(c.DiffusionMatrix); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Engine quantizes frames to a 256 color palette. An Engine holds no
// per-frame state and may be used from several goroutines at once.
type Engine struct {
	config   Config
	pal      *PerceptualPalette
	backend  Backend
	search   *Searcher
	cmap     *ColorMap
	pattern  *PatternDitherer
	diffuser *diffuse.Diffuser
	logger   *slog.Logger
}

// EngineOption is a functional option for configuring an Engine.
type EngineOption func(*Engine)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) EngineOption {
	return func(e *Engine) {
		e.config = c
	}
}

// WithMetric sets the distance metric.
func WithMetric(m Metric) EngineOption {
	return func(e *Engine) {
		e.config.Metric = m
	}
}

// WithDither sets the dithering method.
func WithDither(d DitherMethod) EngineOption {
	return func(e *Engine) {
		e.config.Dither = d
	}
}

// WithPattern selects pattern dithering with the given matrix size and
// error multiplier.
func WithPattern(size MatrixSize, multiplier float32) EngineOption {
	return func(e *Engine) {
		e.config.Dither = DitherPattern
		e.config.MatrixSize = size
		e.config.Multiplier = multiplier
	}
}

// WithFloydSteinberg selects Floyd–Steinberg error diffusion.
func WithFloydSteinberg() EngineOption {
	return func(e *Engine) {
		e.config.Dither = DitherFloydSteinberg
		e.config.DiffusionMatrix = ""
	}
}

// WithDiffusionMatrix selects error diffusion with a named matrix from
// diffuse.Matrices.
func WithDiffusionMatrix(name string) EngineOption {
	return func(e *Engine) {
		e.config.Dither = DitherFloydSteinberg
		e.config.DiffusionMatrix = name
	}
}

// WithWorkers bounds the goroutines used per frame.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.config.Workers = n
	}
}

// WithPalette quantizes to p instead of DefaultPalette. The perceptual
// tables for p are computed when the Engine is built.
func WithPalette(p Palette) EngineOption {
	return func(e *Engine) {
		e.pal = NewPerceptualPalette(p)
	}
}

// WithPerceptualPalette shares already computed tables.
func WithPerceptualPalette(pp *PerceptualPalette) EngineOption {
	return func(e *Engine) {
		e.pal = pp
	}
}

// WithBackend forces a palette scan implementation.
func WithBackend(b Backend) EngineOption {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine with the given options applied on top of
// DefaultConfig. All parameters are validated here; quantizing never fails.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		config:  DefaultConfig(),
		backend: DetectedBackend(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if e.pal == nil {
		e.pal = DefaultPerceptualPalette()
	}

	search, err := NewSearcher(e.pal).WithBackend(e.backend)
	if err != nil {
		return nil, err
	}
	e.search = search
	if e.cmap, err = NewColorMap(search, e.config.Metric); err != nil {
		return nil, err
	}

	switch e.config.Dither {
	case DitherPattern:
		e.pattern, err = NewPatternDitherer(search, e.config.Metric,
			e.config.MatrixSize, e.config.Multiplier)
		if err != nil {
			return nil, err
		}
	case DitherFloydSteinberg:
		name := e.config.DiffusionMatrix
		if name == "" {
			name = "floyd-steinberg"
		}
		m, err := diffuse.ParseMatrix(name)
		if err != nil {
			return nil, err
		}
		if e.diffuser, err = diffuse.New(m); err != nil {
			return nil, err
		}
		e.diffuser.Serpentine = e.config.Serpentine
	}

	e.logger.Debug("engine configured",
		"metric", e.config.Metric,
		"dither", e.config.Dither,
		"matrix", e.config.MatrixSize,
		"multiplier", e.config.Multiplier,
		"backend", search.Backend(),
		"native", NativeBackend(search.Backend()))
	if !NativeBackend(search.Backend()) {
		e.logger.Warn("scan backend runs without vector instructions",
			"backend", search.Backend())
	}
	return e, nil
}

// Config returns the configuration in effect.
func (e *Engine) Config() Config { return e.config }

// Palette returns the perceptual palette quantized to.
func (e *Engine) Palette() *PerceptualPalette { return e.pal }

// ColorMap returns the engine's color map, for use by external traversals.
func (e *Engine) ColorMap() *ColorMap { return e.cmap }

// Searcher returns the engine's palette searcher.
func (e *Engine) Searcher() *Searcher { return e.search }

// Quantize reduces img to palette indices. The image is read, never
// modified.
func (e *Engine) Quantize(img image.Image) *Frame {
	return e.QuantizeRGBA(imageutil.RGBAImageFromImage(img))
}

// QuantizeRGBA is Quantize for an image already in RGBA form.
func (e *Engine) QuantizeRGBA(img *imageutil.RGBAImage) *Frame {
	start := time.Now()
	var f *Frame
	switch e.config.Dither {
	case DitherPattern:
		f = e.pattern.Dither(img, e.config.Workers)
	case DitherFloydSteinberg:
		f = NewFrame(img.Width(), img.Height())
		cache := newLookupCache(e.cmap)
		e.diffuser.Apply(img, cache, f.Indices)
		stats := cache.stats()
		e.logger.Debug("lookup cache",
			"hits", stats.Hits, "misses", stats.Misses, "rate", stats.HitRate())
	default:
		f = e.nearest(img)
	}
	e.logger.Debug("frame quantized",
		"width", f.Width, "height", f.Height,
		"dither", e.config.Dither, "elapsed", time.Since(start))
	return f
}

// Render quantizes img and returns the image with every pixel replaced by
// its palette color.
func (e *Engine) Render(img image.Image) *imageutil.RGBAImage {
	p := e.pal.Palette()
	return e.Quantize(img).RGBA(&p)
}

// nearest maps every pixel independently, in bands of rows.
func (e *Engine) nearest(img *imageutil.RGBAImage) *Frame {
	w, h := img.Width(), img.Height()
	f := NewFrame(w, h)
	var g errgroup.Group
	if e.config.Workers > 0 {
		g.SetLimit(e.config.Workers)
	}
	for y0 := 0; y0 < h; y0 += rowsPerTask {
		y1 := min(y0+rowsPerTask, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				row := f.Indices[y*w : (y+1)*w]
				for x := range row {
					row[x] = e.cmap.NearestIndex(img.GetRGB(x, y))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return f
}
