package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disintegration/gift"
	"golang.org/x/term"

	"github.com/wbrown/ansi256"
	"github.com/wbrown/ansi256/imageutil"
	"github.com/wbrown/ansi256/preview"
)

func main() {
	inputFile := flag.String("input", "",
		"Path to the input image file (required)")
	outputFile := flag.String("output", "",
		"Path to save the output (if not specified, prints to stdout); "+
			"a .png path writes a rendered preview")
	paletteFile := flag.String("palette", "ansi256",
		"Palette name or path to a palette file (Embedded: ansi256, vga256)")
	configFile := flag.String("config", "",
		"JSON engine configuration; explicit flags override it")
	targetWidth := flag.Int("width", 0,
		"Target width in characters, 0 to fit the terminal")
	metric := flag.String("metric", "cam02",
		"Color distance metric: cam02, cie94 or cie76")
	ditherMethod := flag.String("dither", "floyd-steinberg",
		"Dithering method: none, floyd-steinberg or pattern")
	matrixSize := flag.String("matrix", "4",
		"Pattern dithering matrix size: 2, 4 or 8")
	multiplier := flag.Float64("multiplier", 0.09,
		"Pattern dithering error multiplier")
	diffusion := flag.String("diffusion", "",
		"Error diffusion matrix (e.g. atkinson, sierra); implies -dither floyd-steinberg")
	serpentine := flag.Bool("serpentine", false,
		"Alternate error diffusion direction on every row")
	workers := flag.Int("workers", 0,
		"Goroutines per frame for parallel methods, 0 for one per band")
	backend := flag.String("backend", "",
		"Force a palette scan backend: scalar, vec4 or vec8")
	fontPath := flag.String("font", "",
		"TTF font used to draw block glyphs in PNG output")
	previewScale := flag.Int("scale", 2,
		"Glyph scaling factor for PNG output (1 = 8x8, 2 = 16x16, etc.)")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *inputFile == "" {
		fmt.Println("Please provide the image using the -input flag")
		flag.PrintDefaults()
		return
	}

	cfg := ansi256.DefaultConfig()
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			fail("Error reading config", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			fail("Error parsing config", err)
		}
	}

	// Flags given on the command line take precedence over the config.
	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "metric":
			cfg.Metric, err = ansi256.ParseMetric(*metric)
		case "dither":
			cfg.Dither, err = ansi256.ParseDitherMethod(*ditherMethod)
		case "matrix":
			cfg.MatrixSize, err = ansi256.ParseMatrixSize(*matrixSize)
		case "multiplier":
			cfg.Multiplier = float32(*multiplier)
		case "diffusion":
			cfg.Dither, cfg.DiffusionMatrix = ansi256.DitherFloydSteinberg, *diffusion
		case "serpentine":
			cfg.Serpentine = *serpentine
		case "workers":
			cfg.Workers = *workers
		}
	})
	if err != nil {
		fmt.Println(err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := []ansi256.EngineOption{ansi256.WithConfig(cfg), ansi256.WithLogger(logger)}
	if *backend != "" {
		b, err := ansi256.ParseBackend(*backend)
		if err != nil {
			fail("Invalid backend", err)
		}
		opts = append(opts, ansi256.WithBackend(b))
	}

	beginInit := time.Now()
	palette, err := ansi256.LoadPalette(*paletteFile)
	if err != nil {
		fail("Error loading palette", err)
	}
	opts = append(opts, ansi256.WithPalette(palette))
	engine, err := ansi256.NewEngine(opts...)
	if err != nil {
		fail("Error configuring engine", err)
	}
	logger.Info("initialized",
		"palette", *paletteFile,
		"metric", cfg.Metric,
		"dither", cfg.Dither,
		"backend", engine.Searcher().Backend(),
		"elapsed", time.Since(beginInit))
	if err := engine.Palette().Distinct(cfg.Metric); err != nil {
		logger.Debug("palette has indistinct entries", "err", err)
	}

	src, err := imageutil.LoadImage(*inputFile)
	if err != nil {
		fail("Error loading image", err)
	}

	beginCompute := time.Now()
	width := *targetWidth
	if width <= 0 {
		width = terminalWidth()
	}
	img := resize(src, width)
	frame := engine.QuantizeRGBA(img)
	ansiArt := ansi256.AppendFrame(nil, frame)
	ansiArt = append(ansiArt, ansi256.ResetAttributes...)
	logger.Info("converted",
		"width", frame.Width,
		"height", frame.Height,
		"bytes", len(ansiArt),
		"elapsed", time.Since(beginCompute))

	switch {
	case *outputFile == "":
		os.Stdout.Write(ansiArt)
	case strings.HasSuffix(strings.ToLower(*outputFile), ".png"):
		glyphs := preview.Builtin()
		if *fontPath != "" {
			if glyphs, err = preview.LoadFontBitmaps(*fontPath); err != nil {
				fail("Error loading font", err)
			}
		}
		pal := engine.Palette().Palette()
		rendered := glyphs.RenderFrame(frame, &pal, *previewScale)
		if err := imageutil.SaveImage(rendered, *outputFile); err != nil {
			fail("Error writing PNG", err)
		}
		logger.Info("preview written", "path", *outputFile, "glyphs", glyphs.Name())
	default:
		if err := os.WriteFile(*outputFile, ansiArt, 0644); err != nil {
			fail("Error writing to file", err)
		}
		logger.Info("output written", "path", *outputFile)
	}
}

// resize scales img to width pixels, one per character column, keeping the
// aspect ratio. Each character cell shows two pixel rows, so the height is
// rounded up to an even number.
func resize(img image.Image, width int) *imageutil.RGBAImage {
	b := img.Bounds()
	height := max(b.Dy()*width/max(b.Dx(), 1), 1)
	height += height % 2
	g := gift.New(gift.Resize(width, height, gift.LanczosResampling))
	dst := image.NewRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return imageutil.RGBAImageFromImage(dst)
}

// terminalWidth returns the width of stdout, or 80 when it is not a
// terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	cols, _, err := term.GetSize(fd)
	if err != nil || cols <= 0 {
		return 80
	}
	return cols
}

func fail(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
