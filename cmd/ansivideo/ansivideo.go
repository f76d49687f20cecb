package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"golang.org/x/term"

	"github.com/wbrown/ansi256"
)

func main() {
	inputFile := flag.String("input", "",
		"Path to the input video file (required)")
	targetWidth := flag.Int("width", 0,
		"Target width in characters, 0 to fit the terminal")
	metric := flag.String("metric", "cam02",
		"Color distance metric: cam02, cie94 or cie76")
	matrixSize := flag.String("matrix", "4",
		"Pattern dithering matrix size: 2, 4 or 8")
	multiplier := flag.Float64("multiplier", 0.09,
		"Pattern dithering error multiplier")
	ditherMethod := flag.String("dither", "pattern",
		"Dithering method: none, floyd-steinberg or pattern")
	workers := flag.Int("workers", runtime.NumCPU(),
		"Frames quantized concurrently")
	fps := flag.Float64("fps", 0,
		"Playback rate, 0 to use the rate of the video, negative for unpaced")
	diffing := flag.Bool("diff", true,
		"Only redraw cells that changed since the previous frame")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *inputFile == "" {
		fmt.Println("Please provide the video using the -input flag")
		flag.PrintDefaults()
		return
	}

	m, err := ansi256.ParseMetric(*metric)
	if err != nil {
		fail("Invalid metric", err)
	}
	d, err := ansi256.ParseDitherMethod(*ditherMethod)
	if err != nil {
		fail("Invalid dither method", err)
	}
	size, err := ansi256.ParseMatrixSize(*matrixSize)
	if err != nil {
		fail("Invalid matrix size", err)
	}
	// Frames are already quantized in parallel, so each one uses a
	// single goroutine.
	engine, err := ansi256.NewEngine(
		ansi256.WithConfig(ansi256.Config{
			Metric:     m,
			Dither:     d,
			MatrixSize: size,
			Multiplier: float32(*multiplier),
			Workers:    1,
		}),
		ansi256.WithLogger(logger),
	)
	if err != nil {
		fail("Error configuring engine", err)
	}

	width := *targetWidth
	if width <= 0 {
		width = terminalWidth()
	}
	src, err := openCapture(*inputFile, width)
	if err != nil {
		fail("Error opening video", err)
	}
	defer src.Close()

	rate := *fps
	if rate == 0 {
		rate = src.FPS()
	}
	logger.Info("playing",
		"input", *inputFile,
		"width", src.width,
		"height", src.height,
		"fps", rate,
		"backend", engine.Searcher().Backend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := bufio.NewWriterSize(os.Stdout, 1<<16)
	p := newPlayer(out, *diffing, rate)
	out.WriteString(ansi256.HideCursor)
	err = quantizeFrames(ctx, src, engine, max(*workers, 1), p.show)
	out.WriteString(ansi256.ResetAttributes + ansi256.ShowCursor)
	out.Flush()
	if err != nil && ctx.Err() == nil {
		fail("Playback failed", err)
	}
	logger.Info("done",
		"frames", p.frames,
		"keyframes", p.keyframes,
		"bytes", p.bytes)
}

// player writes encoded frames at a fixed rate.
type player struct {
	w        *bufio.Writer
	enc      *ansi256.FrameEncoder
	interval time.Duration
	next     time.Time

	frames, keyframes, bytes int
}

func newPlayer(w *bufio.Writer, diffing bool, fps float64) *player {
	p := &player{w: w, enc: ansi256.NewFrameEncoder(diffing)}
	if fps > 0 {
		p.interval = time.Duration(float64(time.Second) / fps)
	}
	return p
}

func (p *player) show(f *ansi256.Frame) error {
	data, keyframe := p.enc.Encode(f)
	if p.interval > 0 {
		now := time.Now()
		if p.next.IsZero() {
			p.next = now
		}
		if wait := p.next.Sub(now); wait > 0 {
			time.Sleep(wait)
		}
		p.next = p.next.Add(p.interval)
	}
	if _, err := p.w.WriteString(ansi256.CursorHome); err != nil {
		return err
	}
	if _, err := p.w.Write(data); err != nil {
		return err
	}
	p.frames++
	p.bytes += len(data)
	if keyframe {
		p.keyframes++
	}
	return p.w.Flush()
}

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
