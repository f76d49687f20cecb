package ansi256

import "errors"

var (
	// ErrPaletteSize is returned when a palette does not define exactly
	// 256 entries.
	ErrPaletteSize = errors.New("palette must define exactly 256 colors")
	// ErrIndistinctPalette is returned by PerceptualPalette.Distinct when
	// two entries share perceptual coordinates.
	ErrIndistinctPalette = errors.New("palette entries share perceptual coordinates")
	ErrInvalidMetric     = errors.New("invalid distance metric")
	ErrInvalidMatrixSize = errors.New("invalid matrix size")
	ErrInvalidMultiplier = errors.New("invalid error multiplier")
	ErrInvalidDither     = errors.New("invalid dither method")
	// ErrFrameSize is returned when frames of different geometry are
	// compared or encoded against each other.
	ErrFrameSize = errors.New("frame dimensions do not match")
	// ErrMalformedVector is returned for a conformance vector whose
	// geometry does not match its pixel and index data.
	ErrMalformedVector = errors.New("malformed conformance vector")
)
