package main

import (
	"testing"

	"github.com/wbrown/ansi256/imageutil"
)

func TestResize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		w, h, width   int
		wantW, wantH int
	}{
		{640, 480, 80, 80, 60},
		{100, 50, 33, 33, 16},
		{300, 100, 40, 40, 14},
		{10, 1, 5, 5, 2},
	}
	for _, tt := range tests {
		img := resize(imageutil.CreateColorBarsImage(tt.w, tt.h), tt.width)
		if img.Width() != tt.wantW || img.Height() != tt.wantH {
			t.Errorf("resize(%dx%d, %d) = %dx%d, want %dx%d",
				tt.w, tt.h, tt.width, img.Width(), img.Height(), tt.wantW, tt.wantH)
		}
	}
}
