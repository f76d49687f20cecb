package main

import (
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"
)

// captureSource decodes a video file with OpenCV and scales every frame to
// width x height.
type captureSource struct {
	vc            *gocv.VideoCapture
	frame, scaled gocv.Mat
	width, height int
}

func openCapture(path string, width int) (*captureSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	srcW := int(vc.Get(gocv.VideoCaptureFrameWidth))
	srcH := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if srcW <= 0 || srcH <= 0 {
		vc.Close()
		return nil, fmt.Errorf("video %s reports no frame size", path)
	}
	width, height := outputSize(srcW, srcH, width)
	return &captureSource{
		vc:     vc,
		frame:  gocv.NewMat(),
		scaled: gocv.NewMat(),
		width:  width,
		height: height,
	}, nil
}

// outputSize keeps the aspect ratio at the requested width and rounds the
// height up to an even number of pixel rows.
func outputSize(srcW, srcH, width int) (int, int) {
	height := max(srcH*width/srcW, 1)
	return width, height + height%2
}

// FPS returns the frame rate the container reports, or 0 if unknown.
func (c *captureSource) FPS() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

func (c *captureSource) Next() (image.Image, error) {
	if ok := c.vc.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, io.EOF
	}
	gocv.Resize(c.frame, &c.scaled, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationArea)
	// ToImage converts the BGR channel order.
	img, err := c.scaled.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (c *captureSource) Close() error {
	c.frame.Close()
	c.scaled.Close()
	return c.vc.Close()
}
