package main

import (
	"context"
	"errors"
	"image"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/ansi256"
)

// frameSource yields decoded video frames already scaled to the output
// geometry. Next returns io.EOF after the last frame.
type frameSource interface {
	Next() (image.Image, error)
}

type frameOrError struct {
	frame *ansi256.Frame
	err   error
}

type frameJob struct {
	img    image.Image
	output chan<- frameOrError
}

// quantizeFrames reads every frame of src, quantizes them on workers
// goroutines and calls emit with the results in source order. Frames are
// handed out round-robin; the order is kept by queueing one result channel
// per frame.
func quantizeFrames(ctx context.Context, src frameSource, engine *ansi256.Engine,
	workers int, emit func(*ansi256.Frame) error) error {
	g, ctx := errgroup.WithContext(ctx)

	inbox := make(chan frameJob, workers*2)
	outputChan := make(chan chan frameOrError, workers*4)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range inbox {
				job.output <- frameOrError{frame: engine.Quantize(job.img)}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(inbox)
		defer close(outputChan)
		for {
			img, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				frameOutput := make(chan frameOrError, 1)
				frameOutput <- frameOrError{err: err}
				select {
				case outputChan <- frameOutput:
				case <-ctx.Done():
				}
				return nil
			}

			frameOutput := make(chan frameOrError, 1)
			select {
			case outputChan <- frameOutput:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case inbox <- frameJob{img: img, output: frameOutput}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				// Unblock the pump and workers.
				go func() {
					for range outputChan {
					}
				}()
				return ctx.Err()
			case frameOutput, more := <-outputChan:
				if !more {
					return nil
				}
				var res frameOrError
				select {
				case res = <-frameOutput:
				case <-ctx.Done():
					return ctx.Err()
				}
				if res.err != nil {
					return res.err
				}
				if err := emit(res.frame); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}
