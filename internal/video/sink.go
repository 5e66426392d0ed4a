// Package video turns pushed frames into a constant frame-rate video file.
package video

import (
	"context"
	"errors"
	"image"

	"github.com/ivlev/slides2video/internal/timeline"
)

var (
	ErrNotStarted = errors.New("sink not started")
	ErrCanceled   = errors.New("sink canceled")
)

// Sink accepts frames at presentation timestamps. Push must only be called
// after WaitReady returned nil; pushed buffers are copied and may be reused
// as soon as Push returns.
type Sink interface {
	Start(ctx context.Context) error
	WaitReady(ctx context.Context) error
	Push(frame *image.RGBA, pts timeline.Time)
	EndSession(end timeline.Time)
	MarkInputFinished()
	Finalize(ctx context.Context) error
	Cancel()
}

// Options shared by all sinks.
type Options struct {
	Path string
	Size image.Point
	FPS  int
}
