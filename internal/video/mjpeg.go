package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"

	"github.com/icza/mjpeg"
)

// MJPEGSink writes a Motion-JPEG AVI without external tools.
type MJPEGSink struct {
	*Pacer
	opts    Options
	quality int
}

// NewMJPEGSink uses quality as the JPEG quality; values outside 1..100 fall
// back to jpeg.DefaultQuality.
func NewMJPEGSink(opts Options, quality int) *MJPEGSink {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &MJPEGSink{opts: opts, quality: quality}
}

func (s *MJPEGSink) Start(ctx context.Context) error {
	if s.Pacer != nil {
		return errors.New("mjpeg sink already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	aw, err := mjpeg.New(s.opts.Path, int32(s.opts.Size.X), int32(s.opts.Size.Y), int32(max(1, s.opts.FPS)))
	if err != nil {
		return err
	}
	w := &mjpegWriter{
		aw:   aw,
		path: s.opts.Path,
		opts: &jpeg.Options{Quality: s.quality},
		frame: &image.RGBA{
			Stride: s.opts.Size.X * 4,
			Rect:   image.Rectangle{Max: s.opts.Size},
		},
	}
	s.Pacer = newPacer(w, s.opts.FPS, s.opts.Size, nil)
	return nil
}

type mjpegWriter struct {
	aw    mjpeg.AviWriter
	path  string
	opts  *jpeg.Options
	frame *image.RGBA
	buf   bytes.Buffer
}

func (w *mjpegWriter) WriteFrame(pix []byte) error {
	w.frame.Pix = pix
	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, w.frame, w.opts); err != nil {
		return err
	}
	return w.aw.AddFrame(w.buf.Bytes())
}

func (w *mjpegWriter) Close() error {
	return w.aw.Close()
}

func (w *mjpegWriter) Abort() {
	w.aw.Close()
	os.Remove(w.path)
}
