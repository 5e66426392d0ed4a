package video

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/ivlev/slides2video/internal/timeline"
)

// frameWriter is the encoder backend behind a Pacer. All methods are called
// from the pacer loop goroutine only.
type frameWriter interface {
	WriteFrame(pix []byte) error
	// Close finishes the file.
	Close() error
	// Abort stops the backend and discards its output.
	Abort()
}

type job struct {
	pts timeline.Time
	end bool
}

// Pacer resamples timestamped frames onto a constant frame-rate grid and
// implements readiness: exactly one frame may be in flight. A frame pushed at
// pts is repeated until the slot of the next frame; frames that land on the
// same slot replace each other.
type Pacer struct {
	w         frameWriter
	interrupt func()
	fps       int
	size      image.Point

	ready  chan struct{}
	jobs   chan job
	done   chan struct{}
	failed chan struct{}

	err        error
	failOnce   sync.Once
	finishOnce sync.Once

	staging, cur []byte
	hasCur       bool
	nextSlot     int64
	written      atomic.Int64
}

// newPacer starts the loop. interrupt, if set, must unblock a WriteFrame in
// progress and may be called from any goroutine.
func newPacer(w frameWriter, fps int, size image.Point, interrupt func()) *Pacer {
	n := size.X * size.Y * 4
	p := &Pacer{
		w:         w,
		interrupt: interrupt,
		fps:       max(1, fps),
		size:      size,
		ready:     make(chan struct{}, 1),
		jobs:      make(chan job, 1),
		done:      make(chan struct{}),
		failed:    make(chan struct{}),
		staging:   make([]byte, n),
		cur:       make([]byte, n),
	}
	p.ready <- struct{}{}
	go p.loop()
	return p
}

// WaitReady blocks until the previous frame was consumed, the writer failed
// or ctx is done.
func (p *Pacer) WaitReady(ctx context.Context) error {
	if p == nil {
		return ErrNotStarted
	}
	select {
	case <-p.failed:
		return p.err
	default:
	}
	select {
	case <-p.ready:
		return nil
	case <-p.failed:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pacer) Push(frame *image.RGBA, pts timeline.Time) {
	if p == nil {
		return
	}
	if frame.Rect.Size() != p.size {
		p.fail(fmt.Errorf("frame size %v does not match canvas %v", frame.Rect.Size(), p.size))
		return
	}
	copyPix(p.staging, frame, p.size)
	p.send(job{pts: pts})
}

// EndSession sets the timestamp the last frame is held until.
func (p *Pacer) EndSession(end timeline.Time) {
	if p == nil {
		return
	}
	p.send(job{pts: end, end: true})
}

// MarkInputFinished tells the loop no more jobs follow. Nothing may be
// pushed afterwards.
func (p *Pacer) MarkInputFinished() {
	if p == nil {
		return
	}
	p.finishOnce.Do(func() { close(p.jobs) })
}

// Finalize waits until the file is written and reports the first error.
func (p *Pacer) Finalize(ctx context.Context) error {
	if p == nil {
		return ErrNotStarted
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		p.Cancel()
		<-p.done
		return ctx.Err()
	}
	select {
	case <-p.failed:
		return p.err
	default:
		return nil
	}
}

// Cancel stops the loop and discards the output. Safe to call repeatedly.
func (p *Pacer) Cancel() {
	if p == nil {
		return
	}
	p.fail(ErrCanceled)
	if p.interrupt != nil {
		p.interrupt()
	}
}

// Frames reports how many frames were handed to the writer.
func (p *Pacer) Frames() int64 {
	if p == nil {
		return 0
	}
	return p.written.Load()
}

func (p *Pacer) send(j job) {
	select {
	case <-p.failed:
	case p.jobs <- j:
	}
}

func (p *Pacer) fail(err error) {
	p.failOnce.Do(func() {
		p.err = err
		close(p.failed)
	})
}

func (p *Pacer) isFailed() bool {
	select {
	case <-p.failed:
		return true
	default:
		return false
	}
}

func (p *Pacer) loop() {
	defer close(p.done)

	for p.next() {
	}

	if !p.isFailed() {
		if err := p.ensureOne(); err != nil {
			p.fail(err)
		}
	}
	if p.isFailed() {
		p.w.Abort()
		return
	}
	if err := p.w.Close(); err != nil {
		p.fail(err)
	}
}

// next handles one job and reports whether the loop should continue.
func (p *Pacer) next() bool {
	var j job
	select {
	case <-p.failed:
		return false
	case v, ok := <-p.jobs:
		if !ok {
			return false
		}
		j = v
	}

	if err := p.flush(j.pts.Frames(p.fps)); err != nil {
		p.fail(err)
		return false
	}
	if j.end {
		return false
	}
	p.cur, p.staging = p.staging, p.cur
	p.hasCur = true
	select {
	case p.ready <- struct{}{}:
	default:
	}
	return true
}

// flush repeats the current frame for every slot before target.
func (p *Pacer) flush(target int64) error {
	if !p.hasCur {
		return nil
	}
	for p.nextSlot < target {
		if p.isFailed() {
			return p.err
		}
		if err := p.write(); err != nil {
			return err
		}
	}
	return nil
}

// ensureOne writes the current frame once if nothing reached the file yet.
func (p *Pacer) ensureOne() error {
	if !p.hasCur || p.nextSlot > 0 {
		return nil
	}
	return p.write()
}

func (p *Pacer) write() error {
	if err := p.w.WriteFrame(p.cur); err != nil {
		return err
	}
	p.nextSlot++
	p.written.Add(1)
	return nil
}

func copyPix(dst []byte, src *image.RGBA, size image.Point) {
	row := size.X * 4
	if src.Stride == row && len(src.Pix) >= len(dst) {
		copy(dst, src.Pix[:len(dst)])
		return
	}
	for y := 0; y < size.Y; y++ {
		off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		copy(dst[y*row:(y+1)*row], src.Pix[off:off+row])
	}
}
