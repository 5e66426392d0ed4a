package engine

import (
	"context"
	"image"
	"time"

	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/metrics"
	"github.com/ivlev/slides2video/internal/progress"
	"github.com/ivlev/slides2video/internal/renderer"
	"github.com/ivlev/slides2video/internal/source"
	"github.com/ivlev/slides2video/internal/system"
	"github.com/ivlev/slides2video/internal/timeline"
	"github.com/ivlev/slides2video/internal/video"
)

// feeder generates every frame of one run on the calling goroutine. Nothing
// in it is shared, so it needs no locking beyond the sink handshake.
type feeder struct {
	params  timeline.Params
	src     source.ImageSource
	session *effects.Session
	comp    *renderer.Compositor
	sink    video.Sink
	tracker *progress.Tracker
	pool    *system.BufferPool
	log     *logging.Logger
	metrics *metrics.Metrics

	pushed int64
}

// generate pushes all frames in increasing timestamp order. It stops at the
// first readiness error or when ctx is done.
func (f *feeder) generate(ctx context.Context) error {
	n := f.params.TotalPhotos
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last := i == n-1
		pts := f.params.PhotoStart(i)

		current := f.src.Image(i)
		var next image.Image
		if !last {
			next = f.src.Image(i + 1)
		}

		if current == nil {
			f.log.Warn().Int("photo", i).Msg("no image, skipping photo")
			f.skip()
			f.session.Advance()
			continue
		}

		var err error
		if f.params.MovementMode {
			err = f.movement(ctx, pts, current)
		} else {
			err = f.transition(ctx, pts, current, next, last)
		}
		if err != nil {
			return err
		}
		f.session.Advance()
	}
	return nil
}

// transition pushes the hold frame of current and, unless it is the last
// photo, the interpolation frames towards next.
func (f *feeder) transition(ctx context.Context, pts timeline.Time, current, next image.Image, last bool) error {
	err := f.push(ctx, pts, func(dst *image.RGBA) {
		f.comp.Transition(dst, effects.TransitionNone, 0, current, nil)
	})
	if err != nil {
		return err
	}
	f.tracker.AddHold()

	t := f.session.Transition
	if last || t == effects.TransitionNone {
		f.tracker.BeginSweep()
		f.tracker.Sweep(1)
		return nil
	}

	pts = pts.Add(f.params.HoldAdvance())
	return f.sweep(ctx, pts, func(dst *image.RGBA, rate float64) {
		f.comp.Transition(dst, t, rate, current, next)
	})
}

func (f *feeder) movement(ctx context.Context, pts timeline.Time, img image.Image) error {
	m, corner := f.session.Movement, f.session.Corner
	return f.sweep(ctx, pts, func(dst *image.RGBA, rate float64) {
		f.comp.Movement(dst, m, corner, rate, img)
	})
}

// sweep pushes the interpolation frames of one photo at rates 1/n..n/n.
func (f *feeder) sweep(ctx context.Context, pts timeline.Time, render func(*image.RGBA, float64)) error {
	count := f.params.InterpolationFrames()
	step := f.params.FrameStep()
	f.tracker.BeginSweep()
	for j := 1; j <= count; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rate := float64(j) / float64(count)
		err := f.push(ctx, pts, func(dst *image.RGBA) { render(dst, rate) })
		if err != nil {
			return err
		}
		f.tracker.Sweep(rate)
		pts = pts.Add(step)
	}
	return nil
}

// skip accounts a missing photo's share so progress keeps moving.
func (f *feeder) skip() {
	f.tracker.AddHold()
	f.tracker.BeginSweep()
	f.tracker.Sweep(1)
}

// push renders into a pooled buffer and hands it to the sink once the sink
// is ready. The buffer goes back to the pool on every path.
func (f *feeder) push(ctx context.Context, pts timeline.Time, render func(*image.RGBA)) error {
	buf := f.pool.Get(f.comp.Size())
	defer f.pool.Put(buf)

	start := time.Now()
	render(buf)
	f.metrics.ObserveCompose(time.Since(start))

	if err := f.sink.WaitReady(ctx); err != nil {
		return err
	}
	f.sink.Push(buf, pts)
	f.pushed++
	f.metrics.FramePushed()
	return nil
}
