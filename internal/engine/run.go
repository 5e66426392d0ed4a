package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/export"
	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/metrics"
	"github.com/ivlev/slides2video/internal/progress"
	"github.com/ivlev/slides2video/internal/renderer"
	"github.com/ivlev/slides2video/internal/source"
	"github.com/ivlev/slides2video/internal/system"
	"github.com/ivlev/slides2video/internal/timeline"
	"github.com/ivlev/slides2video/internal/video"
)

// Asset is the file a successful run produced.
type Asset struct {
	Path     string
	Duration float64
	Frames   int64
}

// Timings splits the wall time of a run by phase.
type Timings struct {
	Generate time.Duration
	Finalize time.Duration
	Export   time.Duration
}

type Result struct {
	Asset   Asset
	Timings Timings
	Err     error
}

// PlannedRun is a configured, not yet started render.
type PlannedRun struct {
	params  timeline.Params
	planErr error

	src     source.ImageSource
	sel     effects.Selection
	canvas  image.Point
	quality renderer.Quality

	sink     video.Sink
	sinkPath string
	stage    export.Stage
	job      export.Job
	log      *logging.Logger
	metrics  *metrics.Metrics
	pool     *system.BufferPool

	state   atomic.Int32
	started atomic.Bool
}

type Option func(*PlannedRun)

// WithSink sets the encoder sink and the path of the file it writes.
func WithSink(s video.Sink, path string) Option {
	return func(r *PlannedRun) { r.sink, r.sinkPath = s, path }
}

// WithExport runs stage after the sink finished. The job's VideoPath and
// Duration default to the sink output and the planned length.
func WithExport(stage export.Stage, job export.Job) Option {
	return func(r *PlannedRun) { r.stage, r.job = stage, job }
}

func WithLogger(l *logging.Logger) Option {
	return func(r *PlannedRun) { r.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *PlannedRun) { r.metrics = m }
}

func WithBufferPool(p *system.BufferPool) Option {
	return func(r *PlannedRun) { r.pool = p }
}

// Configure plans a run. Zero photos is not an error here: the run fails with
// ErrNoPhotos when started, without touching the sink.
func Configure(total int, src source.ImageSource, sel effects.Selection, canvas image.Point, quality renderer.Quality, target float64, opts ...Option) (*PlannedRun, error) {
	if src == nil {
		return nil, errors.New("nil image source")
	}
	if canvas.X <= 0 || canvas.Y <= 0 {
		return nil, fmt.Errorf("invalid canvas %v", canvas)
	}

	r := &PlannedRun{
		src:     source.NewCached(src, 2),
		sel:     sel,
		canvas:  canvas,
		quality: quality,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = system.NewBufferPool()
	}

	r.params, r.planErr = timeline.Plan(timeline.Input{
		TotalPhotos:    total,
		TargetDuration: target,
		MovementMode:   sel.MovementMode(),
		LongCrossFade:  sel.LongCrossFade(),
	})
	return r, nil
}

func (r *PlannedRun) Params() timeline.Params { return r.params }

func (r *PlannedRun) State() State { return State(r.state.Load()) }

func (r *PlannedRun) setState(s State) {
	r.state.Store(int32(s))
	r.log.Debug().Str("state", s.String()).Msg("run")
}

// Handle controls a started run.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	result Result
}

// Cancel stops the run within one frame. The completion callback still fires.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed after the completion callback returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the completion callback returned and yields its result.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

// Run starts the render on its own goroutine. Callbacks are delivered one at
// a time on a single delivery goroutine: progress values in increasing order,
// then exactly one completion. Intermediate progress values may be skipped
// when the callback is slower than the render. Either callback may be nil.
func (r *PlannedRun) Run(ctx context.Context, onProgress func(float64), onComplete func(Result)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	d := newDispatcher(onProgress)

	finished := make(chan Result, 1)
	go func() {
		if !r.started.CompareAndSwap(false, true) {
			finished <- Result{Err: ErrRunning}
			return
		}
		start := time.Now()
		res := r.execute(ctx, d.publish)
		r.metrics.RunFinished(outcome(res.Err), time.Since(start))
		finished <- res
	}()

	go func() {
		defer close(h.done)
		defer cancel()
		h.complete(d.loop(finished), onComplete)
	}()
	return h
}

func (h *Handle) complete(res Result, onComplete func(Result)) {
	h.once.Do(func() {
		h.result = res
		if onComplete != nil {
			onComplete(res)
		}
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "failed"
	}
}

// execute walks the state machine on the worker goroutine.
func (r *PlannedRun) execute(ctx context.Context, publish func(float64)) (res Result) {
	r.setState(StatePlanning)
	defer func() {
		if res.Err != nil {
			r.setState(StateFailed)
			r.log.Debug().Err(res.Err).Msg("run failed")
		} else {
			r.setState(StateCompleted)
		}
	}()

	if r.planErr != nil {
		return Result{Err: r.planErr}
	}
	if r.sink == nil {
		return Result{Err: fmt.Errorf("%w: no sink configured", ErrEncoderInit)}
	}

	tracker := progress.NewTracker(publish)
	tracker.UpdateWeights(r.params.TotalPhotos, r.params.MovementMode)

	if err := r.sink.Start(ctx); err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrEncoderInit, err)}
	}

	f := &feeder{
		params:  r.params,
		src:     r.src,
		session: effects.NewSession(r.sel),
		comp:    renderer.NewCompositor(r.canvas, r.quality),
		sink:    r.sink,
		tracker: tracker,
		pool:    r.pool,
		log:     r.log,
		metrics: r.metrics,
	}

	r.setState(StateGenerating)
	r.log.Info().
		Int("photos", r.params.TotalPhotos).
		Str("effect", r.sel.String()).
		Float64("seconds", r.params.Seconds()).
		Msg("generating frames")

	var t Timings
	start := time.Now()
	err := f.generate(ctx)
	t.Generate = time.Since(start)
	if err != nil {
		r.sink.Cancel()
		return Result{Timings: t, Err: r.failure(ctx, ErrEncode, err)}
	}

	r.setState(StateFinalizing)
	start = time.Now()
	r.sink.EndSession(r.params.End())
	r.sink.MarkInputFinished()
	err = r.sink.Finalize(ctx)
	t.Finalize = time.Since(start)
	if err != nil {
		return Result{Timings: t, Err: r.failure(ctx, ErrEncode, err)}
	}

	asset := Asset{Path: r.sinkPath, Duration: r.params.Seconds(), Frames: f.pushed}
	if fc, ok := r.sink.(interface{ Frames() int64 }); ok {
		asset.Frames = fc.Frames()
	}

	if r.stage != nil {
		r.setState(StateExporting)
		job := r.job
		if job.VideoPath == "" {
			job.VideoPath = r.sinkPath
		}
		if job.Duration <= 0 {
			job.Duration = r.params.Seconds()
		}
		start = time.Now()
		path, err := r.stage.Export(ctx, job, tracker.Export)
		t.Export = time.Since(start)
		if err != nil {
			return Result{Timings: t, Err: r.failure(ctx, ErrExport, err)}
		}
		asset.Path = path
	}

	tracker.Complete()
	return Result{Asset: asset, Timings: t}
}

// failure reports cancellation as the context error and wraps everything
// else in kind.
func (r *PlannedRun) failure(ctx context.Context, kind, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// dispatcher coalesces progress from the worker and delivers it, then the
// result, on one goroutine.
type dispatcher struct {
	onProgress func(float64)

	mu      sync.Mutex
	latest  float64
	pending bool
	notify  chan struct{}

	delivered float64
}

func newDispatcher(onProgress func(float64)) *dispatcher {
	return &dispatcher{onProgress: onProgress, notify: make(chan struct{}, 1), delivered: -1}
}

// publish is called on the worker goroutine and never blocks.
func (d *dispatcher) publish(v float64) {
	d.mu.Lock()
	d.latest = v
	d.pending = true
	d.mu.Unlock()
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *dispatcher) deliver() {
	d.mu.Lock()
	v, ok := d.latest, d.pending
	d.pending = false
	d.mu.Unlock()
	if !ok || v <= d.delivered {
		return
	}
	d.delivered = v
	if d.onProgress != nil {
		d.onProgress(v)
	}
}

// loop delivers progress until the worker finished, flushes the last value
// and returns the result.
func (d *dispatcher) loop(finished <-chan Result) Result {
	for {
		select {
		case <-d.notify:
			d.deliver()
		case res := <-finished:
			d.deliver()
			return res
		}
	}
}
