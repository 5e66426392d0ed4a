package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/export"
	"github.com/ivlev/slides2video/internal/renderer"
	"github.com/ivlev/slides2video/internal/timeline"
	"github.com/ivlev/slides2video/internal/video"
	"github.com/ivlev/slides2video/internal/workspace"
)

var canvas = image.Pt(8, 8)

// solidSource yields a canvas-sized photo with red = 10*(i+1); indexes in
// missing yield nil.
type solidSource struct {
	n       int
	missing map[int]bool
}

func (s solidSource) Image(i int) image.Image {
	if i < 0 || i >= s.n || s.missing[i] {
		return nil
	}
	img := image.NewRGBA(image.Rectangle{Max: canvas})
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: uint8(10 * (i + 1)), A: 0xff}), image.Point{}, draw.Src)
	return img
}

func (s solidSource) PageCount() int                                  { return s.n }
func (s solidSource) GetPageDimensions(int) (float64, float64, error) { return 8, 8, nil }
func (s solidSource) Close() error                                    { return nil }

type pushRecord struct {
	pts timeline.Time
	red uint8
}

type fakeSink struct {
	mu       sync.Mutex
	startErr error
	finalErr error
	onPush   func(n int)

	started  bool
	canceled bool
	finished bool
	ended    bool
	end      timeline.Time
	pushes   []pushRecord
}

func (s *fakeSink) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return s.startErr
}

func (s *fakeSink) WaitReady(ctx context.Context) error { return ctx.Err() }

func (s *fakeSink) Push(frame *image.RGBA, pts timeline.Time) {
	s.mu.Lock()
	s.pushes = append(s.pushes, pushRecord{pts: pts, red: frame.RGBAAt(4, 4).R})
	n := len(s.pushes)
	hook := s.onPush
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

func (s *fakeSink) EndSession(end timeline.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended, s.end = true, end
}

func (s *fakeSink) MarkInputFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
}

func (s *fakeSink) Finalize(context.Context) error { return s.finalErr }

func (s *fakeSink) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = true
}

type fakeStage struct {
	err error
	job export.Job
}

func (f *fakeStage) Export(_ context.Context, job export.Job, onProgress func(float64)) (string, error) {
	f.job = job
	onProgress(0.5)
	if f.err != nil {
		return "", f.err
	}
	onProgress(1)
	return job.OutputPath, nil
}

type events struct {
	progress []float64
	complete int
	order    []string
}

func run(t *testing.T, ctx context.Context, r *PlannedRun) (Result, *events) {
	t.Helper()
	ev := &events{}
	h := r.Run(ctx,
		func(v float64) {
			ev.progress = append(ev.progress, v)
			ev.order = append(ev.order, "progress")
		},
		func(Result) {
			ev.complete++
			ev.order = append(ev.order, "complete")
		})
	res := h.Wait()
	return res, ev
}

func configure(t *testing.T, n int, sel effects.Selection, sink video.Sink, opts ...Option) *PlannedRun {
	t.Helper()
	opts = append([]Option{WithSink(sink, "silent.avi")}, opts...)
	r, err := Configure(n, solidSource{n: n}, sel, canvas, renderer.QualityNone, 0, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestZeroPhotosFailsWithoutTouchingSink(t *testing.T) {
	sink := &fakeSink{}
	r := configure(t, 0, effects.Selection{Transition: effects.CrossFade}, sink)

	res, ev := run(t, context.Background(), r)
	if !errors.Is(res.Err, ErrNoPhotos) {
		t.Fatalf("err = %v, want ErrNoPhotos", res.Err)
	}
	if sink.started || len(sink.pushes) > 0 {
		t.Error("sink must not be touched")
	}
	if ev.complete != 1 || len(ev.progress) != 0 {
		t.Errorf("complete=%d progress=%v", ev.complete, ev.progress)
	}
	if r.State() != StateFailed {
		t.Errorf("state = %v", r.State())
	}
}

func TestTransitionRunTimeline(t *testing.T) {
	sink := &fakeSink{}
	r := configure(t, 3, effects.Selection{Transition: effects.CrossFade}, sink)

	res, ev := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	// fd=2 td=1 tfc=60 wait=30: hold + 30 sub-frames, twice, then a last hold.
	if got := len(sink.pushes); got != 63 {
		t.Fatalf("pushes = %d, want 63", got)
	}
	for i := 1; i < len(sink.pushes); i++ {
		if sink.pushes[i].pts.Cmp(sink.pushes[i-1].pts) < 0 {
			t.Fatalf("pts decreased at push %d: %v after %v", i, sink.pushes[i].pts, sink.pushes[i-1].pts)
		}
	}

	checks := []struct {
		index int
		pts   timeline.Time
		red   uint8
	}{
		{0, timeline.NewTime(0, 1), 10},    // hold of photo 0
		{1, timeline.NewTime(1, 1), 0},     // first cross-fade frame starts at 1s
		{30, timeline.NewTime(89, 60), 20}, // rate 1 shows photo 1
		{31, timeline.NewTime(2, 1), 20},   // hold of photo 1
		{62, timeline.NewTime(4, 1), 30},   // hold of the last photo
	}
	for _, c := range checks {
		p := sink.pushes[c.index]
		if p.pts.Cmp(c.pts) != 0 {
			t.Errorf("push %d pts = %v, want %v", c.index, p.pts, c.pts)
		}
		if c.red != 0 && p.red != c.red {
			t.Errorf("push %d red = %d, want %d", c.index, p.red, c.red)
		}
	}

	if !sink.ended || sink.end.Cmp(timeline.NewTime(6, 1)) != 0 || !sink.finished {
		t.Errorf("session end = %v (ended %v finished %v), want 6s", sink.end, sink.ended, sink.finished)
	}
	if res.Asset.Path != "silent.avi" || res.Asset.Frames != 63 || res.Asset.Duration != 6 {
		t.Errorf("asset = %+v", res.Asset)
	}

	if !sort.Float64sAreSorted(ev.progress) {
		t.Errorf("progress not monotonic: %v", ev.progress)
	}
	if last := ev.progress[len(ev.progress)-1]; last != 1 {
		t.Errorf("final progress = %v, want exactly 1", last)
	}
	if ev.order[len(ev.order)-1] != "complete" || ev.complete != 1 {
		t.Errorf("completion must be delivered once and last: %v", ev.order)
	}
	if r.State() != StateCompleted {
		t.Errorf("state = %v", r.State())
	}
}

func TestMovementRunTimeline(t *testing.T) {
	sink := &fakeSink{}
	r := configure(t, 2, effects.Selection{Movement: effects.Fade, Corner: effects.UpLeft}, sink)

	res, _ := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	// td=2 tfc=40 per photo, no hold frames.
	if got := len(sink.pushes); got != 80 {
		t.Fatalf("pushes = %d, want 80", got)
	}
	if p := sink.pushes[1].pts; p.Cmp(timeline.NewTime(1, 20)) != 0 {
		t.Errorf("second frame at %v, want 1/20", p)
	}
	if p := sink.pushes[40].pts; p.Cmp(timeline.NewTime(2, 1)) != 0 {
		t.Errorf("photo 1 starts at %v, want 2s", p)
	}
	if sink.end.Cmp(timeline.NewTime(4, 1)) != 0 {
		t.Errorf("end = %v, want 4s", sink.end)
	}
}

func TestTransitionNoneHoldsOnly(t *testing.T) {
	sink := &fakeSink{}
	r := configure(t, 4, effects.Selection{}, sink)

	res, ev := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if got := len(sink.pushes); got != 4 {
		t.Fatalf("pushes = %d, want one hold per photo", got)
	}
	if ev.progress[len(ev.progress)-1] != 1 {
		t.Errorf("progress = %v", ev.progress)
	}
}

func TestCancelStopsPushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &fakeSink{onPush: func(n int) {
		if n == 5 {
			cancel()
		}
	}}
	r := configure(t, 5, effects.Selection{Transition: effects.WipeMixed}, sink)

	res, ev := run(t, ctx, r)
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", res.Err)
	}
	if got := len(sink.pushes); got != 5 {
		t.Errorf("pushes after cancel: got %d, want 5", got)
	}
	if !sink.canceled || sink.ended {
		t.Errorf("canceled=%v ended=%v", sink.canceled, sink.ended)
	}
	if ev.complete != 1 {
		t.Errorf("complete delivered %d times", ev.complete)
	}
	for _, v := range ev.progress {
		if v >= 1 {
			t.Errorf("canceled run reported progress %v", v)
		}
	}
}

func TestHandleCancel(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	sink := &fakeSink{onPush: func(int) {
		once.Do(func() { close(started) })
		time.Sleep(time.Millisecond)
	}}
	r := configure(t, 50, effects.Selection{Transition: effects.CrossFade}, sink)

	h := r.Run(context.Background(), nil, nil)
	<-started
	h.Cancel()
	res := h.Wait()
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("err = %v", res.Err)
	}
	if len(sink.pushes) >= 50*31 {
		t.Error("run was not interrupted")
	}
}

func TestEncoderErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		sink *fakeSink
		want error
	}{
		{"start", &fakeSink{startErr: boom}, ErrEncoderInit},
		{"finalize", &fakeSink{finalErr: boom}, ErrEncode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := configure(t, 2, effects.Selection{Transition: effects.SlideLeft}, tt.sink)
			res, ev := run(t, context.Background(), r)
			if !errors.Is(res.Err, tt.want) || !errors.Is(res.Err, boom) {
				t.Fatalf("err = %v, want %v wrapping boom", res.Err, tt.want)
			}
			if ev.complete != 1 {
				t.Errorf("complete delivered %d times", ev.complete)
			}
		})
	}

	sink := &fakeSink{startErr: boom}
	r := configure(t, 2, effects.Selection{}, sink)
	run(t, context.Background(), r)
	if len(sink.pushes) != 0 {
		t.Error("no frames may be generated after init failure")
	}
}

func TestMissingSink(t *testing.T) {
	r, err := Configure(1, solidSource{n: 1}, effects.Selection{}, canvas, renderer.QualityLow, 0)
	if err != nil {
		t.Fatal(err)
	}
	res, _ := run(t, context.Background(), r)
	if !errors.Is(res.Err, ErrEncoderInit) {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestConfigureRejectsBadInput(t *testing.T) {
	if _, err := Configure(1, nil, effects.Selection{}, canvas, renderer.QualityLow, 0); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := Configure(1, solidSource{n: 1}, effects.Selection{}, image.Point{}, renderer.QualityLow, 0); err == nil {
		t.Error("expected error for empty canvas")
	}
}

func TestExportStage(t *testing.T) {
	stage := &fakeStage{}
	sink := &fakeSink{}
	r := configure(t, 2, effects.Selection{Transition: effects.PushLeft}, sink,
		WithExport(stage, export.Job{OutputPath: "final.mp4", AudioPath: "a.mp3"}))

	res, _ := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Asset.Path != "final.mp4" {
		t.Errorf("asset path = %s", res.Asset.Path)
	}
	if stage.job.VideoPath != "silent.avi" || stage.job.Duration != 4 || stage.job.AudioPath != "a.mp3" {
		t.Errorf("export job = %+v", stage.job)
	}

	failing := &fakeStage{err: errors.New("mux")}
	r = configure(t, 2, effects.Selection{}, &fakeSink{}, WithExport(failing, export.Job{OutputPath: "x.mp4"}))
	res, _ = run(t, context.Background(), r)
	if !errors.Is(res.Err, ErrExport) {
		t.Errorf("err = %v, want ErrExport", res.Err)
	}
}

func TestMissingImageSkipsPhoto(t *testing.T) {
	sink := &fakeSink{}
	src := solidSource{n: 3, missing: map[int]bool{1: true}}
	r, err := Configure(3, src, effects.Selection{Transition: effects.CrossFade}, canvas, renderer.QualityNone, 0, WithSink(sink, "v.avi"))
	if err != nil {
		t.Fatal(err)
	}

	res, ev := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	// Photo 0 fades into nothing (frames keep photo 0), photo 1 is skipped.
	if got := len(sink.pushes); got != 32 {
		t.Errorf("pushes = %d, want 32", got)
	}
	if last := sink.pushes[len(sink.pushes)-1]; last.red != 30 || last.pts.Cmp(timeline.NewTime(4, 1)) != 0 {
		t.Errorf("last push = %+v", last)
	}
	if !sort.Float64sAreSorted(ev.progress) || ev.progress[len(ev.progress)-1] != 1 {
		t.Errorf("progress = %v", ev.progress)
	}
}

func TestRunTwice(t *testing.T) {
	r := configure(t, 1, effects.Selection{}, &fakeSink{})
	if res, _ := run(t, context.Background(), r); res.Err != nil {
		t.Fatal(res.Err)
	}
	if res, _ := run(t, context.Background(), r); !errors.Is(res.Err, ErrRunning) {
		t.Fatalf("second run err = %v", res.Err)
	}
}

func TestTargetDuration(t *testing.T) {
	sink := &fakeSink{}
	r, err := Configure(4, solidSource{n: 4}, effects.Selection{Transition: effects.WipeLeft}, canvas, renderer.QualityNone, 10, WithSink(sink, "v.avi"))
	if err != nil {
		t.Fatal(err)
	}
	res, _ := run(t, context.Background(), r)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if sink.end.Cmp(timeline.NewTime(10, 1)) != 0 {
		t.Errorf("end = %v, want 10s", sink.end)
	}
	if res.Asset.Duration != 10 {
		t.Errorf("duration = %v", res.Asset.Duration)
	}
}

func TestMaker(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Width, cfg.Height = 8, 8
	cfg.Transition = effects.SlideMixed
	cfg.VideoEncoder = video.EncoderMJPEG
	cfg.OutputVideo = filepath.Join(dir, "out.mp4")
	cfg.AudioPath = "song.mp3"

	sink := &fakeSink{}
	stage := &fakeStage{}
	var sinkOpts video.Options

	m := NewMaker(&cfg, solidSource{n: 3}, nil)
	m.Workspace = workspace.New(filepath.Join(dir, "work"), nil)
	m.Exporter = stage
	m.NewSink = func(o video.Options) video.Sink {
		sinkOpts = o
		return sink
	}

	res := m.Make(context.Background(), nil)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if res.Asset.Path != cfg.OutputVideo {
		t.Errorf("asset path = %s", res.Asset.Path)
	}
	if !strings.HasSuffix(sinkOpts.Path, "_video.avi") || sinkOpts.Size != canvas || sinkOpts.FPS != 30 {
		t.Errorf("sink options = %+v", sinkOpts)
	}
	if stage.job.VideoPath != sinkOpts.Path || stage.job.AudioPath != "song.mp3" {
		t.Errorf("export job = %+v", stage.job)
	}

	bad := cfg
	bad.Width = 7
	if res := NewMaker(&bad, solidSource{n: 1}, nil).Make(context.Background(), nil); res.Err == nil {
		t.Error("expected validation error")
	}
}

func TestReport(t *testing.T) {
	r := Report{
		Build:  "test",
		Input:  "/in/deck.pdf",
		Photos: 3,
		Total:  2 * time.Second,
		Result: Result{Asset: Asset{Frames: 60, Duration: 6}},
	}
	if r.FPS() != 30 {
		t.Errorf("FPS = %v", r.FPS())
	}

	var buf bytes.Buffer
	r.Render(&buf)
	for _, want := range []string{"PERFORMANCE REPORT", "Effective FPS", "30.00"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q:\n%s", want, buf.String())
		}
	}

	line := r.Line(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if !strings.HasPrefix(line, "[2026-01-02 03:04:05] Build: test | Input: deck.pdf | Photos: 3") {
		t.Errorf("line = %q", line)
	}

	path := filepath.Join(t.TempDir(), "benchmark.log")
	if err := r.AppendBenchmark(path); err != nil {
		t.Fatal(err)
	}
}

func TestStateString(t *testing.T) {
	if StateExporting.String() != "exporting" || State(99).String() != "state(99)" {
		t.Error("unexpected state names")
	}
	if !StateFailed.Terminal() || StateGenerating.Terminal() {
		t.Error("unexpected terminal states")
	}
}
