package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/export"
	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/metrics"
	"github.com/ivlev/slides2video/internal/source"
	"github.com/ivlev/slides2video/internal/video"
	"github.com/ivlev/slides2video/internal/workspace"
)

// Maker runs the whole export flow for one configuration: clear stale temp
// files, render the silent video into the workspace, then export it with the
// optional audio to the final path.
type Maker struct {
	Config    *config.Config
	Source    source.Source
	Workspace *workspace.Dir
	Exporter  export.Stage
	NewSink   func(video.Options) video.Sink
	Log       *logging.Logger
	Metrics   *metrics.Metrics
}

func NewMaker(cfg *config.Config, src source.Source, log *logging.Logger) *Maker {
	if log == nil {
		log = logging.Nop()
	}
	return &Maker{
		Config:    cfg,
		Source:    src,
		Workspace: workspace.New(cfg.WorkDir, log),
		Exporter:  export.NewFFmpegStage(log),
		NewSink: func(opts video.Options) video.Sink {
			return video.New(cfg.VideoEncoder, opts, cfg.EncoderQuality, log)
		},
		Log: log,
	}
}

// Start validates the configuration and launches the run. The workspace is
// held until the completion callback fires.
func (m *Maker) Start(ctx context.Context, onProgress func(float64), onComplete func(Result)) (*Handle, error) {
	cfg := m.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.OutputVideo == "" {
		return nil, errors.New("no output path")
	}

	m.Workspace.CleanupStale()
	m.Workspace.Acquire()
	log := m.Log.Extend(m.Log.With().Str("run", m.Workspace.RunID()))

	tmp := m.Workspace.TempPath("video" + video.Extension(cfg.VideoEncoder))
	sink := m.NewSink(video.Options{Path: tmp, Size: cfg.Canvas(), FPS: cfg.FPS})

	job := export.Job{
		AudioPath:     cfg.AudioPath,
		AudioStart:    cfg.AudioStart,
		AudioDuration: cfg.AudioDuration,
		OutputPath:    cfg.OutputVideo,
	}

	run, err := Configure(
		m.Source.PageCount(), m.Source, cfg.Selection(), cfg.Canvas(), cfg.Quality, cfg.TotalDuration,
		WithSink(sink, tmp),
		WithExport(m.Exporter, job),
		WithLogger(log),
		WithMetrics(m.Metrics),
	)
	if err != nil {
		m.Workspace.Release()
		return nil, fmt.Errorf("configure: %w", err)
	}

	log.Info().
		Str("input", cfg.InputPath).
		Int("photos", m.Source.PageCount()).
		Str("canvas", fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)).
		Str("encoder", cfg.VideoEncoder).
		Msg("project")

	return run.Run(ctx, onProgress, func(res Result) {
		m.Workspace.Release()
		if onComplete != nil {
			onComplete(res)
		}
	}), nil
}

// Make runs to completion and returns the result.
func (m *Maker) Make(ctx context.Context, onProgress func(float64)) Result {
	h, err := m.Start(ctx, onProgress, nil)
	if err != nil {
		return Result{Err: err}
	}
	return h.Wait()
}
