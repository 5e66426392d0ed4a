package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slides2video/internal/config"
	"github.com/ivlev/slides2video/internal/effects"
	"github.com/ivlev/slides2video/internal/engine"
	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/metrics"
	"github.com/ivlev/slides2video/internal/renderer"
	"github.com/ivlev/slides2video/internal/source"
	"github.com/ivlev/slides2video/internal/storyboard"
	"github.com/ivlev/slides2video/internal/system"
)

type renderOptions struct {
	input         string
	output        string
	workDir       string
	duration      float64
	width         int
	height        int
	fps           int
	preset        string
	transition    string
	movement      string
	corner        string
	quality       string
	dpi           int
	audio         string
	audioStart    float64
	audioDuration float64
	audioSync     bool
	encoder       string
	encoderQ      int
	endCard       string
	storyboard    string
	metricsAddr   string
	stats         bool
	debug         bool
	benchmarkLog  string

	pdfDir        string
	audioDir      string
	outputDir     string
	storyboardDir string

	// transitionSet is true when --transition was given explicitly.
	transitionSet bool
}

func defaultRenderOptions() *renderOptions {
	d := config.Defaults()
	return &renderOptions{
		width:         d.Width,
		height:        d.Height,
		fps:           d.FPS,
		transition:    d.Transition.String(),
		corner:        d.Corner.String(),
		quality:       d.Quality.String(),
		dpi:           d.DPI,
		audioSync:     d.AudioSync,
		encoder:       d.VideoEncoder,
		benchmarkLog:  "benchmark.log",
		pdfDir:        filepath.Join("input", "pdf"),
		audioDir:      filepath.Join("input", "audio"),
		outputDir:     "output",
		storyboardDir: "storyboards",
	}
}

func addRenderFlags(fs *pflag.FlagSet, o *renderOptions) {
	fs.StringVarP(&o.input, "input", "i", o.input, "Путь к PDF или папке с изображениями (по умолчанию: самый свежий файл в input/pdf/)")
	fs.StringVarP(&o.output, "output", "o", o.output, "Путь к видео (если пусто, генерируется автоматически в output/)")
	fs.StringVar(&o.workDir, "workdir", o.workDir, "Папка для временных файлов (по умолчанию: системная)")
	fs.Float64Var(&o.duration, "duration", o.duration, "Общая длительность видео в секундах (0 - по числу слайдов)")
	fs.IntVar(&o.width, "width", o.width, "Ширина")
	fs.IntVar(&o.height, "height", o.height, "Высота")
	fs.IntVar(&o.fps, "fps", o.fps, "FPS")
	fs.StringVar(&o.preset, "preset", o.preset, "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram), 1:1")
	fs.StringVarP(&o.transition, "transition", "t", o.transition, "Переход между слайдами (список: slides2video effects)")
	fs.StringVarP(&o.movement, "movement", "m", o.movement, "Движение внутри слайда: fade, scale (отключает переходы)")
	fs.StringVar(&o.corner, "corner", o.corner, "Угол для fade: up-left, up-right, bottom-right, bottom-left")
	fs.StringVar(&o.quality, "quality", o.quality, "Качество масштабирования: none, low, medium, high")
	fs.IntVar(&o.dpi, "dpi", o.dpi, "DPI рендера PDF")
	fs.StringVarP(&o.audio, "audio", "a", o.audio, "Путь к аудио (по умолчанию: самый свежий файл в input/audio/)")
	fs.Float64Var(&o.audioStart, "audio-start", o.audioStart, "Начало фрагмента аудио (сек)")
	fs.Float64Var(&o.audioDuration, "audio-duration", o.audioDuration, "Длительность фрагмента аудио (сек, 0 - до конца)")
	fs.BoolVar(&o.audioSync, "audio-sync", o.audioSync, "Синхронизировать длительность видео с аудио")
	fs.StringVar(&o.encoder, "encoder", o.encoder, "Кодек: auto, mjpeg или имя энкодера ffmpeg")
	fs.IntVar(&o.encoderQ, "encoder-quality", o.encoderQ, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	fs.StringVar(&o.endCard, "end-card", o.endCard, "Добавить в конец слайд с QR-кодом для этой строки")
	fs.StringVar(&o.storyboard, "storyboard", o.storyboard, "Сценарий YAML/TOML (latest - самый свежий в storyboards/)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", o.metricsAddr, "Адрес HTTP для /metrics, например :9090")
	fs.BoolVar(&o.stats, "stats", o.stats, "Показать отчет о производительности и дописать benchmark.log")
	fs.BoolVar(&o.debug, "debug", o.debug, "Подробный лог")
}

func newRenderCommand() *cobra.Command {
	opts := defaultRenderOptions()
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Собрать видео",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}
	addRenderFlags(cmd.Flags(), opts)
	return cmd
}

// config turns the flags into a validated-later Config. Inputs are not
// resolved here.
func (o *renderOptions) config() (config.Config, error) {
	cfg := config.Defaults()
	cfg.InputPath = o.input
	cfg.OutputVideo = o.output
	cfg.WorkDir = o.workDir
	cfg.TotalDuration = o.duration
	cfg.Width, cfg.Height = o.width, o.height
	cfg.FPS = o.fps
	cfg.DPI = o.dpi
	cfg.AudioPath = o.audio
	cfg.AudioStart = o.audioStart
	cfg.AudioDuration = o.audioDuration
	cfg.AudioSync = o.audioSync
	cfg.VideoEncoder = o.encoder
	cfg.EncoderQuality = o.encoderQ
	cfg.EndCard = o.endCard
	cfg.Storyboard = o.storyboard
	cfg.MetricsAddr = o.metricsAddr
	cfg.ShowStats = o.stats
	cfg.Debug = o.debug
	cfg.BuildVersion = version

	if err := cfg.ApplyPreset(o.preset); err != nil {
		return cfg, err
	}

	var err error
	if cfg.Transition, err = effects.ParseTransition(o.transition); err != nil {
		return cfg, err
	}
	if cfg.Movement, err = effects.ParseMovement(o.movement); err != nil {
		return cfg, err
	}
	if cfg.Corner, err = effects.ParseCorner(o.corner); err != nil {
		return cfg, err
	}
	if cfg.Quality, err = renderer.ParseQuality(o.quality); err != nil {
		return cfg, err
	}
	// Движение включено, а переход остался по умолчанию: выключаем переход.
	if cfg.Movement != effects.MovementNone && !o.transitionSet {
		cfg.Transition = effects.TransitionNone
	}
	return cfg, nil
}

// resolve finds the input, audio and output paths the way the old CLI did
// and opens the photo source.
func (o *renderOptions) resolve(ctx context.Context, cfg *config.Config, log *logging.Logger) (source.Source, error) {
	var src source.Source

	if cfg.Storyboard != "" {
		path := cfg.Storyboard
		if path == "latest" {
			latest, err := storyboard.FindLatest(o.storyboardDir)
			if err != nil {
				return nil, err
			}
			path = latest
		}
		sb, err := storyboard.Read(path)
		if err != nil {
			return nil, err
		}
		if err := sb.Apply(cfg); err != nil {
			return nil, fmt.Errorf("storyboard %s: %w", path, err)
		}
		log.Info().Str("storyboard", path).Int("slides", len(sb.Slides)).Msg("[*] Сценарий загружен")
		cfg.InputPath = path
		src = source.NewFileSource(sb.Paths(filepath.Dir(path))).WithLogger(log)
	} else {
		if cfg.InputPath == "" {
			latest, err := system.FindLatestPDF(o.pdfDir)
			if err != nil {
				return nil, fmt.Errorf("%w. Положите PDF в %s", err, o.pdfDir)
			}
			cfg.InputPath = latest
			log.Info().Str("input", latest).Msg("[*] Выбран файл")
		}
		var err error
		if src, err = openSource(cfg.InputPath, cfg.DPI, log); err != nil {
			return nil, fmt.Errorf("ошибка инициализации источника: %w", err)
		}
	}

	if cfg.AudioPath == "" {
		if latest, err := system.FindLatestAudio(o.audioDir); err == nil {
			cfg.AudioPath = latest
			log.Info().Str("audio", latest).Msg("[*] Выбрано аудио")
		}
	}
	if cfg.AudioPath != "" && cfg.AudioSync {
		if d := audioLength(ctx, cfg, log); d > 0 {
			cfg.TotalDuration = d
			log.Info().Float64("seconds", d).Msg("[*] Длительность видео установлена по аудио")
		}
	}

	if cfg.EndCard != "" {
		card, err := source.NewEndCard(src, cfg.EndCard, cfg.Canvas())
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("end card: %w", err)
		}
		src = card
	}

	if cfg.OutputVideo == "" {
		cfg.OutputVideo = outputName(o.outputDir, cfg.InputPath, cfg.AudioPath, time.Now())
	}

	if cfg.VideoEncoder == "" || cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			log.Info().Str("encoder", cfg.VideoEncoder).Msg("[*] Обнаружено аппаратное ускорение")
		}
	}
	return src, nil
}

func openSource(path string, dpi int, log *logging.Logger) (source.Source, error) {
	if system.HasExtension(path, system.PDFExtensions) {
		s, err := source.NewPDFSource(path, dpi)
		if err != nil {
			return nil, err
		}
		return s.WithLogger(log), nil
	}
	s, err := source.NewImageSource(path)
	if err != nil {
		return nil, err
	}
	return s.WithLogger(log), nil
}

// audioLength is the length of the used audio fragment, 0 if unknown.
func audioLength(ctx context.Context, cfg *config.Config, log *logging.Logger) float64 {
	if cfg.AudioDuration > 0 {
		return cfg.AudioDuration
	}
	full, err := system.GetAudioDuration(ctx, cfg.AudioPath)
	if err != nil {
		log.Warn().Err(err).Msg("[!] Не удалось получить длительность аудио")
		return 0
	}
	return max(0, full-cfg.AudioStart)
}

// outputName names the video after the PDF, else the audio track, else the
// newest image of the input folder.
func outputName(dir, inputPath, audioPath string, now time.Time) string {
	nameSource := inputPath
	switch {
	case system.HasExtension(inputPath, system.PDFExtensions):
	case audioPath != "":
		nameSource = audioPath
	default:
		if latest, err := system.FindLatestImage(inputPath); err == nil {
			nameSource = latest
		}
	}

	base := filepath.Base(nameSource)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, " ", "_")
	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", name, timestamp))
}

func runRender(cmd *cobra.Command, o *renderOptions) error {
	o.transitionSet = cmd.Flags().Changed("transition")

	log := logging.NewConsole(o.debug, "slides2video", !isTerminal(os.Stderr))
	system.InitResourceLimits(log)

	// Создаем нужные директории, если их нет
	for _, d := range []string{o.pdfDir, o.audioDir, o.outputDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			log.Debug().Err(err).Str("dir", d).Msg("mkdir")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := o.config()
	if err != nil {
		return err
	}
	src, err := o.resolve(ctx, &cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	var m *metrics.Metrics
	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		srv := metrics.NewServer(cfg.MetricsAddr, m, cfg.Debug, log)
		g.Go(func() error { return srv.Run(serverCtx) })
	}

	var (
		res   engine.Result
		start = time.Now()
	)
	g.Go(func() error {
		defer stopServer()
		maker := engine.NewMaker(&cfg, src, log)
		maker.Metrics = m
		bar := newProgressReporter(os.Stderr, log)
		res = maker.Make(gctx, bar.Update)
		bar.Finish(res.Err == nil)
		return res.Err
	})
	err = g.Wait()

	if cfg.ShowStats {
		report := engine.Report{
			Build:    cfg.BuildVersion,
			Input:    cfg.InputPath,
			Photos:   src.PageCount(),
			Total:    time.Since(start),
			Result:   res,
			Snapshot: system.TakeSnapshot(),
		}
		report.Render(cmd.OutOrStdout())
		if err == nil {
			if werr := report.AppendBenchmark(o.benchmarkLog); werr != nil {
				log.Warn().Err(werr).Msg("benchmark log")
			}
		}
	}
	if err != nil {
		return err
	}

	log.Info().Str("output", res.Asset.Path).Dur("took", logging.Since(start)).Msg("[+++] Успех!")
	return nil
}
