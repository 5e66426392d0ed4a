package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/ivlev/slides2video/internal/logging"
	"github.com/ivlev/slides2video/internal/system"
)

// FFmpegSink pipes raw RGBA frames into an ffmpeg process.
type FFmpegSink struct {
	*Pacer
	opts    Options
	encoder string
	quality int
	binary  string
	log     *logging.Logger
}

func NewFFmpegSink(opts Options, encoder string, quality int, log *logging.Logger) *FFmpegSink {
	if encoder == "" {
		encoder = "libx264"
	}
	if log == nil {
		log = logging.Nop()
	}
	return &FFmpegSink{opts: opts, encoder: encoder, quality: quality, binary: "ffmpeg", log: log}
}

func (s *FFmpegSink) Start(ctx context.Context) error {
	if s.Pacer != nil {
		return errors.New("ffmpeg sink already started")
	}
	args := s.Args()
	s.log.Debug().Strs("args", args).Msg("starting ffmpeg")

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, s.binary, args...)
	stderr := system.NewTail(8 << 10)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	w := &ffmpegWriter{cmd: cmd, stdin: stdin, stderr: stderr, cancel: cancel, path: s.opts.Path}
	s.Pacer = newPacer(w, s.opts.FPS, s.opts.Size, cancel)
	return nil
}

// Args builds the ffmpeg command line for the configured output.
func (s *FFmpegSink) Args() []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", s.opts.Size.X, s.opts.Size.Y),
		"-framerate", strconv.Itoa(max(1, s.opts.FPS)),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", s.encoder,
	}
	args = append(args, QualityArgs(s.encoder, s.quality)...)
	return append(args, s.opts.Path)
}

// QualityArgs maps a quality value onto encoder specific flags.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)} // 75 -> 7.5Мбит/с
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *system.Tail
	cancel context.CancelFunc
	path   string
}

func (w *ffmpegWriter) WriteFrame(pix []byte) error {
	if _, err := w.stdin.Write(pix); err != nil {
		return fmt.Errorf("write raw error: %w%s", err, w.stderr.Suffix())
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	w.stdin.Close()
	err := w.cmd.Wait()
	w.cancel()
	if err != nil {
		return fmt.Errorf("ffmpeg wait error: %w%s", err, w.stderr.Suffix())
	}
	return nil
}

func (w *ffmpegWriter) Abort() {
	w.cancel()
	w.stdin.Close()
	_ = w.cmd.Wait()
	os.Remove(w.path)
}
